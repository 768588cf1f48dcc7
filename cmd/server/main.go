package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"crest/internal/auth/token"
	"crest/internal/badge/cache"
	badgehandler "crest/internal/badge/handler"
	badgemetrics "crest/internal/badge/metrics"
	"crest/internal/badge/registry"
	badgeservice "crest/internal/badge/service"
	"crest/internal/badge/store/lifecycle"
	"crest/internal/badge/store/ownership"
	"crest/internal/chain"
	httpapi "crest/internal/http"
	"crest/internal/platform/config"
	"crest/internal/platform/httpserver"
	"crest/internal/platform/logger"
	"crest/internal/platform/redis"
	audit "crest/pkg/platform/audit"
	auditmem "crest/pkg/platform/audit/store/memory"
	auditpg "crest/pkg/platform/audit/store/postgres"
	"crest/pkg/platform/audit/publisher"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	clock := newClock(cfg.Chain)
	health := map[string]httpapi.HealthChecker{}

	// Backing stores: Postgres when configured, in-memory otherwise.
	var (
		owners     ownership.Store
		lc         lifecycle.Store
		auditStore audit.Store
		regOpts    []registry.Option
	)
	if cfg.Postgres.URL != "" {
		db, err := openPostgres(ctx, cfg.Postgres)
		if err != nil {
			log.Error("postgres setup failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		owners = ownership.NewPostgres(db)
		lc = lifecycle.NewPostgres(db)
		auditStore = auditpg.New(db)
		regOpts = append(regOpts, registry.WithTxRunner(newRegistryPostgresTx(db)))
		health["postgres"] = dbHealth{db}
	} else {
		log.Warn("no postgres configured, using in-memory stores")
		owners = ownership.NewInMemory()
		lc = lifecycle.NewInMemory()
		auditStore = auditmem.NewInMemoryStore()
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis setup failed", "error", err)
		os.Exit(1)
	}
	var metadataCache *cache.MetadataCache
	if redisClient != nil {
		defer redisClient.Close()
		metadataCache = cache.New(redisClient.Client,
			cache.WithTTL(config.MetadataCacheTTL),
			cache.WithLogger(log),
		)
		health["redis"] = redisClient
	}

	var pubOpts []publisher.Option
	if cfg.Audit.AsyncBuffer > 0 {
		pubOpts = append(pubOpts, publisher.WithAsyncBuffer(cfg.Audit.AsyncBuffer), publisher.WithLogger(log))
	}
	auditor := publisher.NewPublisher(auditStore, pubOpts...)
	defer auditor.Close()

	reg, err := registry.New(ctx, owners, lc, clock, regOpts...)
	if err != nil {
		log.Error("registry setup failed", "error", err)
		os.Exit(1)
	}

	badges, err := badgeservice.New(reg, auditor, metadataCache, badgemetrics.New(), log)
	if err != nil {
		log.Error("service setup failed", "error", err)
		os.Exit(1)
	}

	tokens := token.NewService(cfg.JWTSigningKey, "crest", "crest-api")
	router := httpapi.NewRouter(httpapi.Deps{
		Logger: log,
		Badges: badgehandler.New(badges, log, tokens),
		Clock:  clock,
		Health: health,
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting crest", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// newClock picks the block source: a configured genesis anchors real chain
// time, otherwise heights start counting from process start.
func newClock(cfg config.ChainConfig) chain.Clock {
	genesis := cfg.Genesis
	if genesis.IsZero() {
		genesis = time.Now()
	}
	return chain.NewSystem(genesis, cfg.BlockInterval)
}

func openPostgres(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	for _, schema := range []string{ownership.Schema, lifecycle.Schema, auditpg.Schema} {
		if _, err := db.ExecContext(ctx, schema); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// dbHealth adapts *sql.DB to the router's health checker.
type dbHealth struct {
	db *sql.DB
}

func (h dbHealth) Health(ctx context.Context) error {
	return h.db.PingContext(ctx)
}
