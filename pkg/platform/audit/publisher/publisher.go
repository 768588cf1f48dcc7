// Package publisher delivers audit events to a store, synchronously by
// default or through a buffered channel drained by a background goroutine.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	id "crest/pkg/domain"
	audit "crest/pkg/platform/audit"
)

// Publisher emits audit events. In sync mode Emit persists before returning;
// in async mode Emit enqueues and a single goroutine persists in order.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	inbox chan audit.Event
	wg    sync.WaitGroup

	closeOnce sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with the given
// channel capacity. Emit blocks when the buffer is full rather than dropping
// events; the trail is the system of record.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

// WithLogger sets the logger used for persistence failures in async mode.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records one audit event. The event ID and timestamp are filled in when
// missing so call sites stay terse.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// List returns the trail for one badge.
func (p *Publisher) List(ctx context.Context, badgeID id.BadgeID) ([]audit.Event, error) {
	return p.store.ListByBadge(ctx, badgeID)
}

// Close stops the async drain goroutine after flushing buffered events.
// Safe to call multiple times and in sync mode.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		// Detached context: request contexts are gone by the time async
		// events land here.
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("audit append failed",
				"action", string(event.Action),
				"badge_id", event.BadgeID.String(),
				"error", err,
			)
		}
	}
}
