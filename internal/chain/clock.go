// Package chain supplies the monotonically non-decreasing block-height
// counter the registry reads to gate expiry logic. The registry never writes
// it; height is an external fact about the world.
package chain

import (
	"context"
	"sync/atomic"
	"time"
)

// Clock reports the current block height.
type Clock interface {
	Height(ctx context.Context) (uint64, error)
}

// ManualClock is an explicitly advanced clock for tests and admin tooling.
// Advance only moves forward; the counter never decreases.
type ManualClock struct {
	height atomic.Uint64
}

// NewManual constructs a manual clock starting at the given height.
func NewManual(start uint64) *ManualClock {
	c := &ManualClock{}
	c.height.Store(start)
	return c
}

func (c *ManualClock) Height(_ context.Context) (uint64, error) {
	return c.height.Load(), nil
}

// Advance moves the clock forward by n blocks and returns the new height.
func (c *ManualClock) Advance(n uint64) uint64 {
	return c.height.Add(n)
}

// SetAtLeast raises the clock to at least the given height. A lower target
// is a no-op, preserving monotonicity.
func (c *ManualClock) SetAtLeast(target uint64) uint64 {
	for {
		current := c.height.Load()
		if current >= target {
			return current
		}
		if c.height.CompareAndSwap(current, target) {
			return target
		}
	}
}

// SystemClock derives height from wall time: one block per fixed interval
// since a configured genesis instant. Monotonic because wall time (as read
// here) only moves forward across calls within a process lifetime.
type SystemClock struct {
	genesis  time.Time
	interval time.Duration
}

// NewSystem constructs a wall-clock-derived chain clock.
func NewSystem(genesis time.Time, interval time.Duration) *SystemClock {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &SystemClock{genesis: genesis, interval: interval}
}

func (c *SystemClock) Height(_ context.Context) (uint64, error) {
	elapsed := time.Since(c.genesis)
	if elapsed < 0 {
		return 0, nil
	}
	return uint64(elapsed / c.interval), nil
}
