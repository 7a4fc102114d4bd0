package event

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Persister writes the current store snapshot to durable storage.
type Persister interface {
	Persist(ctx context.Context) error
}

type ConsumerConfig struct {
	Debounce    time.Duration
	MaxRetries  int
	BaseBackoff time.Duration
}

// SnapshotConsumer turns change events into snapshot writes.
//
// A single worker debounces bursts of mutations so a rapid sequence of
// writes produces one snapshot, then persists with bounded retries and
// exponential backoff. Stop drains the bus and performs one final persist.
type SnapshotConsumer struct {
	bus         *Bus
	persister   Persister
	debounce    time.Duration
	maxRetries  int
	baseBackoff time.Duration
	wg          sync.WaitGroup
}

func NewSnapshotConsumer(bus *Bus, persister Persister, cfg ConsumerConfig) *SnapshotConsumer {
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	baseBackoff := cfg.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = 100 * time.Millisecond
	}

	return &SnapshotConsumer{
		bus:         bus,
		persister:   persister,
		debounce:    debounce,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
	}
}

func (c *SnapshotConsumer) Start() {
	c.wg.Add(1)
	go c.worker()
}

// Stop closes the bus, waits for the worker, and persists one last time so
// no acknowledged mutation is left out of the snapshot.
func (c *SnapshotConsumer) Stop(ctx context.Context) error {
	if c.bus != nil {
		c.bus.Close()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if c.persister == nil {
		return nil
	}

	return c.persister.Persist(ctx)
}

func (c *SnapshotConsumer) worker() {
	defer c.wg.Done()

	ch := c.bus.Subscribe()
	for {
		event, ok := <-ch
		if !ok {
			return
		}

		slog.Debug("store changed", "op", event.Op, "resource", event.Resource, "id", event.ID)

		// Absorb the burst: keep resetting the quiet-period timer while
		// further events arrive, then write once.
		timer := time.NewTimer(c.debounce)
	drain:
		for {
			select {
			case event, ok = <-ch:
				if !ok {
					break drain
				}
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(c.debounce)
			case <-timer.C:
				break drain
			}
		}
		timer.Stop()

		c.persist()

		if !ok {
			return
		}
	}
}

func (c *SnapshotConsumer) persist() {
	if c.persister == nil {
		return
	}

	backoff := c.baseBackoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		err := c.persister.Persist(context.Background())
		if err == nil {
			return
		}

		if attempt == c.maxRetries {
			slog.Error("failed to persist snapshot after retries", "error", err)
			return
		}

		if !sleepBackoff(backoff) {
			return
		}
		backoff *= 2
	}
}

func sleepBackoff(d time.Duration) bool {
	if d <= 0 {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	<-timer.C
	return true
}
