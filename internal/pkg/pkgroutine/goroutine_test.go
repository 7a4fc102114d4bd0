package pkgroutine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestManagerRunsAndCollectsErrors(t *testing.T) {
	mgr := NewManager(2)

	var ran atomic.Int32
	boom := errors.New("boom")

	mgr.Go(context.Background(), func(ctx context.Context) error {
		ran.Add(1)
		return nil
	})
	mgr.Go(context.Background(), func(ctx context.Context) error {
		ran.Add(1)
		return boom
	})

	err := mgr.Wait()
	if got := ran.Load(); got != 2 {
		t.Fatalf("expected both tasks to run, got %d", got)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected collected error, got %v", err)
	}
}

func TestManagerSkipsCanceledContext(t *testing.T) {
	mgr := NewManager(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	mgr.Go(ctx, func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})

	if err := mgr.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ran.Load() {
		t.Fatal("expected task not to run")
	}
}

func TestManagerRecoversPanic(t *testing.T) {
	mgr := NewManager(1)

	mgr.Go(context.Background(), func(ctx context.Context) error {
		panic("kaboom")
	})

	if err := mgr.Wait(); err != nil {
		t.Fatalf("panic should not surface as error, got %v", err)
	}
}
