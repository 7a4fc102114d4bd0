package rest

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/hamidmayeli/api-faker/internal/pkg/pkgconfig"
	"github.com/hamidmayeli/api-faker/internal/pkg/pkgrouter"
	"github.com/hamidmayeli/api-faker/internal/pkg/pkgroutine"
	"github.com/hamidmayeli/api-faker/internal/pkg/pkguid"
	"github.com/hamidmayeli/api-faker/internal/rest/event"
	"github.com/hamidmayeli/api-faker/internal/rest/inbound"
	"github.com/hamidmayeli/api-faker/internal/rest/store"
	"github.com/hamidmayeli/api-faker/internal/rest/usecase"
)

type Dependency struct {
	Config    pkgconfig.Config
	Goroutine *pkgroutine.Manager
	Router    *pkgrouter.Router
	Context   context.Context
	ID        pkguid.StringID
}

// snapshotSettings tunes the persistence consumer; decoded from the
// "snapshot" config section.
type snapshotSettings struct {
	DebounceMS int64 `mapstructure:"debounce_ms"`
	MaxRetries int   `mapstructure:"max_retries"`
	BackoffMS  int64 `mapstructure:"backoff_ms"`
	IntervalS  int64 `mapstructure:"interval_s"`
}

func New(dep Dependency) (func(context.Context) error, error) {
	cfg := dep.Config

	gen := dep.ID
	if cfg.GetString("modules.rest.id_style") == "snowflake" {
		flake, err := pkguid.NewSnowflake()
		if err != nil {
			return nil, err
		}
		gen = pkguid.AsString(flake)
	}
	if gen == nil {
		gen = pkguid.NewUUID()
	}

	db, err := store.New(dep.Context, store.Options{
		Backend: cfg.GetString("store.backend"),
		Path:    cfg.GetString("store.path"),
		Seed:    cfg.GetString("modules.rest.seed"),
		IDField: cfg.GetString("modules.rest.id_field"),
		Gen:     gen,
	})
	if err != nil {
		return nil, err
	}

	var snapshot snapshotSettings
	if err := cfg.Unmarshal("snapshot", &snapshot); err != nil {
		return nil, err
	}

	bus := event.NewBus(256)
	consumer := event.NewSnapshotConsumer(bus, db, event.ConsumerConfig{
		Debounce:    time.Duration(snapshot.DebounceMS) * time.Millisecond,
		MaxRetries:  snapshot.MaxRetries,
		BaseBackoff: time.Duration(snapshot.BackoffMS) * time.Millisecond,
	})
	consumer.Start()

	if snapshot.IntervalS > 0 {
		interval := time.Duration(snapshot.IntervalS) * time.Second
		dep.Goroutine.Go(dep.Context, func(ctx context.Context) error {
			return persistLoop(ctx, db, interval)
		})
	}

	uc := usecase.New(usecase.Dependency{
		DB:     db,
		Events: bus,
		Settings: usecase.Settings{
			IDField:          cfg.GetString("modules.rest.id_field"),
			ForeignKeySuffix: cfg.GetString("modules.rest.foreign_key_suffix"),
			ReadOnly:         cfg.GetBool("modules.rest.read_only"),
		},
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	closer := func(ctx context.Context) error {
		if err := consumer.Stop(ctx); err != nil {
			return err
		}
		if c, ok := db.(io.Closer); ok {
			return c.Close()
		}
		return nil
	}

	return closer, nil
}

// persistLoop writes the snapshot on a fixed interval as a safety net on
// top of the event-driven consumer. It exits when the root context ends.
func persistLoop(ctx context.Context, db usecase.Database, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := db.Persist(ctx); err != nil {
				slog.ErrorContext(ctx, "interval snapshot failed", "error", err)
			}
		}
	}
}
