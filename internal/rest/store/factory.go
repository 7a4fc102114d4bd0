// Package store implements the Database collaborator consumed by the
// routing layer: get/create/update/patch/delete primitives over named
// collections and singular resources, with pluggable persistence backends.
package store

import (
	"context"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/pkg/errors"

	"github.com/hamidmayeli/api-faker/internal/pkg/pkguid"
	"github.com/hamidmayeli/api-faker/internal/rest/usecase"
)

// Options selects and configures a backend.
type Options struct {
	// Backend is one of "memory", "file", "sqlite". Empty means "memory".
	Backend string
	// Path is the snapshot file (file backend) or database file (sqlite).
	Path string
	// Seed optionally points to a .json/.yaml tree loaded at startup.
	// The file backend only applies it when its own snapshot is absent;
	// the sqlite backend only when the database is empty.
	Seed string
	// IDField is the identifying field of collection items.
	IDField string
	// Gen supplies fresh unique identifiers for items created without one.
	Gen pkguid.StringID
}

// New creates a Database for the configured backend.
func New(ctx context.Context, opts Options) (usecase.Database, error) {
	switch opts.Backend {
	case "memory", "":
		s := NewMemoryStore(opts.IDField, opts.Gen)
		if opts.Seed != "" {
			data, err := LoadSeed(opts.Seed)
			if err != nil {
				return nil, err
			}
			s.LoadSnapshot(data)
		}
		return s, nil

	case "file":
		s, err := NewFileStore(opts.Path, opts.IDField, opts.Gen)
		if err != nil {
			return nil, err
		}
		if opts.Seed != "" && opts.Seed != opts.Path {
			if snap, _ := s.Snapshot(ctx); len(snap) == 0 {
				data, err := LoadSeed(opts.Seed)
				if err != nil {
					return nil, err
				}
				s.LoadSnapshot(data)
			}
		}
		return s, nil

	case "sqlite":
		s, err := NewSqliteStore(opts.Path, opts.IDField, opts.Gen)
		if err != nil {
			return nil, err
		}
		if opts.Seed != "" {
			empty, err := s.Empty(ctx)
			if err != nil {
				s.Close()
				return nil, err
			}
			if empty {
				data, err := LoadSeed(opts.Seed)
				if err != nil {
					s.Close()
					return nil, err
				}
				if err := s.LoadSnapshot(ctx, data); err != nil {
					s.Close()
					return nil, err
				}
			}
		}
		return s, nil

	default:
		return nil, errors.Errorf("unknown store backend: %q (supported: memory, file, sqlite)", opts.Backend)
	}
}
