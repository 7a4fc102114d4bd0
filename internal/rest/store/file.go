package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hamidmayeli/api-faker/internal/pkg/pkguid"
)

// FileStore is a MemoryStore whose content is snapshotted to a single file
// on disk (db.json or db.yaml). Mutations happen in memory; Persist writes
// the whole tree back, so durability is only as fresh as the last Persist.
type FileStore struct {
	*MemoryStore

	path    string
	writeMu sync.Mutex
}

// NewFileStore loads the snapshot at path if it exists; a missing file is
// not an error, the store starts empty and the file appears on first Persist.
func NewFileStore(path, idField string, gen pkguid.StringID) (*FileStore, error) {
	s := &FileStore{
		MemoryStore: NewMemoryStore(idField, gen),
		path:        path,
	}

	data, err := LoadSeed(path)
	if err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			return nil, errors.Wrapf(err, "load snapshot %q", path)
		}
		return s, nil
	}

	s.LoadSnapshot(data)
	return s, nil
}

// Persist writes the current tree to disk. The write goes through a temp
// file and a rename so a crash mid-write never truncates the snapshot.
func (s *FileStore) Persist(ctx context.Context) error {
	data, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var raw []byte
	if isYAMLPath(s.path) {
		raw, err = yaml.Marshal(data)
	} else {
		raw, err = json.MarshalIndent(data, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "create snapshot directory")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return errors.Wrap(err, "write snapshot")
	}

	return errors.Wrap(os.Rename(tmp, s.path), "replace snapshot")
}

func isYAMLPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
