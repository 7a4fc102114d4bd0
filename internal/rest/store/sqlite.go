package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/hamidmayeli/api-faker/internal/pkg/pkgerror"
	"github.com/hamidmayeli/api-faker/internal/pkg/pkguid"
	"github.com/hamidmayeli/api-faker/internal/rest/entity"
)

// SqliteStore keeps the document tree in a single SQLite database.
//
// Tables:
//
//	collections(resource)            registry of known collections
//	documents(resource, id, doc)     collection items, insertion-ordered by rowid
//	singulars(resource, doc)         singular resources
//
// The registry keeps a collection classified as a collection even after its
// last item is deleted. The id column holds the string-normalized identifier
// (or a generated surrogate for members without one); the doc JSON keeps the
// original typed value, so non-object collection members round-trip intact.
type SqliteStore struct {
	mu      sync.RWMutex
	db      *sql.DB
	idField string
	gen     pkguid.StringID
}

func NewSqliteStore(dbPath, idField string, gen pkguid.StringID) (*SqliteStore, error) {
	if idField == "" {
		idField = "id"
	}
	if gen == nil {
		gen = pkguid.NewUUID()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "create database directory")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	stmts := []string{
		"PRAGMA journal_mode=WAL",
		`CREATE TABLE IF NOT EXISTS collections (
			resource TEXT PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			resource TEXT NOT NULL,
			id TEXT NOT NULL,
			doc TEXT NOT NULL,
			PRIMARY KEY (resource, id)
		)`,
		`CREATE TABLE IF NOT EXISTS singulars (
			resource TEXT PRIMARY KEY,
			doc TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "initialize schema")
		}
	}

	return &SqliteStore{db: db, idField: idField, gen: gen}, nil
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}

// Empty reports whether the database holds no resources at all.
func (s *SqliteStore) Empty(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT (SELECT COUNT(*) FROM collections) + (SELECT COUNT(*) FROM singulars)",
	).Scan(&n)
	if err != nil {
		return false, errors.Wrap(err, "count resources")
	}

	return n == 0, nil
}

// LoadSnapshot replaces the database content with the given tree.
func (s *SqliteStore) LoadSnapshot(ctx context.Context, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin load")
	}
	defer tx.Rollback()

	for _, table := range []string{"collections", "documents", "singulars"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.Wrapf(err, "clear %s", table)
		}
	}

	for name, value := range data {
		view := entity.Classify(copyValue(value), true)

		switch view.Kind {
		case entity.KindCollection:
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO collections (resource) VALUES (?)", name); err != nil {
				return errors.Wrapf(err, "register collection %q", name)
			}
			// Walk the raw sequence, not just its object members, so
			// mixed-shape collections survive the round trip the same
			// way they do in the memory backend.
			members, _ := view.Raw.([]any)
			for _, member := range members {
				raw, err := json.Marshal(member)
				if err != nil {
					return errors.Wrapf(err, "encode item in %q", name)
				}
				if _, err := tx.ExecContext(ctx,
					"INSERT INTO documents (resource, id, doc) VALUES (?, ?, ?)",
					name, s.rowKey(member), string(raw)); err != nil {
					return errors.Wrapf(err, "insert item in %q", name)
				}
			}
		default:
			raw, err := json.Marshal(view.Value)
			if err != nil {
				return errors.Wrapf(err, "encode singular %q", name)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO singulars (resource, doc) VALUES (?, ?)", name, string(raw)); err != nil {
				return errors.Wrapf(err, "insert singular %q", name)
			}
		}
	}

	return errors.Wrap(tx.Commit(), "commit load")
}

func (s *SqliteStore) Snapshot(ctx context.Context) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := make(map[string]any)

	names, err := s.collectionNames(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		items, err := s.collectionItems(ctx, name)
		if err != nil {
			return nil, err
		}
		data[name] = items
	}

	rows, err := s.db.QueryContext(ctx, "SELECT resource, doc FROM singulars")
	if err != nil {
		return nil, errors.Wrap(err, "query singulars")
	}
	defer rows.Close()

	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, errors.Wrap(err, "scan singular")
		}
		value, err := decodeValue(raw)
		if err != nil {
			return nil, err
		}
		data[name] = value
	}

	return data, rows.Err()
}

func (s *SqliteStore) Resource(ctx context.Context, name string) (entity.ResourceView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT doc FROM singulars WHERE resource = ?", name).Scan(&raw)
	switch {
	case err == nil:
		value, err := decodeValue(raw)
		if err != nil {
			return entity.ResourceView{}, err
		}
		return entity.Classify(value, true), nil
	case err != sql.ErrNoRows:
		return entity.ResourceView{}, errors.Wrap(err, "query singular")
	}

	var registered int
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM collections WHERE resource = ?", name).Scan(&registered)
	if err != nil {
		return entity.ResourceView{}, errors.Wrap(err, "query collection registry")
	}
	if registered == 0 {
		return entity.Classify(nil, false), nil
	}

	items, err := s.collectionItems(ctx, name)
	if err != nil {
		return entity.ResourceView{}, err
	}

	return entity.Classify(items, true), nil
}

func (s *SqliteStore) GetByID(ctx context.Context, name, id string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getDocument(ctx, name, id)
}

func (s *SqliteStore) Create(ctx context.Context, name string, doc map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM singulars WHERE resource = ?", name).Scan(&n); err != nil {
		return nil, errors.Wrap(err, "query singular")
	}
	if n > 0 {
		return nil, pkgerror.NewConflict(fmt.Sprintf("Resource '%s' is not a collection", name))
	}

	stored := copyValue(doc).(map[string]any)

	id := entity.IDString(stored[s.idField])
	if id == "" {
		id = s.gen.Generate()
		stored[s.idField] = id
	} else {
		existing, err := s.getDocument(ctx, name, id)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, pkgerror.NewConflict(fmt.Sprintf("Item with id '%s' already exists in '%s'", id, name))
		}
	}

	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, errors.Wrap(err, "encode item")
	}

	if _, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO collections (resource) VALUES (?)", name); err != nil {
		return nil, errors.Wrap(err, "register collection")
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO documents (resource, id, doc) VALUES (?, ?, ?)",
		name, id, string(raw)); err != nil {
		return nil, errors.Wrap(err, "insert item")
	}

	return stored, nil
}

func (s *SqliteStore) Update(ctx context.Context, name, id string, doc map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getDocument(ctx, name, id)
	if err != nil || existing == nil {
		return nil, err
	}

	replaced := copyValue(doc).(map[string]any)
	replaced[s.idField] = existing[s.idField]

	return s.putDocument(ctx, name, id, replaced)
}

func (s *SqliteStore) Patch(ctx context.Context, name, id string, partial map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getDocument(ctx, name, id)
	if err != nil || existing == nil {
		return nil, err
	}

	merged := entity.Merge(existing, copyValue(partial).(map[string]any))
	merged[s.idField] = existing[s.idField]

	return s.putDocument(ctx, name, id, merged)
}

func (s *SqliteStore) ReplaceSingular(ctx context.Context, name string, value map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM collections WHERE resource = ?", name).Scan(&n); err != nil {
		return nil, errors.Wrap(err, "query collection registry")
	}
	if n > 0 {
		return nil, pkgerror.NewConflict(fmt.Sprintf("Resource '%s' is a collection", name))
	}

	stored := copyValue(value).(map[string]any)
	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, errors.Wrap(err, "encode singular")
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO singulars (resource, doc) VALUES (?, ?)
		 ON CONFLICT(resource) DO UPDATE SET doc = excluded.doc`,
		name, string(raw)); err != nil {
		return nil, errors.Wrap(err, "upsert singular")
	}

	return stored, nil
}

func (s *SqliteStore) Delete(ctx context.Context, name, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE resource = ? AND id = ?", name, id)
	if err != nil {
		return false, errors.Wrap(err, "delete item")
	}

	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Persist is a no-op: SQLite is durable on every mutation.
func (s *SqliteStore) Persist(ctx context.Context) error {
	return nil
}

func (s *SqliteStore) collectionNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT resource FROM collections ORDER BY resource")
	if err != nil {
		return nil, errors.Wrap(err, "query collections")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "scan collection")
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

func (s *SqliteStore) collectionItems(ctx context.Context, name string) ([]any, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT doc FROM documents WHERE resource = ? ORDER BY rowid", name)
	if err != nil {
		return nil, errors.Wrap(err, "query items")
	}
	defer rows.Close()

	items := make([]any, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.Wrap(err, "scan item")
		}
		doc, err := decodeValue(raw)
		if err != nil {
			return nil, err
		}
		items = append(items, doc)
	}

	return items, rows.Err()
}

func (s *SqliteStore) getDocument(ctx context.Context, name, id string) (map[string]any, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT doc FROM documents WHERE resource = ? AND id = ?", name, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "query item")
	}

	value, err := decodeValue(raw)
	if err != nil {
		return nil, err
	}

	doc, _ := value.(map[string]any)
	return doc, nil
}

func (s *SqliteStore) putDocument(ctx context.Context, name, id string, doc map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "encode item")
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE documents SET doc = ? WHERE resource = ? AND id = ?",
		string(raw), name, id); err != nil {
		return nil, errors.Wrap(err, "update item")
	}

	return doc, nil
}

// rowKey picks the primary-key value for a collection member. Object
// members keep their normalized identifier; members without one (scalars,
// arrays, id-less objects) get a generated surrogate so the (resource, id)
// key stays unique.
func (s *SqliteStore) rowKey(member any) string {
	if doc, ok := member.(map[string]any); ok {
		if id := entity.IDString(doc[s.idField]); id != "" {
			return id
		}
	}

	return s.gen.Generate()
}

func decodeValue(raw string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, errors.Wrap(err, "decode stored document")
	}

	return value, nil
}
