package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hamidmayeli/api-faker/internal/pkg/pkgerror"
	"github.com/hamidmayeli/api-faker/internal/pkg/pkguid"
	"github.com/hamidmayeli/api-faker/internal/rest/entity"
)

// MemoryStore keeps the whole document tree in memory. Data is lost on
// restart. Safe for concurrent use; conflicting mutations on the same
// resource are serialized by a single lock.
//
// Top-level values are either []any (collections) or any other JSON value
// (singular resources). Collections preserve insertion order.
type MemoryStore struct {
	mu      sync.RWMutex
	data    map[string]any
	idField string
	gen     pkguid.StringID
}

func NewMemoryStore(idField string, gen pkguid.StringID) *MemoryStore {
	if idField == "" {
		idField = "id"
	}
	if gen == nil {
		gen = pkguid.NewUUID()
	}

	return &MemoryStore{
		data:    make(map[string]any),
		idField: idField,
		gen:     gen,
	}
}

// LoadSnapshot replaces the store content with the given tree.
func (m *MemoryStore) LoadSnapshot(data map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if data == nil {
		data = map[string]any{}
	}
	m.data = copyValue(data).(map[string]any)
}

func (m *MemoryStore) Snapshot(ctx context.Context) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return copyValue(m.data).(map[string]any), nil
}

func (m *MemoryStore) Resource(ctx context.Context, name string) (entity.ResourceView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, present := m.data[name]
	if !present {
		return entity.Classify(nil, false), nil
	}

	return entity.Classify(copyValue(value), true), nil
}

func (m *MemoryStore) GetByID(ctx context.Context, name, id string) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, _ := m.find(name, id)
	if doc == nil {
		return nil, nil
	}

	return copyValue(doc).(map[string]any), nil
}

func (m *MemoryStore) Create(ctx context.Context, name string, doc map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, present := m.data[name]
	items, isSeq := value.([]any)
	if present && !isSeq {
		return nil, pkgerror.NewConflict(fmt.Sprintf("Resource '%s' is not a collection", name))
	}

	stored := copyValue(doc).(map[string]any)

	id := entity.IDString(stored[m.idField])
	if id == "" {
		id = m.gen.Generate()
		stored[m.idField] = id
	} else if existing, _ := m.findInItems(items, id); existing != nil {
		return nil, pkgerror.NewConflict(fmt.Sprintf("Item with id '%s' already exists in '%s'", id, name))
	}

	m.data[name] = append(items, stored)

	return copyValue(stored).(map[string]any), nil
}

func (m *MemoryStore) Update(ctx context.Context, name, id string, doc map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, idx := m.find(name, id)
	if existing == nil {
		return nil, nil
	}

	replaced := copyValue(doc).(map[string]any)
	replaced[m.idField] = existing[m.idField]
	m.data[name].([]any)[idx] = replaced

	return copyValue(replaced).(map[string]any), nil
}

func (m *MemoryStore) Patch(ctx context.Context, name, id string, partial map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, idx := m.find(name, id)
	if existing == nil {
		return nil, nil
	}

	merged := entity.Merge(existing, copyValue(partial).(map[string]any))
	merged[m.idField] = existing[m.idField]
	m.data[name].([]any)[idx] = merged

	return copyValue(merged).(map[string]any), nil
}

func (m *MemoryStore) ReplaceSingular(ctx context.Context, name string, value map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, present := m.data[name]; present {
		if _, isSeq := existing.([]any); isSeq {
			return nil, pkgerror.NewConflict(fmt.Sprintf("Resource '%s' is a collection", name))
		}
	}

	stored := copyValue(value).(map[string]any)
	m.data[name] = stored

	return copyValue(stored).(map[string]any), nil
}

func (m *MemoryStore) Delete(ctx context.Context, name, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, idx := m.find(name, id)
	if existing == nil {
		return false, nil
	}

	items := m.data[name].([]any)
	m.data[name] = append(items[:idx], items[idx+1:]...)

	return true, nil
}

// Persist is a no-op: the memory backend is ephemeral.
func (m *MemoryStore) Persist(ctx context.Context) error {
	return nil
}

// find locates an item by normalized id. Caller must hold the lock.
func (m *MemoryStore) find(name, id string) (map[string]any, int) {
	items, _ := m.data[name].([]any)
	return m.findInItems(items, id)
}

func (m *MemoryStore) findInItems(items []any, id string) (map[string]any, int) {
	for i, el := range items {
		doc, ok := el.(map[string]any)
		if !ok {
			continue
		}
		if entity.IDString(doc[m.idField]) == id {
			return doc, i
		}
	}

	return nil, -1
}

// copyValue deep-copies a JSON value by round-tripping through encoding/json,
// decoding numbers as json.Number so identifiers keep their original text.
func copyValue(v any) any {
	if v == nil {
		return nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return v
	}

	return out
}
