package store

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamidmayeli/api-faker/internal/rest/entity"
)

// seqGen hands out predictable identifiers so tests can assert on them.
type seqGen struct{ n int }

func (g *seqGen) Generate() string {
	g.n++
	return fmt.Sprintf("seq-%d", g.n)
}

func memorySeed() map[string]any {
	return map[string]any{
		"posts": []any{
			map[string]any{"id": "1", "title": "first"},
			map[string]any{"id": json.Number("2"), "title": "second"},
		},
		"profile": map[string]any{"name": "ada"},
		"motd":    "hello",
	}
}

func TestMemoryStoreClassification(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore("", &seqGen{})
	s.LoadSnapshot(memorySeed())
	ctx := context.Background()

	view, err := s.Resource(ctx, "posts")
	require.NoError(t, err)
	assert.Equal(t, entity.KindCollection, view.Kind)
	assert.Len(t, view.Items, 2)

	view, err = s.Resource(ctx, "profile")
	require.NoError(t, err)
	assert.Equal(t, entity.KindSingular, view.Kind)
	assert.True(t, view.IsObject())

	view, err = s.Resource(ctx, "motd")
	require.NoError(t, err)
	assert.Equal(t, entity.KindSingular, view.Kind)
	assert.False(t, view.IsObject())

	view, err = s.Resource(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, entity.KindMissing, view.Kind)
}

func TestMemoryStoreMixedShapeCollection(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore("", &seqGen{})
	s.LoadSnapshot(map[string]any{
		"tags": []any{"a", map[string]any{"id": "1", "name": "b"}, "c"},
	})
	ctx := context.Background()

	view, err := s.Resource(ctx, "tags")
	require.NoError(t, err)
	require.Equal(t, entity.KindCollection, view.Kind)

	// The raw value keeps every member; Items filters to the objects.
	members, ok := view.Raw.([]any)
	require.True(t, ok)
	require.Len(t, members, 3)
	assert.Equal(t, "a", members[0])
	require.Len(t, view.Items, 1)

	doc, err := s.GetByID(ctx, "tags", "1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "b", doc["name"])
}

func TestMemoryStoreCreatePreservesOrder(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore("", &seqGen{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.Create(ctx, "items", map[string]any{"id": fmt.Sprintf("%d", i)})
		require.NoError(t, err)
	}

	view, err := s.Resource(ctx, "items")
	require.NoError(t, err)
	require.Len(t, view.Items, 5)
	for i, doc := range view.Items {
		assert.Equal(t, fmt.Sprintf("%d", i), entity.IDString(doc["id"]))
	}
}

func TestMemoryStoreCreateGeneratesID(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore("", &seqGen{})
	ctx := context.Background()

	doc, err := s.Create(ctx, "posts", map[string]any{"title": "no id"})
	require.NoError(t, err)
	assert.Equal(t, "seq-1", doc["id"])

	// An explicit empty id also counts as missing.
	doc, err = s.Create(ctx, "posts", map[string]any{"id": "", "title": "blank id"})
	require.NoError(t, err)
	assert.Equal(t, "seq-2", doc["id"])
}

func TestMemoryStoreCreateDuplicateID(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore("", &seqGen{})
	s.LoadSnapshot(memorySeed())

	_, err := s.Create(context.Background(), "posts", map[string]any{"id": "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Item with id '1' already exists in 'posts'")
}

func TestMemoryStoreCreateOnSingular(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore("", &seqGen{})
	s.LoadSnapshot(memorySeed())

	_, err := s.Create(context.Background(), "profile", map[string]any{"title": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a collection")
}

func TestMemoryStoreGetByIDNormalizesNumbers(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore("", &seqGen{})
	s.LoadSnapshot(memorySeed())

	// The seed stores id 2 as a number; lookup happens by its string form.
	doc, err := s.GetByID(context.Background(), "posts", "2")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "second", doc["title"])
}

func TestMemoryStoreUpdatePreservesIdentifier(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore("", &seqGen{})
	s.LoadSnapshot(memorySeed())
	ctx := context.Background()

	doc, err := s.Update(ctx, "posts", "1", map[string]any{"id": "999", "title": "rewritten"})
	require.NoError(t, err)
	assert.Equal(t, "1", entity.IDString(doc["id"]))
	assert.Equal(t, "rewritten", doc["title"])

	doc, err = s.Update(ctx, "posts", "404", map[string]any{"title": "x"})
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestMemoryStorePatchMergesShallow(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore("", &seqGen{})
	s.LoadSnapshot(memorySeed())

	doc, err := s.Patch(context.Background(), "posts", "1", map[string]any{"id": "999", "draft": true})
	require.NoError(t, err)
	assert.Equal(t, "1", entity.IDString(doc["id"]))
	assert.Equal(t, "first", doc["title"])
	assert.Equal(t, true, doc["draft"])
}

func TestMemoryStoreCustomIDField(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore("key", &seqGen{})
	ctx := context.Background()

	doc, err := s.Create(ctx, "items", map[string]any{"name": "a"})
	require.NoError(t, err)
	assert.Equal(t, "seq-1", doc["key"])

	got, err := s.GetByID(ctx, "items", "seq-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a", got["name"])
}

func TestMemoryStoreDelete(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore("", &seqGen{})
	s.LoadSnapshot(memorySeed())
	ctx := context.Background()

	removed, err := s.Delete(ctx, "posts", "1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Delete(ctx, "posts", "1")
	require.NoError(t, err)
	assert.False(t, removed)

	// The now-shorter collection keeps its remaining item.
	view, err := s.Resource(ctx, "posts")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "2", entity.IDString(view.Items[0]["id"]))
}

func TestMemoryStoreSnapshotIsolation(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore("", &seqGen{})
	s.LoadSnapshot(memorySeed())
	ctx := context.Background()

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)

	// Mutating a returned snapshot must not leak into the store.
	snap["posts"] = []any{}
	delete(snap, "profile")

	view, err := s.Resource(ctx, "posts")
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)

	view, err = s.Resource(ctx, "profile")
	require.NoError(t, err)
	assert.Equal(t, entity.KindSingular, view.Kind)
}
