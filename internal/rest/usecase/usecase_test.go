package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sync"
	"testing"

	"github.com/hamidmayeli/api-faker/internal/pkg/pkgerror"
	"github.com/hamidmayeli/api-faker/internal/rest/entity"
)

type fakeDB struct {
	mu          sync.Mutex
	data        map[string]any
	resourceErr error
	createErr   error
	nextID      int
	calls       int
	persists    int
}

func newFakeDB(seed map[string]any) *fakeDB {
	if seed == nil {
		seed = map[string]any{}
	}
	return &fakeDB{data: seed}
}

func (f *fakeDB) enter() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
}

func (f *fakeDB) Snapshot(ctx context.Context) (map[string]any, error) {
	f.enter()
	return f.data, nil
}

func (f *fakeDB) Resource(ctx context.Context, name string) (entity.ResourceView, error) {
	f.enter()
	if f.resourceErr != nil {
		return entity.ResourceView{}, f.resourceErr
	}
	value, present := f.data[name]
	return entity.Classify(value, present), nil
}

func (f *fakeDB) GetByID(ctx context.Context, name, id string) (map[string]any, error) {
	f.enter()
	doc, _ := f.find(name, id)
	return doc, nil
}

func (f *fakeDB) Create(ctx context.Context, name string, doc map[string]any) (map[string]any, error) {
	f.enter()
	if f.createErr != nil {
		return nil, f.createErr
	}

	stored := entity.Merge(doc, nil)

	id := entity.IDString(stored["id"])
	if id == "" {
		f.nextID++
		id = fmt.Sprintf("gen-%d", f.nextID)
		stored["id"] = id
	} else if existing, _ := f.find(name, id); existing != nil {
		return nil, pkgerror.NewConflict(fmt.Sprintf("Item with id '%s' already exists in '%s'", id, name))
	}

	items, _ := f.data[name].([]any)
	f.data[name] = append(items, stored)
	return stored, nil
}

func (f *fakeDB) Update(ctx context.Context, name, id string, doc map[string]any) (map[string]any, error) {
	f.enter()

	existing, idx := f.find(name, id)
	if existing == nil {
		return nil, nil
	}

	replaced := entity.Merge(doc, nil)
	replaced["id"] = existing["id"]
	f.data[name].([]any)[idx] = replaced
	return replaced, nil
}

func (f *fakeDB) Patch(ctx context.Context, name, id string, partial map[string]any) (map[string]any, error) {
	f.enter()

	existing, idx := f.find(name, id)
	if existing == nil {
		return nil, nil
	}

	merged := entity.Merge(existing, partial)
	merged["id"] = existing["id"]
	f.data[name].([]any)[idx] = merged
	return merged, nil
}

func (f *fakeDB) ReplaceSingular(ctx context.Context, name string, value map[string]any) (map[string]any, error) {
	f.enter()

	f.data[name] = value
	return value, nil
}

func (f *fakeDB) Delete(ctx context.Context, name, id string) (bool, error) {
	f.enter()

	existing, idx := f.find(name, id)
	if existing == nil {
		return false, nil
	}

	items := f.data[name].([]any)
	f.data[name] = append(items[:idx], items[idx+1:]...)
	return true, nil
}

func (f *fakeDB) Persist(ctx context.Context) error {
	f.persists++
	return nil
}

func (f *fakeDB) find(name, id string) (map[string]any, int) {
	items, _ := f.data[name].([]any)
	for i, el := range items {
		doc, ok := el.(map[string]any)
		if !ok {
			continue
		}
		if entity.IDString(doc["id"]) == id {
			return doc, i
		}
	}
	return nil, -1
}

func seedData() map[string]any {
	return map[string]any{
		"posts": []any{
			map[string]any{"id": "1", "title": "first"},
			map[string]any{"id": "2", "title": "second"},
		},
		"settings": map[string]any{"theme": "light", "lang": "en"},
		"motd":     "hello",
	}
}

func newUsecase(db Database, readOnly bool) *Usecase {
	return New(Dependency{DB: db, Settings: Settings{ReadOnly: readOnly}})
}

func assertStatus(t *testing.T, err error, status int, msg string) {
	t.Helper()

	var perr *pkgerror.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected pkgerror.Error, got %T (%v)", err, err)
	}
	if got := perr.StatusCode(); got != status {
		t.Fatalf("expected status %d, got %d (%v)", status, got, err)
	}
	if msg != "" && perr.Msg() != msg {
		t.Fatalf("expected message %q, got %q", msg, perr.Msg())
	}
}

func TestGetResource(t *testing.T) {
	t.Parallel()

	uc := newUsecase(newFakeDB(seedData()), false)
	ctx := context.Background()

	value, err := uc.GetResource(ctx, "posts")
	if err != nil {
		t.Fatalf("GetResource() err = %v", err)
	}
	if items, ok := value.([]any); !ok || len(items) != 2 {
		t.Fatalf("expected collection as-is, got %#v", value)
	}

	value, err = uc.GetResource(ctx, "motd")
	if err != nil {
		t.Fatalf("GetResource() err = %v", err)
	}
	if value != "hello" {
		t.Fatalf("expected scalar singular as-is, got %#v", value)
	}

	_, err = uc.GetResource(ctx, "ghost")
	assertStatus(t, err, http.StatusNotFound, "Resource 'ghost' not found")
}

func TestGetItem(t *testing.T) {
	t.Parallel()

	uc := newUsecase(newFakeDB(seedData()), false)
	ctx := context.Background()

	doc, err := uc.GetItem(ctx, "posts", "2")
	if err != nil {
		t.Fatalf("GetItem() err = %v", err)
	}
	if doc["title"] != "second" {
		t.Fatalf("unexpected item: %#v", doc)
	}

	_, err = uc.GetItem(ctx, "settings", "1")
	assertStatus(t, err, http.StatusNotFound, "Collection 'settings' not found")

	_, err = uc.GetItem(ctx, "posts", "99")
	assertStatus(t, err, http.StatusNotFound, "Item with id '99' not found in 'posts'")
}

func TestCreateGeneratesID(t *testing.T) {
	t.Parallel()

	uc := newUsecase(newFakeDB(nil), false)
	ctx := context.Background()

	doc, created, err := uc.CreateOrReplace(ctx, "posts", map[string]any{"title": "hi"})
	if err != nil {
		t.Fatalf("CreateOrReplace() err = %v", err)
	}
	if !created {
		t.Fatal("expected created flag")
	}
	id := entity.IDString(doc["id"])
	if id == "" {
		t.Fatalf("expected generated id, got %#v", doc)
	}

	// Round-trip: the created item is readable under its id.
	got, err := uc.GetItem(ctx, "posts", id)
	if err != nil {
		t.Fatalf("GetItem() err = %v", err)
	}
	if !reflect.DeepEqual(got, doc) {
		t.Fatalf("round-trip mismatch: %#v vs %#v", got, doc)
	}
}

func TestCreateReplacesExistingSingular(t *testing.T) {
	t.Parallel()

	db := newFakeDB(seedData())
	uc := newUsecase(db, false)

	doc, created, err := uc.CreateOrReplace(context.Background(), "settings", map[string]any{"theme": "dark"})
	if err != nil {
		t.Fatalf("CreateOrReplace() err = %v", err)
	}
	if created {
		t.Fatal("expected full replace, not create")
	}
	if !reflect.DeepEqual(doc, map[string]any{"theme": "dark"}) {
		t.Fatalf("unexpected replacement: %#v", doc)
	}
}

func TestCreateDuplicateIDSurfacesAs400(t *testing.T) {
	t.Parallel()

	uc := newUsecase(newFakeDB(seedData()), false)

	_, _, err := uc.CreateOrReplace(context.Background(), "posts", map[string]any{"id": "1", "title": "dup"})
	assertStatus(t, err, http.StatusBadRequest, "Item with id '1' already exists in 'posts'")
}

func TestReplaceItemPreservesIdentifier(t *testing.T) {
	t.Parallel()

	uc := newUsecase(newFakeDB(seedData()), false)

	doc, err := uc.ReplaceItem(context.Background(), "posts", "1", map[string]any{"id": "777", "title": "new"})
	if err != nil {
		t.Fatalf("ReplaceItem() err = %v", err)
	}
	if entity.IDString(doc["id"]) != "1" {
		t.Fatalf("expected identifier preserved, got %#v", doc)
	}
	if doc["title"] != "new" {
		t.Fatalf("expected full replace, got %#v", doc)
	}

	_, err = uc.ReplaceItem(context.Background(), "posts", "99", map[string]any{"title": "x"})
	assertStatus(t, err, http.StatusNotFound, "Item with id '99' not found in 'posts'")

	_, err = uc.ReplaceItem(context.Background(), "ghost", "1", map[string]any{"title": "x"})
	assertStatus(t, err, http.StatusNotFound, "Collection 'ghost' not found")
}

func TestPatchItemMergesShallow(t *testing.T) {
	t.Parallel()

	uc := newUsecase(newFakeDB(seedData()), false)

	doc, err := uc.PatchItem(context.Background(), "posts", "1", map[string]any{"id": "999", "draft": true})
	if err != nil {
		t.Fatalf("PatchItem() err = %v", err)
	}

	want := map[string]any{"id": "1", "title": "first", "draft": true}
	if !reflect.DeepEqual(doc, want) {
		t.Fatalf("unexpected patched item: %#v", doc)
	}
}

func TestReplaceSingular(t *testing.T) {
	t.Parallel()

	uc := newUsecase(newFakeDB(seedData()), false)
	ctx := context.Background()

	doc, err := uc.ReplaceSingular(ctx, "settings", map[string]any{"theme": "dark"})
	if err != nil {
		t.Fatalf("ReplaceSingular() err = %v", err)
	}
	if !reflect.DeepEqual(doc, map[string]any{"theme": "dark"}) {
		t.Fatalf("unexpected value: %#v", doc)
	}

	// An absent name becomes a new singular resource.
	if _, err := uc.ReplaceSingular(ctx, "banner", map[string]any{"text": "hi"}); err != nil {
		t.Fatalf("ReplaceSingular() on absent name err = %v", err)
	}

	_, err = uc.ReplaceSingular(ctx, "posts", map[string]any{"theme": "dark"})
	assertStatus(t, err, http.StatusBadRequest, "Cannot PUT to collection 'posts'. Use POST or PUT /posts/:id")
}

func TestPatchSingular(t *testing.T) {
	t.Parallel()

	uc := newUsecase(newFakeDB(seedData()), false)
	ctx := context.Background()

	doc, err := uc.PatchSingular(ctx, "settings", map[string]any{"theme": "dark"})
	if err != nil {
		t.Fatalf("PatchSingular() err = %v", err)
	}
	want := map[string]any{"theme": "dark", "lang": "en"}
	if !reflect.DeepEqual(doc, want) {
		t.Fatalf("unexpected merged value: %#v", doc)
	}

	_, err = uc.PatchSingular(ctx, "posts", map[string]any{"a": 1})
	assertStatus(t, err, http.StatusBadRequest, "Cannot PATCH collection 'posts'. Use PATCH /posts/:id")

	_, err = uc.PatchSingular(ctx, "ghost", map[string]any{"a": 1})
	assertStatus(t, err, http.StatusNotFound, "Resource 'ghost' not found")

	// A singular value that is not an object cannot be merged into.
	_, err = uc.PatchSingular(ctx, "motd", map[string]any{"a": 1})
	assertStatus(t, err, http.StatusNotFound, "Resource 'motd' not found")
}

func TestDeleteItemSecondCallNotFound(t *testing.T) {
	t.Parallel()

	uc := newUsecase(newFakeDB(seedData()), false)
	ctx := context.Background()

	if err := uc.DeleteItem(ctx, "posts", "1"); err != nil {
		t.Fatalf("DeleteItem() err = %v", err)
	}

	err := uc.DeleteItem(ctx, "posts", "1")
	assertStatus(t, err, http.StatusNotFound, "Item with id '1' not found in 'posts'")
}

func TestReadOnlyBlocksEveryWriteBeforeStorage(t *testing.T) {
	t.Parallel()

	db := newFakeDB(seedData())
	uc := newUsecase(db, true)
	ctx := context.Background()
	body := map[string]any{"title": "x"}

	writes := []func() error{
		func() error { _, _, err := uc.CreateOrReplace(ctx, "posts", body); return err },
		func() error { _, err := uc.ReplaceItem(ctx, "posts", "1", body); return err },
		func() error { _, err := uc.PatchItem(ctx, "posts", "1", body); return err },
		func() error { _, err := uc.ReplaceSingular(ctx, "settings", body); return err },
		func() error { _, err := uc.PatchSingular(ctx, "settings", body); return err },
		func() error { return uc.DeleteItem(ctx, "posts", "1") },
	}

	for i, write := range writes {
		err := write()
		if err == nil {
			t.Fatalf("write %d: expected error", i)
		}
		assertStatus(t, err, http.StatusForbidden, "Read-only mode enabled")
	}

	if db.calls != 0 {
		t.Fatalf("expected no storage calls in read-only mode, got %d", db.calls)
	}

	// Reads stay available.
	if _, err := uc.GetResource(ctx, "posts"); err != nil {
		t.Fatalf("GetResource() err = %v", err)
	}
}

func TestReadOnlyWinsOverBodyGate(t *testing.T) {
	t.Parallel()

	uc := newUsecase(newFakeDB(seedData()), true)

	// Even with an invalid body the policy error comes first.
	_, _, err := uc.CreateOrReplace(context.Background(), "posts", []any{"not", "an", "object"})
	assertStatus(t, err, http.StatusForbidden, "Read-only mode enabled")
}

func TestBodyGateRejectsNonObjects(t *testing.T) {
	t.Parallel()

	db := newFakeDB(seedData())
	uc := newUsecase(db, false)
	ctx := context.Background()

	for _, body := range []any{nil, []any{1}, "text", 42.0, true} {
		_, _, err := uc.CreateOrReplace(ctx, "posts", body)
		assertStatus(t, err, http.StatusBadRequest, "Request body must be a JSON object")
	}

	if db.calls != 0 {
		t.Fatalf("expected no storage calls for invalid bodies, got %d", db.calls)
	}
}

func TestStorageErrorsDowngradeTo400(t *testing.T) {
	t.Parallel()

	db := newFakeDB(seedData())
	db.createErr = errors.New("disk exploded")
	uc := newUsecase(db, false)

	// A mutating storage fault is downgraded to a client error carrying
	// the storage message.
	_, _, err := uc.CreateOrReplace(context.Background(), "posts", map[string]any{"title": "x"})
	assertStatus(t, err, http.StatusBadRequest, "disk exploded")
}

func TestReadFaultsSurfaceAsInternal(t *testing.T) {
	t.Parallel()

	db := newFakeDB(seedData())
	db.resourceErr = errors.New("disk I/O error")
	uc := newUsecase(db, false)
	ctx := context.Background()

	// A failing classification read is an infrastructure fault, not a
	// client mistake.
	_, err := uc.GetResource(ctx, "posts")
	assertStatus(t, err, http.StatusInternalServerError, "Internal server error")

	_, err = uc.ReplaceItem(ctx, "posts", "1", map[string]any{"title": "x"})
	assertStatus(t, err, http.StatusInternalServerError, "Internal server error")
}

type capturePublisher struct {
	mu     sync.Mutex
	events []entity.ChangeEvent
}

func (p *capturePublisher) Publish(ctx context.Context, event entity.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func TestMutationsPublishChangeEvents(t *testing.T) {
	t.Parallel()

	pub := &capturePublisher{}
	uc := New(Dependency{DB: newFakeDB(seedData()), Events: pub})
	ctx := context.Background()

	if _, _, err := uc.CreateOrReplace(ctx, "posts", map[string]any{"title": "x"}); err != nil {
		t.Fatalf("CreateOrReplace() err = %v", err)
	}
	if err := uc.DeleteItem(ctx, "posts", "1"); err != nil {
		t.Fatalf("DeleteItem() err = %v", err)
	}

	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
	if pub.events[0].Op != entity.OpCreate || pub.events[1].Op != entity.OpDelete {
		t.Fatalf("unexpected event ops: %#v", pub.events)
	}
}
