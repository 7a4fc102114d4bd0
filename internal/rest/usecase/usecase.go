package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hamidmayeli/api-faker/internal/pkg/pkgerror"
	"github.com/hamidmayeli/api-faker/internal/rest/entity"
)

// Database is the storage collaborator consumed by the routing layer.
//
// Resource is the single classification point: every handler decides how to
// behave from the returned ResourceView, re-evaluated per request. Update and
// Patch return nil (and no error) when the targeted item does not exist, so
// not-found is detected by querying state rather than via errors. All other
// errors coming out of the store are storage faults.
type Database interface {
	Snapshot(ctx context.Context) (map[string]any, error)
	Resource(ctx context.Context, name string) (entity.ResourceView, error)
	GetByID(ctx context.Context, name, id string) (map[string]any, error)
	Create(ctx context.Context, name string, doc map[string]any) (map[string]any, error)
	Update(ctx context.Context, name, id string, doc map[string]any) (map[string]any, error)
	Patch(ctx context.Context, name, id string, partial map[string]any) (map[string]any, error)
	ReplaceSingular(ctx context.Context, name string, value map[string]any) (map[string]any, error)
	Delete(ctx context.Context, name, id string) (bool, error)
	Persist(ctx context.Context) error
}

// EventPublisher receives change notifications after successful mutations.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.ChangeEvent) error
}

// Settings carries the router configuration.
type Settings struct {
	// IDField is the identifying field of collection items.
	IDField string
	// ForeignKeySuffix is reserved for relational expansion; the routing
	// logic does not consume it.
	ForeignKeySuffix string
	// ReadOnly disables every mutating operation while leaving reads intact.
	ReadOnly bool
}

type Dependency struct {
	DB       Database
	Events   EventPublisher
	Settings Settings
}

// Usecase implements the resource-routing semantics: it classifies the
// request target, dispatches the matching storage operation, and translates
// the outcome into typed errors the HTTP edge renders as status codes.
//
// It holds no per-request state; each call is a pure function of the request
// and the current store snapshot.
type Usecase struct {
	db       Database
	events   EventPublisher
	settings Settings
}

func New(dep Dependency) *Usecase {
	settings := dep.Settings
	if settings.IDField == "" {
		settings.IDField = "id"
	}

	return &Usecase{
		db:       dep.DB,
		events:   dep.Events,
		settings: settings,
	}
}

// Snapshot returns the full store content.
func (u *Usecase) Snapshot(ctx context.Context) (map[string]any, error) {
	data, err := u.db.Snapshot(ctx)
	if err != nil {
		return nil, mapReadErr(err)
	}

	return data, nil
}

// GetResource returns the value of a top-level resource as-is, collection or
// singular.
func (u *Usecase) GetResource(ctx context.Context, name string) (any, error) {
	view, err := u.db.Resource(ctx, name)
	if err != nil {
		return nil, mapReadErr(err)
	}

	if view.Kind == entity.KindMissing {
		return nil, pkgerror.NewNotFound(fmt.Sprintf("Resource '%s' not found", name))
	}

	return view.Raw, nil
}

// GetItem returns a single collection item by id.
func (u *Usecase) GetItem(ctx context.Context, name, id string) (map[string]any, error) {
	if err := u.requireCollection(ctx, name); err != nil {
		return nil, err
	}

	doc, err := u.db.GetByID(ctx, name, id)
	if err != nil {
		return nil, mapReadErr(err)
	}
	if doc == nil {
		return nil, itemNotFound(name, id)
	}

	return doc, nil
}

// CreateOrReplace handles POST on a resource name.
//
// When the name denotes an existing singular resource the body fully replaces
// it; otherwise a new item is created, implicitly creating the collection if
// the name is absent. The returned flag reports whether an item was created.
func (u *Usecase) CreateOrReplace(ctx context.Context, name string, body any) (map[string]any, bool, error) {
	doc, err := u.guardWrite(body)
	if err != nil {
		return nil, false, err
	}

	view, err := u.db.Resource(ctx, name)
	if err != nil {
		return nil, false, mapReadErr(err)
	}

	if view.Kind == entity.KindSingular {
		replaced, err := u.db.ReplaceSingular(ctx, name, doc)
		if err != nil {
			return nil, false, mapStoreErr(err)
		}

		u.publish(ctx, entity.ChangeEvent{Op: entity.OpReplace, Resource: name})
		return replaced, false, nil
	}

	created, err := u.db.Create(ctx, name, doc)
	if err != nil {
		return nil, false, mapStoreErr(err)
	}

	u.publish(ctx, entity.ChangeEvent{
		Op:       entity.OpCreate,
		Resource: name,
		ID:       entity.IDString(created[u.settings.IDField]),
	})

	return created, true, nil
}

// ReplaceItem fully replaces a collection item; the identifier is preserved
// regardless of what the body contains.
func (u *Usecase) ReplaceItem(ctx context.Context, name, id string, body any) (map[string]any, error) {
	doc, err := u.guardWrite(body)
	if err != nil {
		return nil, err
	}

	if err := u.requireCollection(ctx, name); err != nil {
		return nil, err
	}

	updated, err := u.db.Update(ctx, name, id, doc)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if updated == nil {
		return nil, itemNotFound(name, id)
	}

	u.publish(ctx, entity.ChangeEvent{Op: entity.OpUpdate, Resource: name, ID: id})
	return updated, nil
}

// PatchItem shallow-merges the body into an existing collection item.
func (u *Usecase) PatchItem(ctx context.Context, name, id string, body any) (map[string]any, error) {
	doc, err := u.guardWrite(body)
	if err != nil {
		return nil, err
	}

	if err := u.requireCollection(ctx, name); err != nil {
		return nil, err
	}

	patched, err := u.db.Patch(ctx, name, id, doc)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if patched == nil {
		return nil, itemNotFound(name, id)
	}

	u.publish(ctx, entity.ChangeEvent{Op: entity.OpPatch, Resource: name, ID: id})
	return patched, nil
}

// ReplaceSingular fully replaces a singular resource, creating it if the name
// is absent. Collections must be addressed item by item instead.
func (u *Usecase) ReplaceSingular(ctx context.Context, name string, body any) (map[string]any, error) {
	doc, err := u.guardWrite(body)
	if err != nil {
		return nil, err
	}

	view, err := u.db.Resource(ctx, name)
	if err != nil {
		return nil, mapReadErr(err)
	}
	if view.Kind == entity.KindCollection {
		return nil, pkgerror.NewInvalidFormat(
			fmt.Sprintf("Cannot PUT to collection '%s'. Use POST or PUT /%s/:id", name, name))
	}

	replaced, err := u.db.ReplaceSingular(ctx, name, doc)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	u.publish(ctx, entity.ChangeEvent{Op: entity.OpReplace, Resource: name})
	return replaced, nil
}

// PatchSingular shallow-merges the body over the current singular value.
//
// This is the one read-modify-write sequence the routing layer performs
// itself: read the current value, merge, write the merged object as a full
// replace. It is not atomic against concurrent writers; a racing patch on
// the same resource may lose an update.
func (u *Usecase) PatchSingular(ctx context.Context, name string, body any) (map[string]any, error) {
	doc, err := u.guardWrite(body)
	if err != nil {
		return nil, err
	}

	view, err := u.db.Resource(ctx, name)
	if err != nil {
		return nil, mapReadErr(err)
	}
	if view.Kind == entity.KindCollection {
		return nil, pkgerror.NewInvalidFormat(
			fmt.Sprintf("Cannot PATCH collection '%s'. Use PATCH /%s/:id", name, name))
	}
	if !view.IsObject() {
		return nil, pkgerror.NewNotFound(fmt.Sprintf("Resource '%s' not found", name))
	}

	current := view.Value.(map[string]any)
	merged, err := u.db.ReplaceSingular(ctx, name, entity.Merge(current, doc))
	if err != nil {
		return nil, mapStoreErr(err)
	}

	u.publish(ctx, entity.ChangeEvent{Op: entity.OpPatch, Resource: name})
	return merged, nil
}

// DeleteItem removes a collection item.
func (u *Usecase) DeleteItem(ctx context.Context, name, id string) error {
	if u.settings.ReadOnly {
		return pkgerror.NewForbidden("Read-only mode enabled")
	}

	if err := u.requireCollection(ctx, name); err != nil {
		return err
	}

	removed, err := u.db.Delete(ctx, name, id)
	if err != nil {
		return mapStoreErr(err)
	}
	if !removed {
		return itemNotFound(name, id)
	}

	u.publish(ctx, entity.ChangeEvent{Op: entity.OpDelete, Resource: name, ID: id})
	return nil
}

// guardWrite enforces the write-order contract: the read-only gate runs
// first, the body-shape gate second, both before any storage call.
func (u *Usecase) guardWrite(body any) (map[string]any, error) {
	if u.settings.ReadOnly {
		return nil, pkgerror.NewForbidden("Read-only mode enabled")
	}

	doc, ok := body.(map[string]any)
	if !ok {
		return nil, pkgerror.NewInvalidFormat("Request body must be a JSON object")
	}

	return doc, nil
}

func (u *Usecase) requireCollection(ctx context.Context, name string) error {
	view, err := u.db.Resource(ctx, name)
	if err != nil {
		return mapReadErr(err)
	}

	if view.Kind != entity.KindCollection {
		return pkgerror.NewNotFound(fmt.Sprintf("Collection '%s' not found", name))
	}

	return nil
}

func (u *Usecase) publish(ctx context.Context, event entity.ChangeEvent) {
	if u.events == nil {
		return
	}

	if err := u.events.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish change event",
			"op", event.Op, "resource", event.Resource, "error", err)
	}
}

func itemNotFound(name, id string) error {
	return pkgerror.NewNotFound(fmt.Sprintf("Item with id '%s' not found in '%s'", id, name))
}

// mapStoreErr downgrades a mutating-call storage fault to a client error
// carrying the storage message; unrecognized error values get a generic
// fallback. Mutation failures never surface as 5xx or crash the request
// pipeline.
func mapStoreErr(err error) error {
	var perr *pkgerror.Error
	if errors.As(err, &perr) {
		return perr
	}

	return pkgerror.NewStorage(err)
}

// mapReadErr handles faults from read and classification calls. These are
// infrastructure failures, not client mistakes, so anything untyped
// surfaces as an internal error.
func mapReadErr(err error) error {
	var perr *pkgerror.Error
	if errors.As(err, &perr) {
		return perr
	}

	return pkgerror.NewServer(err)
}
