package inbound

import (
	"context"

	"github.com/hamidmayeli/api-faker/internal/pkg/pkgrouter"
)

type uc interface {
	Snapshot(ctx context.Context) (map[string]any, error)
	GetResource(ctx context.Context, name string) (any, error)
	GetItem(ctx context.Context, name, id string) (map[string]any, error)
	CreateOrReplace(ctx context.Context, name string, body any) (map[string]any, bool, error)
	ReplaceItem(ctx context.Context, name, id string, body any) (map[string]any, error)
	PatchItem(ctx context.Context, name, id string, body any) (map[string]any, error)
	ReplaceSingular(ctx context.Context, name string, body any) (map[string]any, error)
	PatchSingular(ctx context.Context, name string, body any) (map[string]any, error)
	DeleteItem(ctx context.Context, name, id string) error
}

// RegisterHTTPEndpoint mounts the generic resource routes.
//
// Everything hangs off the :resource wildcard; httprouter rejects a static
// sibling of a wildcard segment, so the reserved "db" snapshot name is
// dispatched inside the GET handler instead of as its own route.
func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/:resource", end.Resource)
	r.GET("/:resource/:id", end.Item)

	r.POST("/:resource", end.Create)

	r.PUT("/:resource", end.ReplaceSingular)
	r.PUT("/:resource/:id", end.ReplaceItem)

	r.PATCH("/:resource", end.PatchSingular)
	r.PATCH("/:resource/:id", end.PatchItem)

	r.DELETE("/:resource/:id", end.DeleteItem)
}
