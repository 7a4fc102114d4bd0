package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/hamidmayeli/api-faker/internal/pkg/pkgrouter"
)

// snapshotResource is the reserved name that exposes the full store on GET.
const snapshotResource = "db"

type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) Resource(ctx context.Context, r *http.Request) (any, error) {
	name := resourceParam(ctx)
	if name == snapshotResource {
		return h.uc.Snapshot(ctx)
	}

	return h.uc.GetResource(ctx, name)
}

func (h *HTTPEndpoint) Item(ctx context.Context, r *http.Request) (any, error) {
	return h.uc.GetItem(ctx, resourceParam(ctx), idParam(ctx))
}

func (h *HTTPEndpoint) Create(ctx context.Context, r *http.Request) (any, error) {
	doc, created, err := h.uc.CreateOrReplace(ctx, resourceParam(ctx), decodeBody(ctx, r))
	if err != nil {
		return nil, err
	}

	if created {
		return pkgrouter.Response{Code: http.StatusCreated, Body: doc}, nil
	}

	return doc, nil
}

func (h *HTTPEndpoint) ReplaceItem(ctx context.Context, r *http.Request) (any, error) {
	return h.uc.ReplaceItem(ctx, resourceParam(ctx), idParam(ctx), decodeBody(ctx, r))
}

func (h *HTTPEndpoint) PatchItem(ctx context.Context, r *http.Request) (any, error) {
	return h.uc.PatchItem(ctx, resourceParam(ctx), idParam(ctx), decodeBody(ctx, r))
}

func (h *HTTPEndpoint) ReplaceSingular(ctx context.Context, r *http.Request) (any, error) {
	return h.uc.ReplaceSingular(ctx, resourceParam(ctx), decodeBody(ctx, r))
}

func (h *HTTPEndpoint) PatchSingular(ctx context.Context, r *http.Request) (any, error) {
	return h.uc.PatchSingular(ctx, resourceParam(ctx), decodeBody(ctx, r))
}

func (h *HTTPEndpoint) DeleteItem(ctx context.Context, r *http.Request) (any, error) {
	if err := h.uc.DeleteItem(ctx, resourceParam(ctx), idParam(ctx)); err != nil {
		return nil, err
	}

	return pkgrouter.Response{Code: http.StatusNoContent}, nil
}

func resourceParam(ctx context.Context) string {
	name := pkgrouter.GetParam(ctx, "resource")
	if name == "" {
		// Unreachable given the routing table; a miss here is a wiring bug.
		panic("missing resource route parameter")
	}
	return name
}

func idParam(ctx context.Context) string {
	id := pkgrouter.GetParam(ctx, "id")
	if id == "" {
		panic("missing id route parameter")
	}
	return id
}

// decodeBody parses the request body as JSON, keeping numbers as
// json.Number. A missing or non-JSON Content-Type is only a diagnostic;
// the request proceeds and the body-shape gate decides its fate. Decode
// failures yield a nil body for the same reason.
func decodeBody(ctx context.Context, r *http.Request) any {
	warnContentType(ctx, r)

	if r.Body == nil {
		return nil
	}

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil {
		if !errors.Is(err, io.EOF) {
			slog.WarnContext(ctx, "failed to decode request body", "error", err)
		}
		return nil
	}

	return body
}

func warnContentType(ctx context.Context, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		slog.WarnContext(ctx, "write request without Content-Type header",
			"method", r.Method, "path", r.URL.Path)
		return
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !isJSONMediaType(mediaType) {
		slog.WarnContext(ctx, "write request with non-JSON Content-Type",
			"method", r.Method, "path", r.URL.Path, "content_type", contentType)
	}
}

func isJSONMediaType(mediaType string) bool {
	return strings.EqualFold(mediaType, "application/json") ||
		strings.HasSuffix(strings.ToLower(mediaType), "+json")
}
