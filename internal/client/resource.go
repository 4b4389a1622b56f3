package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Resource is the CRUD-and-actions surface shared by every collection.  W
// is the JSON shape on the wire and T the application value; decode maps
// one onto the other.  Payloads passed to Create, Update and Action must
// carry only the mutable subset of a record.
type Resource[W, T any] struct {
	c      *Client
	path   string
	decode func(W) T
}

func NewResource[W, T any](c *Client, path string, decode func(W) T) Resource[W, T] {
	return Resource[W, T]{c: c, path: path, decode: decode}
}

func (r Resource[W, T]) item(id int64) string { return r.path + "/" + strconv.FormatInt(id, 10) }

func (r Resource[W, T]) one(ctx context.Context, method, path string, body any) (T, error) {
	var w W
	var zero T
	if err := r.c.do(ctx, method, path, nil, body, &w); err != nil {
		return zero, err
	}
	return r.decode(w), nil
}

func (r Resource[W, T]) many(ctx context.Context, path string, q url.Values) ([]T, error) {
	var ws []W
	if err := r.c.do(ctx, http.MethodGet, path, q, nil, &ws); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(ws))
	for _, w := range ws {
		out = append(out, r.decode(w))
	}
	return out, nil
}

// List fetches the whole collection.
func (r Resource[W, T]) List(ctx context.Context) ([]T, error) { return r.many(ctx, r.path, nil) }

// Fetch lists a named sub-collection such as "/published" or "/search".
func (r Resource[W, T]) Fetch(ctx context.Context, sub string, q url.Values) ([]T, error) {
	return r.many(ctx, r.path+sub, q)
}

func (r Resource[W, T]) Get(ctx context.Context, id int64) (T, error) {
	return r.one(ctx, http.MethodGet, r.item(id), nil)
}

// GetBy fetches one record from a lookup path such as "/username/bob".
func (r Resource[W, T]) GetBy(ctx context.Context, sub string) (T, error) {
	return r.one(ctx, http.MethodGet, r.path+sub, nil)
}

func (r Resource[W, T]) Create(ctx context.Context, body any) (T, error) {
	return r.one(ctx, http.MethodPost, r.path, body)
}

func (r Resource[W, T]) Update(ctx context.Context, id int64, body any) (T, error) {
	return r.one(ctx, http.MethodPut, r.item(id), body)
}

func (r Resource[W, T]) Delete(ctx context.Context, id int64) error {
	return r.c.do(ctx, http.MethodDelete, r.item(id), nil, nil, nil)
}

// Action invokes PUT <path>/<id>/<name> and returns the updated record.
// An empty answer yields the zero T.
func (r Resource[W, T]) Action(ctx context.Context, id int64, name string, body any) (T, error) {
	return r.one(ctx, http.MethodPut, r.item(id)+"/"+name, body)
}

// Batch invokes a collection level endpoint such as PUT <path>/bulk/publish.
func (r Resource[W, T]) Batch(ctx context.Context, method, sub string, body, out any) error {
	return r.c.do(ctx, method, r.path+sub, nil, body, out)
}
