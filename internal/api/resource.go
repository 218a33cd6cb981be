// Package api exposes one typed module per backend entity. Modules pass
// requests straight through to the API client; they hold no business rules.
package api

import (
	"context"
	"net/url"
	"strconv"

	"erpconsole/internal/apiclient"

	"github.com/google/uuid"
)

// MaxPageSize is the largest page the backend serves.
const MaxPageSize = 200

// ListParams are the query options of a list call. Zero values are omitted.
type ListParams struct {
	Limit          int
	Offset         int
	IncludeDeleted bool
	Status         string
	Search         string
}

func (p ListParams) values() url.Values {
	v := url.Values{}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	if p.IncludeDeleted {
		v.Set("include_deleted", "true")
	}
	if p.Status != "" {
		v.Set("status", p.Status)
	}
	if p.Search != "" {
		v.Set("q", p.Search)
	}
	return v
}

// Resource is the CRUD surface of one entity: T is the record, C the create
// payload and U the update payload.
type Resource[T, C, U any] struct {
	client *apiclient.Client
	path   string
}

func NewResource[T, C, U any](client *apiclient.Client, path string) *Resource[T, C, U] {
	return &Resource[T, C, U]{client: client, path: path}
}

// Path returns the collection path, e.g. "/orders".
func (r *Resource[T, C, U]) Path() string { return r.path }

func (r *Resource[T, C, U]) item(id uuid.UUID) string {
	return r.path + "/" + id.String()
}

// List fetches one page.
func (r *Resource[T, C, U]) List(ctx context.Context, p ListParams) ([]T, *apiclient.Meta, error) {
	var items []T
	meta, err := r.client.Get(ctx, r.path+"/", p.values(), &items)
	if err != nil {
		return nil, nil, err
	}
	return items, meta, nil
}

// ListAll pages through the collection until a short page and returns every record.
func (r *Resource[T, C, U]) ListAll(ctx context.Context, p ListParams) ([]T, error) {
	p.Limit = MaxPageSize
	p.Offset = 0
	var all []T
	for {
		page, _, err := r.List(ctx, p)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < p.Limit {
			return all, nil
		}
		p.Offset += len(page)
	}
}

func (r *Resource[T, C, U]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	var out T
	if _, err := r.client.Get(ctx, r.item(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[T, C, U]) Create(ctx context.Context, payload C) (*T, error) {
	var out T
	if err := r.client.Post(ctx, r.path+"/", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[T, C, U]) Update(ctx context.Context, id uuid.UUID, payload U) (*T, error) {
	var out T
	if err := r.client.Put(ctx, r.item(id), payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete soft-deletes the record on the backend.
func (r *Resource[T, C, U]) Delete(ctx context.Context, id uuid.UUID) error {
	return r.client.Delete(ctx, r.item(id), nil)
}

// action posts to a sub-resource such as /orders/{id}/confirm.
func (r *Resource[T, C, U]) action(ctx context.Context, id uuid.UUID, name string, body interface{}) (*T, error) {
	var out T
	if err := r.client.Post(ctx, r.item(id)+"/"+name, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
