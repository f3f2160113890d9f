// Package store is the record persistence boundary: generic CRUD and filtered
// queries over the typed collections.
package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/digitalhippo/hippo-backend/internal/models"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrConflict     = errors.New("record conflicts with an existing record")
	ErrInvalidQuery = errors.New("invalid query")
)

// Record is one persisted entity. Fields always carries id, createdAt and
// updatedAt alongside the collection's own fields.
type Record struct {
	ID         string            `json:"id"`
	Collection models.Collection `json:"-"`
	Fields     models.JSONB      `json:"-"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}(r.Fields))
}

type FindOptions struct {
	Page  int
	Limit int
	Sort  string
	Desc  bool
}

func (o FindOptions) offset() int {
	if o.Page < 1 || o.Limit < 1 {
		return 0
	}
	return (o.Page - 1) * o.Limit
}

// RecordStore is implemented by GormStore and MemoryStore.
type RecordStore interface {
	// Find returns the page of records matching filter and the total number
	// of matches before paging.
	Find(ctx context.Context, collection models.Collection, filter Filter, opts FindOptions) ([]Record, int64, error)
	FindByID(ctx context.Context, collection models.Collection, id string) (Record, error)
	Create(ctx context.Context, collection models.Collection, data models.JSONB) (Record, error)
	Update(ctx context.Context, collection models.Collection, id string, data models.JSONB) (Record, error)
	Delete(ctx context.Context, collection models.Collection, id string) error
}

// systemFields are owned by the store and ignored in write payloads.
var systemFields = []string{"id", "createdAt", "updatedAt"}

func withoutSystemFields(data models.JSONB) models.JSONB {
	out := data.Clone()
	for _, f := range systemFields {
		delete(out, f)
	}
	return out
}
