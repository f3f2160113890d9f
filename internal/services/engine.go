// internal/services/engine.go
package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/digitalhippo/hippo-backend/internal/access"
	"github.com/digitalhippo/hippo-backend/internal/collections"
	"github.com/digitalhippo/hippo-backend/internal/hooks"
	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/store"
)

// ErrUnknownCollection is returned for slugs with no registered definition.
var ErrUnknownCollection = fmt.Errorf("unknown collection: %w", store.ErrNotFound)

// Engine runs every operation against a collection on behalf of an actor:
// authorize, strip unwritable fields, apply defaults, validate, run before
// hooks, persist, run after hooks and redact the result.
type Engine struct {
	records  store.RecordStore
	registry *collections.Registry
}

func NewEngine(records store.RecordStore, registry *collections.Registry) *Engine {
	return &Engine{
		records:  records,
		registry: registry,
	}
}

func (e *Engine) Records() store.RecordStore {
	return e.records
}

func (e *Engine) definition(slug models.Collection) (collections.Definition, error) {
	def, ok := e.registry.Get(slug)
	if !ok {
		return collections.Definition{}, fmt.Errorf("%s: %w", slug, ErrUnknownCollection)
	}
	return def, nil
}

// Check refuses op outright when the actor has no access to slug at all.
func (e *Engine) Check(actor access.Actor, slug models.Collection, op access.Operation) error {
	def, err := e.definition(slug)
	if err != nil {
		return err
	}
	return def.Policy.Check(actor, op)
}

// SortFields lists the fields slug may be sorted by.
func (e *Engine) SortFields(slug models.Collection) []string {
	def, ok := e.registry.Get(slug)
	if !ok {
		return nil
	}
	return def.SortFields
}

// Find lists the records the actor may read. Any filter the read predicate
// yields is ANDed into the query.
func (e *Engine) Find(ctx context.Context, actor access.Actor, slug models.Collection, filter store.Filter, opts store.FindOptions) ([]store.Record, int64, error) {
	def, err := e.definition(slug)
	if err != nil {
		return nil, 0, err
	}

	decision, err := def.Policy.Authorize(actor, access.OpRead, nil)
	if err != nil {
		return nil, 0, err
	}
	if err := def.Policy.CheckQueryable(actor, filter); err != nil {
		return nil, 0, err
	}
	if opts.Sort != "" && !def.Policy.FieldAllowed(actor, access.OpRead, opts.Sort) {
		return nil, 0, def.Policy.CheckQueryable(actor, store.Filter{store.Where(opts.Sort, store.Equals, nil)})
	}

	records, total, err := e.records.Find(ctx, slug, filter.And(decision.Filter...), opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list %s: %w", slug, err)
	}

	for i := range records {
		records[i] = def.Policy.Redact(actor, records[i])
	}
	return records, total, nil
}

func (e *Engine) FindByID(ctx context.Context, actor access.Actor, slug models.Collection, id string) (store.Record, error) {
	def, err := e.definition(slug)
	if err != nil {
		return store.Record{}, err
	}

	if err := def.Policy.Check(actor, access.OpRead); err != nil {
		return store.Record{}, err
	}

	rec, err := e.records.FindByID(ctx, slug, id)
	if err != nil {
		return store.Record{}, err
	}
	if _, err := def.Policy.Authorize(actor, access.OpRead, &rec); err != nil {
		return store.Record{}, err
	}
	return def.Policy.Redact(actor, rec), nil
}

func (e *Engine) Create(ctx context.Context, actor access.Actor, slug models.Collection, data models.JSONB) (store.Record, error) {
	def, err := e.definition(slug)
	if err != nil {
		return store.Record{}, err
	}

	if _, err := def.Policy.Authorize(actor, access.OpCreate, nil); err != nil {
		return store.Record{}, err
	}

	data = e.strip(def, actor, access.OpCreate, data)
	data = def.ApplyDefaults(data)
	if err := def.Validate(data); err != nil {
		return store.Record{}, err
	}

	data, err = def.Hooks.RunBefore(ctx, hooks.BeforeChangeArgs{
		Operation:  access.OpCreate,
		Collection: slug,
		Actor:      actor,
		Data:       data,
	})
	if err != nil {
		return store.Record{}, err
	}

	rec, err := e.records.Create(ctx, slug, data)
	if err != nil {
		return store.Record{}, fmt.Errorf("failed to create %s: %w", slug, err)
	}

	def.Hooks.RunAfter(ctx, hooks.AfterChangeArgs{
		Operation:  access.OpCreate,
		Collection: slug,
		Actor:      actor,
		Record:     rec,
	})

	logrus.WithFields(logrus.Fields{"collection": slug, "id": rec.ID, "actor": actor.ID}).Debug("record created")
	return def.Policy.Redact(actor, rec), nil
}

func (e *Engine) Update(ctx context.Context, actor access.Actor, slug models.Collection, id string, data models.JSONB) (store.Record, error) {
	def, err := e.definition(slug)
	if err != nil {
		return store.Record{}, err
	}

	if err := def.Policy.Check(actor, access.OpUpdate); err != nil {
		return store.Record{}, err
	}

	previous, err := e.records.FindByID(ctx, slug, id)
	if err != nil {
		return store.Record{}, err
	}
	if _, err := def.Policy.Authorize(actor, access.OpUpdate, &previous); err != nil {
		return store.Record{}, err
	}

	data = e.strip(def, actor, access.OpUpdate, data)
	if err := def.Validate(models.Merge(previous.Fields, data)); err != nil {
		return store.Record{}, err
	}

	data, err = def.Hooks.RunBefore(ctx, hooks.BeforeChangeArgs{
		Operation:  access.OpUpdate,
		Collection: slug,
		Actor:      actor,
		Data:       data,
		Previous:   &previous,
	})
	if err != nil {
		return store.Record{}, err
	}

	rec, err := e.records.Update(ctx, slug, id, data)
	if err != nil {
		return store.Record{}, fmt.Errorf("failed to update %s %s: %w", slug, id, err)
	}

	def.Hooks.RunAfter(ctx, hooks.AfterChangeArgs{
		Operation:  access.OpUpdate,
		Collection: slug,
		Actor:      actor,
		Record:     rec,
	})

	logrus.WithFields(logrus.Fields{"collection": slug, "id": rec.ID, "actor": actor.ID}).Debug("record updated")
	return def.Policy.Redact(actor, rec), nil
}

// Delete removes a record. There are no delete hooks, so nothing derived
// from the record (such as an owner index entry) is cleaned up.
func (e *Engine) Delete(ctx context.Context, actor access.Actor, slug models.Collection, id string) error {
	def, err := e.definition(slug)
	if err != nil {
		return err
	}

	if err := def.Policy.Check(actor, access.OpDelete); err != nil {
		return err
	}

	previous, err := e.records.FindByID(ctx, slug, id)
	if err != nil {
		return err
	}
	if _, err := def.Policy.Authorize(actor, access.OpDelete, &previous); err != nil {
		return err
	}

	if err := e.records.Delete(ctx, slug, id); err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", slug, id, err)
	}

	logrus.WithFields(logrus.Fields{"collection": slug, "id": id, "actor": actor.ID}).Info("record deleted")
	return nil
}

// Redact projects a record through the actor's field read rules.
func (e *Engine) Redact(actor access.Actor, rec store.Record) store.Record {
	def, ok := e.registry.Get(rec.Collection)
	if !ok {
		return rec
	}
	return def.Policy.Redact(actor, rec)
}

func (e *Engine) strip(def collections.Definition, actor access.Actor, op access.Operation, data models.JSONB) models.JSONB {
	data, dropped := def.Policy.StripWritable(actor, op, data)
	if len(dropped) > 0 {
		logrus.WithFields(logrus.Fields{
			"collection": def.Slug,
			"operation":  op,
			"fields":     dropped,
		}).Debug("dropped fields the actor may not write")
	}
	return data
}
