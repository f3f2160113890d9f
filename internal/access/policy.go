package access

import (
	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/store"
)

// Predicate is a record-level rule for one operation.
type Predicate func(a Actor) Decision

// FieldPredicate reports whether an actor may perform an operation on one
// field. Field rules never deny the surrounding operation.
type FieldPredicate func(a Actor) bool

// FieldRule gates one field per operation. A nil predicate allows.
type FieldRule struct {
	Read   FieldPredicate
	Create FieldPredicate
	Update FieldPredicate
}

func (r FieldRule) predicate(op Operation) FieldPredicate {
	switch op {
	case OpRead:
		return r.Read
	case OpCreate:
		return r.Create
	case OpUpdate:
		return r.Update
	}
	return nil
}

// Policy is the access table of one collection. A nil record predicate
// denies.
type Policy struct {
	Collection models.Collection
	Read       Predicate
	Create     Predicate
	Update     Predicate
	Delete     Predicate
	Fields     map[string]FieldRule
}

func (p Policy) predicate(op Operation) Predicate {
	switch op {
	case OpRead:
		return p.Read
	case OpCreate:
		return p.Create
	case OpUpdate:
		return p.Update
	case OpDelete:
		return p.Delete
	}
	return nil
}

// Evaluate runs the record-level predicate for op.
func (p Policy) Evaluate(a Actor, op Operation) Decision {
	if a.Trusted {
		return Allow()
	}
	pred := p.predicate(op)
	if pred == nil {
		return Deny()
	}
	return pred(a)
}

// Authorize resolves a decision for op against an optional target record.
// Reads may keep their filter. Writes need a boolean answer, so a filter is
// matched against the target and, with no target to match, denies.
func (p Policy) Authorize(a Actor, op Operation, target *store.Record) (Decision, error) {
	d := p.Evaluate(a, op)
	switch d.Effect {
	case EffectDeny:
		return d, p.denied(a, op, "")
	case EffectAllowWithFilter:
		if !op.IsWrite() {
			if target != nil && !d.Filter.Matches(target.Fields) {
				return Deny(), p.denied(a, op, "")
			}
			return d, nil
		}
		if target == nil || !d.Filter.Matches(target.Fields) {
			return Deny(), p.denied(a, op, "")
		}
		return Allow(), nil
	}
	return d, nil
}

// Check fails only when op is denied outright, before any target record is
// known. Filter decisions pass.
func (p Policy) Check(a Actor, op Operation) error {
	if p.Evaluate(a, op).Effect == EffectDeny {
		return p.denied(a, op, "")
	}
	return nil
}

// FieldAllowed evaluates a field-level predicate. Delete has no field stage.
func (p Policy) FieldAllowed(a Actor, op Operation, field string) bool {
	if a.Trusted {
		return true
	}
	rule, ok := p.Fields[field]
	if !ok {
		return true
	}
	pred := rule.predicate(op)
	if pred == nil {
		return true
	}
	return pred(a)
}

// Redact drops every field the actor may not read.
func (p Policy) Redact(a Actor, rec store.Record) store.Record {
	fields := rec.Fields.Clone()
	for name := range p.Fields {
		if !p.FieldAllowed(a, OpRead, name) {
			delete(fields, name)
		}
	}
	rec.Fields = fields
	return rec
}

// StripWritable drops payload fields the actor may not write for op and
// returns the names it dropped.
func (p Policy) StripWritable(a Actor, op Operation, data models.JSONB) (models.JSONB, []string) {
	out := data.Clone()
	var dropped []string
	for name := range out {
		if !p.FieldAllowed(a, op, name) {
			delete(out, name)
			dropped = append(dropped, name)
		}
	}
	return out, dropped
}

// CheckQueryable rejects filters over fields the actor cannot read.
func (p Policy) CheckQueryable(a Actor, filter store.Filter) error {
	for _, field := range filter.Fields() {
		if !p.FieldAllowed(a, OpRead, field) {
			return p.denied(a, OpRead, field)
		}
	}
	return nil
}

func (p Policy) denied(a Actor, op Operation, field string) error {
	return &DeniedError{Collection: p.Collection, Operation: op, Field: field, Anonymous: a.IsAnonymous()}
}
