package access

import (
	"errors"
	"fmt"

	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/store"
)

type Operation string

const (
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

func (o Operation) IsWrite() bool {
	return o != OpRead
}

type Effect int

const (
	EffectDeny Effect = iota
	EffectAllow
	EffectAllowWithFilter
)

func (e Effect) String() string {
	switch e {
	case EffectAllow:
		return "allow"
	case EffectAllowWithFilter:
		return "allow_with_filter"
	default:
		return "deny"
	}
}

// Decision is the outcome of a record-level predicate. Filter is only set for
// EffectAllowWithFilter and must be ANDed into every read.
type Decision struct {
	Effect Effect
	Filter store.Filter
}

func Allow() Decision { return Decision{Effect: EffectAllow} }

func Deny() Decision { return Decision{Effect: EffectDeny} }

func AllowWithFilter(conds ...store.Condition) Decision {
	return Decision{Effect: EffectAllowWithFilter, Filter: store.Filter(conds)}
}

func (d Decision) Allowed() bool {
	return d.Effect != EffectDeny
}

var ErrUnauthorized = errors.New("unauthorized")

// DeniedError reports which operation, and optionally which field, was
// refused.
type DeniedError struct {
	Collection models.Collection
	Operation  Operation
	Field      string
	Anonymous  bool
}

func (e *DeniedError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("not allowed to %s field %q on %s", e.Operation, e.Field, e.Collection)
	}
	return fmt.Sprintf("not allowed to %s %s", e.Operation, e.Collection)
}

func (e *DeniedError) Unwrap() error {
	return ErrUnauthorized
}
