// Package hooks holds the ordered before/after mutation stages run around
// every create and update.
package hooks

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/digitalhippo/hippo-backend/internal/access"
	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/store"
)

// BeforeChangeArgs is the input of a before stage. Previous is nil on create.
type BeforeChangeArgs struct {
	Operation  access.Operation
	Collection models.Collection
	Actor      access.Actor
	Data       models.JSONB
	Previous   *store.Record
}

// BeforeChange transforms the write payload. Returning an error aborts the
// write before anything is persisted.
type BeforeChange func(ctx context.Context, args BeforeChangeArgs) (models.JSONB, error)

type AfterChangeArgs struct {
	Operation  access.Operation
	Collection models.Collection
	Actor      access.Actor
	Record     store.Record
}

// AfterChange propagates a persisted write. Errors never undo the write.
type AfterChange func(ctx context.Context, args AfterChangeArgs) error

type BeforeStage struct {
	Name string
	Run  BeforeChange
}

type AfterStage struct {
	Name string
	Run  AfterChange
}

func Before(name string, fn BeforeChange) BeforeStage {
	return BeforeStage{Name: name, Run: fn}
}

func After(name string, fn AfterChange) AfterStage {
	return AfterStage{Name: name, Run: fn}
}

// Pipeline is the hook table of one collection. Delete has no stages.
type Pipeline struct {
	BeforeCreate []BeforeStage
	BeforeUpdate []BeforeStage
	AfterCreate  []AfterStage
	AfterUpdate  []AfterStage
}

// HookError wraps the failure of a before stage.
type HookError struct {
	Hook string
	Err  error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("hook %s: %v", e.Hook, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// PropagationFailure is a failed after stage: the record is persisted but
// state derived from it may be stale until resynced.
type PropagationFailure struct {
	Collection models.Collection
	RecordID   string
	Hook       string
	Err        error
}

func (e *PropagationFailure) Error() string {
	return fmt.Sprintf("propagation %s for %s %s: %v", e.Hook, e.Collection, e.RecordID, e.Err)
}

func (e *PropagationFailure) Unwrap() error {
	return e.Err
}

func (p Pipeline) before(op access.Operation) []BeforeStage {
	if op == access.OpCreate {
		return p.BeforeCreate
	}
	if op == access.OpUpdate {
		return p.BeforeUpdate
	}
	return nil
}

func (p Pipeline) after(op access.Operation) []AfterStage {
	if op == access.OpCreate {
		return p.AfterCreate
	}
	if op == access.OpUpdate {
		return p.AfterUpdate
	}
	return nil
}

// RunBefore threads the payload through the before stages in order and stops
// at the first failure.
func (p Pipeline) RunBefore(ctx context.Context, args BeforeChangeArgs) (models.JSONB, error) {
	data := args.Data.Clone()
	for _, stage := range p.before(args.Operation) {
		args.Data = data
		out, err := stage.Run(ctx, args)
		if err != nil {
			return nil, &HookError{Hook: stage.Name, Err: err}
		}
		data = out
	}
	return data, nil
}

// RunAfter runs every after stage even when earlier ones fail. Failures are
// logged and returned for callers that want to surface them.
func (p Pipeline) RunAfter(ctx context.Context, args AfterChangeArgs) []*PropagationFailure {
	var failures []*PropagationFailure
	for _, stage := range p.after(args.Operation) {
		if err := stage.Run(ctx, args); err != nil {
			failure := &PropagationFailure{
				Collection: args.Collection,
				RecordID:   args.Record.ID,
				Hook:       stage.Name,
				Err:        err,
			}
			logrus.WithFields(logrus.Fields{
				"collection": args.Collection,
				"id":         args.Record.ID,
				"hook":       stage.Name,
				"operation":  args.Operation,
			}).WithError(err).Warn("after-change hook failed, derived state may be stale")
			failures = append(failures, failure)
		}
	}
	return failures
}
