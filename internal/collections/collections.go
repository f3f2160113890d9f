// Package collections declares, per collection, who may do what, which hooks
// run around writes and what a valid record looks like.
package collections

import (
	"encoding/json"
	"fmt"

	"github.com/digitalhippo/hippo-backend/internal/access"
	"github.com/digitalhippo/hippo-backend/internal/hooks"
	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/payments"
	"github.com/digitalhippo/hippo-backend/internal/store"
	"github.com/digitalhippo/hippo-backend/internal/utils"
)

type Definition struct {
	Slug   models.Collection
	Policy access.Policy
	Hooks  hooks.Pipeline
	// Defaults fill fields absent from a create payload.
	Defaults   models.JSONB
	SortFields []string
	newModel   func() interface{}
}

// Validate decodes fields into the collection's model and checks its
// constraints.
func (d Definition) Validate(fields models.JSONB) error {
	b, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", d.Slug, err)
	}
	doc := d.newModel()
	if err := json.Unmarshal(b, doc); err != nil {
		return utils.NewValidationFailure(err)
	}
	return utils.ValidateStruct(doc)
}

// ApplyDefaults returns data with every missing default filled in.
func (d Definition) ApplyDefaults(data models.JSONB) models.JSONB {
	out := data.Clone()
	for k, v := range d.Defaults {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

type Registry struct {
	defs map[models.Collection]Definition
}

// Deps are the collaborators the hook stages close over.
type Deps struct {
	Records  store.RecordStore
	Pricing  payments.PricingSync
	Currency string

	// Verification mails new users their verification link; nil skips
	// sending and leaves the token for an operator to deliver.
	Verification hooks.VerificationSender
}

func NewRegistry(deps Deps) *Registry {
	r := &Registry{defs: make(map[models.Collection]Definition)}
	for _, d := range []Definition{
		users(deps),
		products(deps),
		orders(),
		productFiles(deps),
	} {
		r.defs[d.Slug] = d
	}
	return r
}

func (r *Registry) Get(slug models.Collection) (Definition, bool) {
	d, ok := r.defs[slug]
	return d, ok
}

func (r *Registry) MustGet(slug models.Collection) Definition {
	d, ok := r.defs[slug]
	if !ok {
		panic(fmt.Sprintf("collection %q is not registered", slug))
	}
	return d
}
