package access

import (
	"github.com/digitalhippo/hippo-backend/internal/models"
)

// Actor is the identity an operation runs as.
type Actor struct {
	ID   string
	Role models.Role
	// Products is the actor's owner index as loaded from their user record.
	Products []string
	// Trusted marks server-side code. Trusted actors bypass every predicate
	// and are never produced from a request.
	Trusted bool
}

var Anonymous = Actor{}

// System is the trusted actor used by webhooks, hooks and checkout.
var System = Actor{Role: models.RoleAdmin, Trusted: true}

func (a Actor) IsAnonymous() bool {
	return a.ID == "" && !a.Trusted
}

func (a Actor) IsAdmin() bool {
	return a.Trusted || a.Role == models.RoleAdmin
}

// AsTrusted keeps the identity but lifts predicate checks, for server code
// acting on behalf of an already authorized actor.
func (a Actor) AsTrusted() Actor {
	a.Trusted = true
	return a
}
