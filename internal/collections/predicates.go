package collections

import (
	"github.com/digitalhippo/hippo-backend/internal/access"
	"github.com/digitalhippo/hippo-backend/internal/store"
)

func anyone(access.Actor) access.Decision {
	return access.Allow()
}

func authenticated(a access.Actor) access.Decision {
	if a.IsAnonymous() {
		return access.Deny()
	}
	return access.Allow()
}

func adminOnly(a access.Actor) access.Decision {
	if a.IsAdmin() {
		return access.Allow()
	}
	return access.Deny()
}

// adminOr allows admins outright and narrows other signed-in actors to the
// records scope returns.
func adminOr(scope func(a access.Actor) store.Condition) access.Predicate {
	return func(a access.Actor) access.Decision {
		if a.IsAdmin() {
			return access.Allow()
		}
		if a.IsAnonymous() {
			return access.Deny()
		}
		return access.AllowWithFilter(scope(a))
	}
}

func self(a access.Actor) store.Condition {
	return store.Where("id", store.Equals, a.ID)
}

func ownedBy(a access.Actor) store.Condition {
	return store.Where("user", store.Equals, a.ID)
}

func inOwnerIndex(a access.Actor) store.Condition {
	ids := a.Products
	if ids == nil {
		ids = []string{}
	}
	return store.Where("id", store.In, ids)
}

func isAdmin(a access.Actor) bool {
	return a.IsAdmin()
}

func never(access.Actor) bool {
	return false
}

// systemOnly fields are never client-writable; trusted actors bypass it.
var systemOnly = access.FieldRule{Create: never, Update: never}
