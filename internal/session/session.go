// Package session resolves the actor behind a request and threads it through
// request contexts.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/digitalhippo/hippo-backend/internal/access"
	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/store"
	"github.com/digitalhippo/hippo-backend/internal/utils"
)

type Resolver struct {
	records    store.RecordStore
	cookieName string
}

func NewResolver(records store.RecordStore, cookieName string) *Resolver {
	return &Resolver{records: records, cookieName: cookieName}
}

// Resolve returns the actor for req. Missing, malformed or expired tokens and
// tokens for deleted users resolve to Anonymous; only store failures are
// returned as errors.
func (r *Resolver) Resolve(ctx context.Context, req *http.Request) (access.Actor, error) {
	token := TokenFromRequest(req, r.cookieName)
	if token == "" {
		return access.Anonymous, nil
	}

	claims, err := utils.ValidateJWT(token)
	if err != nil {
		return access.Anonymous, nil
	}

	user, err := r.records.FindByID(ctx, models.CollectionUsers, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return access.Anonymous, nil
	}
	if err != nil {
		return access.Anonymous, fmt.Errorf("failed to load session user: %w", err)
	}

	return access.Actor{
		ID:       user.ID,
		Role:     models.Role(user.Fields.String("role")),
		Products: models.RefsFrom(user.Fields["products"]),
	}, nil
}

// TokenFromRequest reads a bearer token, falling back to the session cookie.
func TokenFromRequest(req *http.Request, cookieName string) string {
	if header := req.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookieName == "" {
		return ""
	}
	if c, err := req.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

type actorKey struct{}

func WithActor(ctx context.Context, a access.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// FromContext returns the request's actor, or Anonymous.
func FromContext(ctx context.Context) access.Actor {
	if a, ok := ctx.Value(actorKey{}).(access.Actor); ok && !a.Trusted {
		return a
	}
	return access.Anonymous
}

// CurrentActor is FromContext for gin handlers.
func CurrentActor(c *gin.Context) access.Actor {
	return FromContext(c.Request.Context())
}
