package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalhippo/hippo-backend/internal/access"
	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/store"
	"github.com/digitalhippo/hippo-backend/internal/utils"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()
	records := store.NewMemoryStore()
	user, err := records.Create(ctx, models.CollectionUsers, models.JSONB{
		"email": "a@example.com", "role": "admin", "products": []string{"p1", "p2"},
	})
	require.NoError(t, err)

	token, _, err := utils.GenerateJWT(user.ID, "a@example.com", "admin", 1)
	require.NoError(t, err)
	resolver := NewResolver(records, "payload-token")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	actor, err := resolver.Resolve(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, access.Actor{ID: user.ID, Role: models.RoleAdmin, Products: []string{"p1", "p2"}}, actor)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "payload-token", Value: token})
	actor, err = resolver.Resolve(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, user.ID, actor.ID)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	actor, err = resolver.Resolve(ctx, req)
	require.NoError(t, err)
	assert.True(t, actor.IsAnonymous())

	ghost, _, err := utils.GenerateJWT("deleted", "x@example.com", "admin", 1)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+ghost)
	actor, err = resolver.Resolve(ctx, req)
	require.NoError(t, err)
	assert.True(t, actor.IsAnonymous())

	actor, err = resolver.Resolve(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.True(t, actor.IsAnonymous())
}

func TestContextNeverCarriesTrustedActors(t *testing.T) {
	ctx := WithActor(context.Background(), access.Actor{ID: "u1", Role: models.RoleUser})
	assert.Equal(t, "u1", FromContext(ctx).ID)

	ctx = WithActor(context.Background(), access.System)
	assert.True(t, FromContext(ctx).IsAnonymous())
	assert.True(t, FromContext(context.Background()).IsAnonymous())
}
