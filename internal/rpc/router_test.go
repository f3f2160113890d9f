package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalhippo/hippo-backend/internal/collections"
	"github.com/digitalhippo/hippo-backend/internal/config"
	"github.com/digitalhippo/hippo-backend/internal/middleware"
	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/payments/paymentstest"
	"github.com/digitalhippo/hippo-backend/internal/services"
	"github.com/digitalhippo/hippo-backend/internal/session"
	"github.com/digitalhippo/hippo-backend/internal/store"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type rpcFixture struct {
	engine   *gin.Engine
	records  *store.MemoryStore
	checkout *paymentstest.Checkout
}

func newRPCFixture() *rpcFixture {
	gin.SetMode(gin.TestMode)

	records := store.NewMemoryStore()
	registry := collections.NewRegistry(collections.Deps{Records: records, Pricing: &paymentstest.Pricing{}, Currency: "usd"})
	engine := services.NewEngine(records, registry)
	cfg := &config.Config{
		JWT:      config.JWTConfig{AccessTokenTTL: 1, CookieName: "payload-token"},
		Frontend: config.FrontendConfig{BaseURL: "https://shop.example"},
	}
	checkout := &paymentstest.Checkout{}

	router := NewAppRouter(Services{
		Auth:     services.NewAuthService(engine, cfg),
		Checkout: services.NewCheckoutService(engine, checkout, cfg),
		Catalog:  services.NewCatalogService(engine),
	}, cfg)

	r := gin.New()
	r.Use(middleware.Authenticate(session.NewResolver(records, cfg.JWT.CookieName)))
	r.GET("/api/trpc/:procedure", router.Handle)
	r.POST("/api/trpc/:procedure", router.Handle)
	return &rpcFixture{engine: r, records: records, checkout: checkout}
}

func (f *rpcFixture) call(method, procedure, input string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if method == http.MethodGet {
		req = httptest.NewRequest(method, "/api/trpc/"+procedure+"?input="+url.QueryEscape(input), nil)
	} else {
		req = httptest.NewRequest(method, "/api/trpc/"+procedure, strings.NewReader(input))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestPrivateProcedureRejectsAnonymous(t *testing.T) {
	f := newRPCFixture()

	w := f.call(http.MethodPost, "payment.createSession", `{"productIds":["p1"]}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, f.checkout.Requests)

	w = f.call(http.MethodPost, "auth.me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnknownProcedure(t *testing.T) {
	f := newRPCFixture()

	w := f.call(http.MethodPost, "auth.deleteEverything", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSignUpSignInFlow(t *testing.T) {
	f := newRPCFixture()

	w := f.call(http.MethodPost, "auth.createUser", `{"email":"jane@example.com","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.call(http.MethodPost, "auth.createUser", `{"email":"jane@example.com","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.call(http.MethodPost, "auth.signIn", `{"email":"jane@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.call(http.MethodPost, "auth.signIn", `{"email":"jane@example.com","password":"s3cret-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "unverified accounts cannot sign in")

	w = f.call(http.MethodGet, "auth.verifyEmail", `{"token":"wrong"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	users, _, err := f.records.Find(context.Background(), models.CollectionUsers,
		store.Filter{store.Where("email", store.Equals, "jane@example.com")}, store.FindOptions{})
	require.NoError(t, err)
	require.Len(t, users, 1)
	token := users[0].Fields.String("_verificationToken")
	require.NotEmpty(t, token)

	w = f.call(http.MethodGet, "auth.verifyEmail", `{"token":"`+token+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.call(http.MethodPost, "auth.signIn", `{"email":"jane@example.com","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var sessionCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "payload-token" {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	assert.True(t, sessionCookie.HttpOnly)

	w = f.call(http.MethodPost, "auth.me", "", sessionCookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	var me map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &me))
	assert.Equal(t, "jane@example.com", me["email"])
	assert.NotContains(t, me, "passwordHash")
	assert.NotContains(t, me, "_verificationToken")
	assert.Equal(t, true, me["_verified"])
}

func TestInfiniteProducts(t *testing.T) {
	f := newRPCFixture()
	ctx := context.Background()
	for _, status := range []string{"approved", "approved", "pending"} {
		_, err := f.records.Create(ctx, models.CollectionProducts, models.JSONB{
			"name": "Kit", "price": 5.0, "category": "ui_kits", "approvedForSale": status, "stripeId": "prod_x",
		})
		require.NoError(t, err)
	}

	w := f.call(http.MethodGet, "products.infinite", `{"limit":1}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	var page struct {
		Items    []map[string]interface{} `json:"items"`
		NextPage *int                     `json:"nextPage"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	require.Len(t, page.Items, 1)
	assert.NotContains(t, page.Items[0], "stripeId")
	require.NotNil(t, page.NextPage)
	assert.Equal(t, 2, *page.NextPage)

	w = f.call(http.MethodGet, "products.infinite", `{"limit":1,"category":"fonts"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductCategories(t *testing.T) {
	f := newRPCFixture()

	w := f.call(http.MethodGet, "products.categories", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	var cats []models.ProductCategory
	require.NoError(t, json.Unmarshal(resp.Data, &cats))
	require.Len(t, cats, 2)
	assert.Equal(t, "ui_kits", cats[0].Value)
	assert.Equal(t, "icons", cats[1].Value)
	assert.NotEmpty(t, cats[0].Featured)
}
