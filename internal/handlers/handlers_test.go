package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/digitalhippo/hippo-backend/internal/access"
	"github.com/digitalhippo/hippo-backend/internal/collections"
	"github.com/digitalhippo/hippo-backend/internal/config"
	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/payments"
	"github.com/digitalhippo/hippo-backend/internal/payments/paymentstest"
	"github.com/digitalhippo/hippo-backend/internal/services"
	"github.com/digitalhippo/hippo-backend/internal/session"
	"github.com/digitalhippo/hippo-backend/internal/store"
)

type handlerFixture struct {
	ctx      context.Context
	records  *store.MemoryStore
	engine   *services.Engine
	checkout *services.CheckoutService
	verifier *paymentstest.Verifier
	buyer    access.Actor
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &handlerFixture{ctx: context.Background(), records: store.NewMemoryStore(), verifier: &paymentstest.Verifier{Signature: "t=1,v1=good"}}
	registry := collections.NewRegistry(collections.Deps{Records: f.records, Pricing: &paymentstest.Pricing{}, Currency: "usd"})
	f.engine = services.NewEngine(f.records, registry)
	cfg := &config.Config{Frontend: config.FrontendConfig{BaseURL: "https://shop.example"}}
	f.checkout = services.NewCheckoutService(f.engine, &paymentstest.Checkout{}, cfg)

	buyer, err := f.records.Create(f.ctx, models.CollectionUsers, models.JSONB{"email": "buyer@example.com", "role": "user"})
	require.NoError(t, err)
	f.buyer = access.Actor{ID: buyer.ID, Role: models.RoleUser}
	return f
}

// router wires the handlers under test with a fixed actor in place of the
// session resolver.
func (f *handlerFixture) router(actor access.Actor) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(session.WithActor(c.Request.Context(), actor))
		c.Next()
	})

	payment := NewPaymentHandler(f.checkout, f.verifier)
	r.POST("/api/webhooks/stripe", payment.Webhook)

	coll := NewCollectionHandler(f.engine)
	r.GET("/api/:collection", coll.List)
	r.GET("/api/:collection/:id", coll.Get)
	r.POST("/api/:collection", coll.Create)
	r.PATCH("/api/:collection/:id", coll.Update)
	r.DELETE("/api/:collection/:id", coll.Delete)

	r.GET("/cart", RequireSignedIn("cart"), Page)
	r.GET("/sign-in", RedirectSignedIn(), Page)
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func (f *handlerFixture) unpaidOrder(t *testing.T) store.Record {
	t.Helper()
	order, err := f.records.Create(f.ctx, models.CollectionOrders, models.JSONB{"user": f.buyer.ID, "_isPaid": false})
	require.NoError(t, err)
	return order
}

func (f *handlerFixture) isPaid(t *testing.T, id string) bool {
	t.Helper()
	order, err := f.records.FindByID(f.ctx, models.CollectionOrders, id)
	require.NoError(t, err)
	paid, _ := order.Fields["_isPaid"].(bool)
	return paid
}

func webhookRequest(signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(`{"id":"evt_1"}`))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	return req
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := newHandlerFixture(t)
	order := f.unpaidOrder(t)
	f.verifier.Event = payments.Event{
		ID:       "evt_1",
		Type:     payments.EventCheckoutCompleted,
		Metadata: map[string]string{"userId": f.buyer.ID, "orderId": order.ID},
	}
	r := f.router(access.Anonymous)

	for _, sig := range []string{"", "t=1,v1=forged"} {
		w := serve(r, webhookRequest(sig))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	assert.False(t, f.isPaid(t, order.ID))

	w := serve(r, webhookRequest("t=1,v1=good"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, f.isPaid(t, order.ID))
	assert.Equal(t, 3, f.verifier.Calls)
}

func TestWebhookInvalidEvent(t *testing.T) {
	f := newHandlerFixture(t)
	order := f.unpaidOrder(t)
	other, err := f.records.Create(f.ctx, models.CollectionUsers, models.JSONB{"email": "other@example.com", "role": "user"})
	require.NoError(t, err)
	r := f.router(access.Anonymous)

	f.verifier.Event = payments.Event{Type: payments.EventCheckoutCompleted, Metadata: map[string]string{"orderId": order.ID}}
	assert.Equal(t, http.StatusBadRequest, serve(r, webhookRequest("t=1,v1=good")).Code)

	f.verifier.Event.Metadata = map[string]string{"userId": other.ID, "orderId": order.ID}
	assert.Equal(t, http.StatusBadRequest, serve(r, webhookRequest("t=1,v1=good")).Code)
	assert.False(t, f.isPaid(t, order.ID))

	f.verifier.Event = payments.Event{Type: "invoice.paid"}
	assert.Equal(t, http.StatusOK, serve(r, webhookRequest("t=1,v1=good")).Code)
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestWebhookWithStripeSignatures(t *testing.T) {
	f := newHandlerFixture(t)
	order := f.unpaidOrder(t)
	r := gin.New()
	r.POST("/api/webhooks/stripe", NewPaymentHandler(f.checkout, payments.NewStripeVerifier("whsec_test")).Webhook)

	post := func(secret, body string) *httptest.ResponseRecorder {
		signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: []byte(body), Secret: secret})
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(body))
		req.Header.Set("Stripe-Signature", signed.Header)
		return serve(r, req)
	}
	event := fmt.Sprintf(`{"id":"evt_9","object":"event","type":"checkout.session.completed","api_version":"2019-02-19",`+
		`"data":{"object":{"id":"cs_9","object":"checkout.session","metadata":{"userId":%q,"orderId":%q}}}}`, f.buyer.ID, order.ID)

	w := post("whsec_forged", event)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_SIGNATURE", errorCode(t, w))

	w = post("whsec_test", `{"id":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_EVENT", errorCode(t, w))
	assert.False(t, f.isPaid(t, order.ID))

	w = post("whsec_test", event)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, f.isPaid(t, order.ID))
}

func TestCollectionListFiltersOrders(t *testing.T) {
	f := newHandlerFixture(t)
	mine := f.unpaidOrder(t)
	other, err := f.records.Create(f.ctx, models.CollectionUsers, models.JSONB{"email": "other@example.com", "role": "user"})
	require.NoError(t, err)
	_, err = f.records.Create(f.ctx, models.CollectionOrders, models.JSONB{"user": other.ID, "_isPaid": true})
	require.NoError(t, err)

	w := serve(f.router(access.Anonymous), httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(f.router(f.buyer), httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1", w.Header().Get("X-Total-Count"))

	var resp struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, mine.ID, resp.Data[0]["id"])
	assert.NotContains(t, resp.Data[0], "_isPaid")

	w = serve(f.router(f.buyer), httptest.NewRequest(http.MethodGet, "/api/orders?where[_isPaid][gt]=1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(f.router(f.buyer), httptest.NewRequest(http.MethodGet, "/api/widgets", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCollectionCreateAndDeny(t *testing.T) {
	f := newHandlerFixture(t)
	body := `{"name":"Icons","price":10,"category":"icons","product_files":"file-1"}`

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"_isPaid":true}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusForbidden, serve(f.router(f.buyer), req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusUnauthorized, serve(f.router(access.Anonymous), req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := serve(f.router(f.buyer), req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, f.buyer.ID, resp.Data["user"])
	assert.Equal(t, "pending", resp.Data["approvedForSale"])
	assert.NotContains(t, resp.Data, "stripeId")
}

func TestParseWhere(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/api/products?where[category][equals]=icons&where[id][in]=a,b&where[id][in]=c&page=2", nil)

	filter, err := parseWhere(c)
	require.NoError(t, err)
	assert.ElementsMatch(t, store.Filter{
		store.Where("category", store.Equals, "icons"),
		store.Where("id", store.In, []string{"a", "b", "c"}),
	}, filter)

	c.Request = httptest.NewRequest(http.MethodGet, "/api/products?where[category]=icons", nil)
	_, err = parseWhere(c)
	assert.ErrorIs(t, err, store.ErrInvalidQuery)
}

func TestPageGuards(t *testing.T) {
	f := newHandlerFixture(t)

	w := serve(f.router(access.Anonymous), httptest.NewRequest(http.MethodGet, "/cart", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/sign-in?origin=cart", w.Header().Get("Location"))

	w = serve(f.router(f.buyer), httptest.NewRequest(http.MethodGet, "/cart", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(f.router(f.buyer), httptest.NewRequest(http.MethodGet, "/sign-in", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = serve(f.router(access.Anonymous), httptest.NewRequest(http.MethodGet, "/sign-in", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
