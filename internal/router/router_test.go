package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalhippo/hippo-backend/internal/collections"
	"github.com/digitalhippo/hippo-backend/internal/config"
	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/payments/paymentstest"
	"github.com/digitalhippo/hippo-backend/internal/services"
	"github.com/digitalhippo/hippo-backend/internal/store"
	"github.com/digitalhippo/hippo-backend/internal/utils"
)

func newTestRouter(t *testing.T) (*gin.Engine, *paymentstest.Verifier, *store.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server:   config.ServerConfig{PublicURL: "http://api.example"},
		JWT:      config.JWTConfig{SecretKey: "test-secret", AccessTokenTTL: 1, CookieName: "payload-token"},
		AWS:      config.AWSConfig{LocalUploadDir: t.TempDir(), MaxUploadMB: 1},
		Frontend: config.FrontendConfig{BaseURL: "https://shop.example"},
	}
	records := store.NewMemoryStore()
	registry := collections.NewRegistry(collections.Deps{Records: records, Pricing: &paymentstest.Pricing{}, Currency: "usd"})
	engine := services.NewEngine(records, registry)
	storage, err := services.NewStorageService(engine, cfg)
	require.NoError(t, err)

	verifier := &paymentstest.Verifier{Signature: "good"}
	return Initialize(records, Dependencies{
		Engine:   engine,
		Storage:  storage,
		Checkout: &paymentstest.Checkout{},
		Verifier: verifier,
	}, cfg), verifier, records
}

func TestRoutes(t *testing.T) {
	r, verifier, _ := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"me anonymous", http.MethodGet, "/api/users/me", "", http.StatusOK},
		{"private procedure anonymous", http.MethodPost, "/api/trpc/payment.createSession", `{"productIds":["x"]}`, http.StatusUnauthorized},
		{"public procedure", http.MethodGet, "/api/trpc/products.infinite", "", http.StatusOK},
		{"orders anonymous", http.MethodGet, "/api/orders", "", http.StatusUnauthorized},
		{"products anonymous", http.MethodGet, "/api/products", "", http.StatusUnauthorized},
		{"upload anonymous", http.MethodPost, "/api/product_files/upload", "", http.StatusUnauthorized},
		{"product file anonymous", http.MethodGet, "/api/product_files/abc", "", http.StatusUnauthorized},
		{"product file download anonymous", http.MethodGet, "/api/product_files/abc/download", "", http.StatusUnauthorized},
		{"no static media", http.MethodGet, "/media/product_files/x.zip", "", http.StatusNotFound},
		{"webhook unsigned", http.MethodPost, "/api/webhooks/stripe", `{}`, http.StatusBadRequest},
		{"admin anonymous", http.MethodPost, "/api/admin/owner-index/resync", "", http.StatusUnauthorized},
		{"cart anonymous", http.MethodGet, "/cart", "", http.StatusFound},
		{"sign-up anonymous", http.MethodGet, "/sign-up", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	assert.Equal(t, 1, verifier.Calls)
}

func bearer(t *testing.T, records *store.MemoryStore, email string) string {
	t.Helper()
	user, err := records.Create(context.Background(), models.CollectionUsers, models.JSONB{"email": email, "role": "user"})
	require.NoError(t, err)
	token, _, err := utils.GenerateJWT(user.ID, email, "user", 1)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestProductFileDownloadRequiresOwnership(t *testing.T) {
	r, _, records := newTestRouter(t)
	seller := bearer(t, records, "seller@example.com")
	stranger := bearer(t, records, "stranger@example.com")

	do := func(req *http.Request, auth string) *httptest.ResponseRecorder {
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, err := mw.CreateFormFile("file", "kit.zip")
	require.NoError(t, err)
	_, err = part.Write([]byte("PK\x03\x04 archive"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/product_files/upload", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := do(req, seller)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id, _ := created.Data["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "http://api.example/api/product_files/"+id+"/download", created.Data["url"])

	assert.Equal(t, http.StatusOK, do(httptest.NewRequest(http.MethodGet, "/api/product_files/"+id, nil), seller).Code)
	assert.Equal(t, http.StatusForbidden, do(httptest.NewRequest(http.MethodGet, "/api/product_files/"+id, nil), stranger).Code)

	download := "/api/product_files/" + id + "/download"
	assert.Equal(t, http.StatusUnauthorized, do(httptest.NewRequest(http.MethodGet, download, nil), "").Code)
	assert.Equal(t, http.StatusForbidden, do(httptest.NewRequest(http.MethodGet, download, nil), stranger).Code)

	w = do(httptest.NewRequest(http.MethodGet, download, nil), seller)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "PK\x03\x04 archive", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "kit.zip")
}
