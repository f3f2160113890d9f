package rpc

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/digitalhippo/hippo-backend/internal/config"
	"github.com/digitalhippo/hippo-backend/internal/services"
	"github.com/digitalhippo/hippo-backend/internal/session"
)

type Services struct {
	Auth     *services.AuthService
	Checkout *services.CheckoutService
	Catalog  *services.CatalogService
}

type pollOrderStatusInput struct {
	OrderID string `json:"orderId"`
}

// NewAppRouter registers the storefront procedures.
func NewAppRouter(svc Services, cfg *config.Config) *Router {
	r := NewRouter()

	r.Public("auth.createUser", func(c *gin.Context, input json.RawMessage) (interface{}, error) {
		var req services.CredentialsRequest
		if err := Bind(input, &req); err != nil {
			return nil, err
		}
		return svc.Auth.Register(c.Request.Context(), &req)
	})

	r.Public("auth.signIn", func(c *gin.Context, input json.RawMessage) (interface{}, error) {
		var req services.CredentialsRequest
		if err := Bind(input, &req); err != nil {
			return nil, err
		}
		resp, err := svc.Auth.SignIn(c.Request.Context(), &req)
		if err != nil {
			return nil, err
		}
		SetSessionCookie(c, cfg, resp.Token, time.Unix(resp.ExpiresAt, 0))
		return resp, nil
	})

	r.Public("auth.verifyEmail", func(c *gin.Context, input json.RawMessage) (interface{}, error) {
		var req services.VerifyEmailRequest
		if err := Bind(input, &req); err != nil {
			return nil, err
		}
		return svc.Auth.VerifyEmail(c.Request.Context(), &req)
	})

	r.Public("products.infinite", func(c *gin.Context, input json.RawMessage) (interface{}, error) {
		var q services.InfiniteQuery
		if err := Bind(input, &q); err != nil {
			return nil, err
		}
		return svc.Catalog.Infinite(c.Request.Context(), &q)
	})

	r.Public("products.categories", func(*gin.Context, json.RawMessage) (interface{}, error) {
		return svc.Catalog.Categories()
	})

	r.Private("auth.me", func(c *gin.Context, _ json.RawMessage) (interface{}, error) {
		return svc.Auth.Me(c.Request.Context(), session.CurrentActor(c))
	})

	r.Private("payment.createSession", func(c *gin.Context, input json.RawMessage) (interface{}, error) {
		var req services.CreateSessionRequest
		if err := Bind(input, &req); err != nil {
			return nil, err
		}
		return svc.Checkout.CreateSession(c.Request.Context(), session.CurrentActor(c), &req)
	})

	r.Private("payment.pollOrderStatus", func(c *gin.Context, input json.RawMessage) (interface{}, error) {
		var in pollOrderStatusInput
		if err := Bind(input, &in); err != nil {
			return nil, err
		}
		return svc.Checkout.PollOrderStatus(c.Request.Context(), session.CurrentActor(c), in.OrderID)
	})

	return r
}

// SetSessionCookie stores the session token in an HTTP-only cookie.
func SetSessionCookie(c *gin.Context, cfg *config.Config, token string, expires time.Time) {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.JWT.CookieName, token, maxAge, "/", "", cfg.IsProduction(), true)
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *gin.Context, cfg *config.Config) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.JWT.CookieName, "", -1, "/", "", cfg.IsProduction(), true)
}
