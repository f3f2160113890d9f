// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/digitalhippo/hippo-backend/internal/config"
	"github.com/digitalhippo/hippo-backend/internal/handlers"
	"github.com/digitalhippo/hippo-backend/internal/middleware"
	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/payments"
	"github.com/digitalhippo/hippo-backend/internal/rpc"
	"github.com/digitalhippo/hippo-backend/internal/services"
	"github.com/digitalhippo/hippo-backend/internal/session"
	"github.com/digitalhippo/hippo-backend/internal/store"
	"github.com/digitalhippo/hippo-backend/internal/utils"
)

// Dependencies are the collaborators the HTTP surface is built from. Tests
// substitute fakes for the payment adapters.
type Dependencies struct {
	Engine   *services.Engine
	Storage  *services.StorageService
	Checkout payments.Checkout
	Verifier payments.EventVerifier
}

func Initialize(records store.RecordStore, deps Dependencies, cfg *config.Config) *gin.Engine {
	// Initialize services
	authService := services.NewAuthService(deps.Engine, cfg)
	checkoutService := services.NewCheckoutService(deps.Engine, deps.Checkout, cfg)
	catalogService := services.NewCatalogService(deps.Engine)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, cfg)
	collectionHandler := handlers.NewCollectionHandler(deps.Engine)
	productFileHandler := handlers.NewProductFileHandler(deps.Storage)
	paymentHandler := handlers.NewPaymentHandler(checkoutService, deps.Verifier)
	adminHandler := handlers.NewAdminHandler(services.NewOwnerIndexService(records))
	procedures := rpc.NewAppRouter(rpc.Services{
		Auth:     authService,
		Checkout: checkoutService,
		Catalog:  catalogService,
	}, cfg)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	if cfg.Frontend.BaseURL != "" {
		r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	}
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Webhooks authenticate by signature, not session.
	r.POST("/api/webhooks/stripe", paymentHandler.Webhook)

	site := r.Group("/")
	site.Use(middleware.Authenticate(session.NewResolver(records, cfg.JWT.CookieName)))
	{
		site.GET("/cart", handlers.RequireSignedIn("cart"), handlers.Page)
		site.GET("/sign-in", handlers.RedirectSignedIn(), handlers.Page)
		site.GET("/sign-up", handlers.RedirectSignedIn(), handlers.Page)
	}

	api := site.Group("/api")
	{
		trpc := api.Group("/trpc")
		trpc.Use(credentialRateLimit(middleware.AuthRateLimit()))
		{
			trpc.GET("/:procedure", procedures.Handle)
			trpc.POST("/:procedure", procedures.Handle)
		}

		users := api.Group("/users")
		{
			users.GET("/me", authHandler.Me)
			users.POST("/logout", authHandler.Logout)
		}

		files := api.Group("/product_files")
		{
			files.POST("/upload", middleware.RequireActor(), productFileHandler.Upload)
			files.GET("/:id", handlers.WithCollection(models.CollectionProductFiles), collectionHandler.Get)
			files.GET("/:id/download", productFileHandler.Download)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AdminRequired())
		{
			admin.POST("/owner-index/resync", adminHandler.ResyncOwnerIndex)
		}

		api.GET("/:collection", collectionHandler.List)
		api.POST("/:collection", collectionHandler.Create)
		api.GET("/:collection/:id", collectionHandler.Get)
		api.PATCH("/:collection/:id", collectionHandler.Update)
		api.DELETE("/:collection/:id", collectionHandler.Delete)
	}

	return r
}

// credentialRateLimit applies limit to the procedures that check passwords.
func credentialRateLimit(limit gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Param("procedure") {
		case "auth.signIn", "auth.createUser", "auth.verifyEmail":
			limit(c)
		default:
			c.Next()
		}
	}
}
