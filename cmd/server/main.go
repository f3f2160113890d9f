// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/digitalhippo/hippo-backend/internal/collections"
	"github.com/digitalhippo/hippo-backend/internal/config"
	"github.com/digitalhippo/hippo-backend/internal/database"
	"github.com/digitalhippo/hippo-backend/internal/i18n"
	"github.com/digitalhippo/hippo-backend/internal/payments"
	"github.com/digitalhippo/hippo-backend/internal/router"
	"github.com/digitalhippo/hippo-backend/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize store
	records, closeStore, err := database.OpenStore(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize store")
	}
	defer closeStore()

	if _, err := database.SeedAdmin(context.Background(), records, cfg.Admin); err != nil {
		logrus.WithError(err).Fatal("Failed to seed admin user")
	}

	// Initialize i18n
	if err := i18n.Initialize(); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	stripeClient := payments.NewStripeClient(cfg.Payment.StripeSecretKey, cfg.Payment.SyncTimeout)
	registry := collections.NewRegistry(collections.Deps{
		Records:      records,
		Pricing:      stripeClient,
		Currency:     cfg.Payment.Currency,
		Verification: services.NewNotificationService(cfg),
	})
	engine := services.NewEngine(records, registry)

	storage, err := services.NewStorageService(engine, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize storage")
	}

	// Initialize router
	r := router.Initialize(records, router.Dependencies{
		Engine:   engine,
		Storage:  storage,
		Checkout: stripeClient,
		Verifier: payments.NewStripeVerifier(cfg.Payment.StripeWebhookSecret),
	}, cfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	logrus.Info("Server exited")
}
