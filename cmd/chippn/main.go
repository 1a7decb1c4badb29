package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chippn/chippn/internal/billing"
	"github.com/chippn/chippn/internal/database"
	"github.com/chippn/chippn/internal/logging"
	"github.com/chippn/chippn/internal/photos"
	"github.com/chippn/chippn/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("CHIPPN_LOG_LEVEL"))

	port := os.Getenv("CHIPPN_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("CHIPPN_DB_PATH")
	if dbPath == "" {
		dbPath = "chippn.db"
	}

	baseURL := os.Getenv("CHIPPN_BASE_URL")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%s", port)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cfg := server.Config{
		Stripe: billing.StripeConfig{
			SecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
			PremiumPriceID: os.Getenv("STRIPE_PREMIUM_PRICE_ID"),
			SuccessURL:     baseURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:      baseURL + "/billing/cancel",
		},
		Photos: photos.Config{
			Endpoint:  os.Getenv("CHIPPN_S3_ENDPOINT"),
			Bucket:    envDefault("CHIPPN_S3_BUCKET", "chore-photos"),
			Region:    envDefault("CHIPPN_S3_REGION", "auto"),
			AccessKey: os.Getenv("CHIPPN_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("CHIPPN_S3_SECRET_KEY"),
			PublicURL: os.Getenv("CHIPPN_S3_PUBLIC_URL"),
		},
		AnthropicKey:    os.Getenv("ANTHROPIC_API_KEY"),
		VerifyModel:     os.Getenv("CHIPPN_VERIFY_MODEL"),
		ExpoAccessToken: os.Getenv("EXPO_ACCESS_TOKEN"),
	}

	srv := server.New(db, cfg, logger)

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Chore reminder scheduler
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	srv.PushScheduler().Start(schedCtx)

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					slog.Error("cleanup expired sessions", "error", err)
				} else if n > 0 {
					slog.Info("cleaned up expired sessions", "count", n)
				}
				if _, err := srv.ReminderStore().DeleteOlderThan(time.Now().AddDate(0, 0, -30)); err != nil {
					slog.Error("cleanup reminder log", "error", err)
				}
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("chippn starting", "addr", ":"+port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	srv.PushScheduler().Stop()
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
