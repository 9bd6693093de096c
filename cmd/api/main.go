package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/courtsite/attribution/internal/api/handlers"
	"github.com/courtsite/attribution/internal/api/middleware"
	"github.com/courtsite/attribution/internal/booking"
	"github.com/courtsite/attribution/internal/capi"
	"github.com/courtsite/attribution/internal/config"
	"github.com/courtsite/attribution/internal/dispatch"
	"github.com/courtsite/attribution/internal/ledger"
	"github.com/courtsite/attribution/internal/observability"
	"github.com/courtsite/attribution/internal/pixel"
	"github.com/courtsite/attribution/pkg/database"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Configure slog with the log level from config
	setupLogging(cfg.LogLevel)

	// Initialize database connection
	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Conversions API relay
	var clientOpts []capi.ClientOption
	if cfg.CAPIRateLimit > 0 {
		clientOpts = append(clientOpts, capi.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.CAPIRateLimit), 1)))
		slog.Info("Outbound platform rate limit enabled", "requests_per_second", cfg.CAPIRateLimit)
	}
	platformClient := capi.NewClient(cfg.FBAPIVersion, cfg.PixelID, cfg.FBAccessToken, clientOpts...)
	relay := capi.NewRelay(platformClient,
		capi.WithDefaultTestEventCode(cfg.FBTestEventCode),
		capi.WithDefaultSourceURL(cfg.EventSourceURL),
	)

	// Pixel channel is optional: without a pixel id it is skipped entirely and
	// the server relay remains the only channel.
	var pixelClient dispatch.PixelFirer
	if cfg.PixelID != "" {
		pixelClient = pixel.NewClient(cfg.PixelID)
	} else {
		slog.Info("Pixel channel disabled (PIXEL_ID not set)")
	}
	dispatcher := dispatch.NewDispatcher(relay, pixelClient)

	// Webhook dedup ledger with processed-lookup cache
	var dedupLedger ledger.Ledger = ledger.NewPostgresLedger(db)
	dedupLedger, err = ledger.NewCachedLedger(dedupLedger, cfg.LedgerCacheSize)
	if err != nil {
		slog.Error("Failed to create ledger cache", "error", err)
		os.Exit(1)
	}

	reservationsRepo := booking.NewReservationsRepository(db)
	confirmationService := booking.NewConfirmationService(dedupLedger, reservationsRepo, dispatcher)

	trackHandler := handlers.NewTrackHandler(relay)
	paymentWebhookHandler := handlers.NewPaymentWebhookHandler(confirmationService)
	reservationsHandler := handlers.NewReservationsHandler(reservationsRepo)
	healthHandler := handlers.NewHealthHandler()

	// Set up public endpoints (no authentication required). The track surface
	// is browser-facing and handles its own method contract, so it is
	// registered as a plain handler, not a method pattern.
	publicMux := http.NewServeMux()
	publicMux.HandleFunc("GET /health", healthHandler.Check)
	publicMux.Handle("/v1/track", trackHandler)

	var publicHandler http.Handler = publicMux
	publicHandler = middleware.CORS(publicHandler)

	// Set up protected endpoints (authentication required)
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("POST /v1/webhooks/payment", paymentWebhookHandler.Handle)
	protectedMux.HandleFunc("GET /v1/reservations/{id}", reservationsHandler.Get)

	// Order matters: CORS must wrap Auth so OPTIONS preflight requests bypass authentication
	var protectedHandler http.Handler = protectedMux
	protectedHandler = middleware.Auth(cfg.APIKey)(protectedHandler)
	protectedHandler = middleware.CORS(protectedHandler)

	// Combine both handlers
	mainMux := http.NewServeMux()
	mainMux.Handle("/v1/webhooks/", protectedHandler)
	mainMux.Handle("/v1/reservations/", protectedHandler)
	mainMux.Handle("/", publicHandler)

	// RequestID runs first so access logs and downstream records carry it
	handler := middleware.RequestID(middleware.Logging(mainMux))

	// Install TraceContextHandler so request_id (and trace ids when a caller propagates them) appear in logs.
	slog.SetDefault(slog.New(observability.NewTraceContextHandler(slog.Default().Handler())))

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

// setupLogging configures slog with the specified log level
func setupLogging(level string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	slog.SetDefault(slog.New(handler))
}
