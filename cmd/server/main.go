package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kevin07696/openpayu/internal/bootstrap"
	"github.com/kevin07696/openpayu/internal/config"
	"github.com/kevin07696/openpayu/internal/handlers/notification"
	"github.com/kevin07696/openpayu/internal/middleware"
	pkgmiddleware "github.com/kevin07696/openpayu/pkg/middleware"
	"github.com/kevin07696/openpayu/pkg/observability"
	"github.com/kevin07696/openpayu/pkg/security"
	"github.com/kevin07696/openpayu/pkg/shutdown"
)

const notifyPath = "/openpayu/notify"

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := security.NewZapLoggerFromConfig(cfg.Logger.Level, cfg.Logger.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting OpenPayU notification service",
		zap.String("environment", cfg.OpenPayU.Environment),
		zap.String("pos_id", cfg.OpenPayU.MerchantPosID),
		zap.String("secrets_backend", cfg.Secrets.Backend),
	)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Service stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	client, err := bootstrap.NewClient(ctx, cfg, logger)
	if err != nil {
		return err
	}

	healthChecker := observability.NewHealthChecker()
	healthChecker.Register("openpayu_circuit_breaker", bootstrap.BreakerHealthCheck(client.Breaker))

	rateLimiter := pkgmiddleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, logger)
	inFlight := shutdown.NewInFlightTracker("notifications", logger)

	notifyHandler := notification.NewHandler(client.Orders, logger, notification.Options{
		VerifySignature: cfg.OpenPayU.VerifyNotifications,
		SignatureKey:    client.Config.SignatureKey,
		Debug:           cfg.Logger.Level == "debug",
	})

	router := newRouter(notifyHandler, rateLimiter, inFlight, cfg.Logger.Development, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), healthChecker, logger)
	logger.Info("Metrics server listening", zap.Int("port", cfg.Server.MetricsPort))

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Notification server listening",
			zap.String("address", httpServer.Addr),
			zap.String("path", notifyPath),
			zap.Bool("verify_signatures", cfg.OpenPayU.VerifyNotifications),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Stopped in reverse order: in-flight acks drain first, metrics go last
	manager := shutdown.NewManager(logger, cfg.Server.ShutdownTimeout)
	manager.Register("metrics_server", func(ctx context.Context) error {
		return observability.ShutdownMetricsServer(ctx, metricsServer)
	})
	manager.RegisterNoErr("rate_limiter", rateLimiter.Shutdown)
	manager.RegisterHTTPServer("notification_server", httpServer)
	manager.Register("in_flight_notifications", inFlight.Shutdown)

	return waitForExit(ctx, manager, serverErr, logger)
}

// waitForExit blocks until a shutdown signal, ctx cancellation or a server
// failure. A server failure still runs the graceful shutdown and is returned
// alongside any component errors.
func waitForExit(ctx context.Context, manager *shutdown.Manager, serverErr <-chan error, logger *zap.Logger) error {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var failure error
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case err := <-serverErr:
			logger.Error("Notification server failed", zap.Error(err))
			failure = fmt.Errorf("notification server: %w", err)
			cancel()
		case <-waitCtx.Done():
		}
	}()

	shutdownErr := manager.WaitForShutdown(waitCtx)
	cancel()
	<-done

	return errors.Join(failure, shutdownErr)
}

func newRouter(handler http.Handler, rateLimiter *pkgmiddleware.RateLimiter, inFlight *shutdown.InFlightTracker, development bool, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(recoverer(logger))
	r.Use(middleware.NewSecurityHeaders(development).Middleware)

	r.With(
		observability.HTTPMetricsMiddleware(notifyPath),
		rateLimiter.Middleware,
		inFlight.Middleware,
	).Method(http.MethodPost, notifyPath, handler)

	return r
}

// recoverer turns a handler panic into a 500 so the provider retries the push
func recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("Panic recovered in HTTP handler",
						zap.String("path", r.URL.Path),
						zap.Any("panic", rec),
						zap.Stack("stack"),
					)
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
