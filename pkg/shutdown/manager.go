package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	shutdownDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shutdown_duration_seconds",
		Help:    "Total time taken to shutdown gracefully",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 15, 30},
	})

	shutdownErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shutdown_errors_total",
		Help: "Total number of shutdown errors by component",
	}, []string{"component"})
)

// ShutdownFunc stops one component
type ShutdownFunc func(context.Context) error

type component struct {
	name string
	fn   ShutdownFunc
}

// Manager stops registered components in reverse registration order.
// Each component finishes before the next one starts, so the webhook server
// drains before the metrics server and health checks go away.
type Manager struct {
	logger     *zap.Logger
	timeout    time.Duration
	mu         sync.Mutex
	components []component
}

// NewManager creates a new shutdown manager
func NewManager(logger *zap.Logger, timeout time.Duration) *Manager {
	return &Manager{
		logger:  logger,
		timeout: timeout,
	}
}

// Register adds a component; the last registered is stopped first
func (m *Manager) Register(name string, fn ShutdownFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.components = append(m.components, component{name: name, fn: fn})

	m.logger.Debug("Registered shutdown component",
		zap.String("component", name),
		zap.Int("registration_order", len(m.components)),
	)
}

// RegisterHTTPServer registers anything with an http.Server style Shutdown
func (m *Manager) RegisterHTTPServer(name string, server interface{ Shutdown(context.Context) error }) {
	m.Register(name, server.Shutdown)
}

// RegisterNoErr registers a shutdown function that cannot fail
func (m *Manager) RegisterNoErr(name string, fn func()) {
	m.Register(name, func(context.Context) error {
		fn()
		return nil
	})
}

// WaitForShutdown blocks until SIGINT, SIGTERM or ctx cancellation, then shuts down
func (m *Manager) WaitForShutdown(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	m.logger.Info("Received shutdown signal - initiating graceful shutdown",
		zap.Duration("timeout", m.timeout),
	)

	return m.Shutdown()
}

// Shutdown stops every component within the manager timeout. It returns the
// joined component errors.
func (m *Manager) Shutdown() error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.mu.Lock()
	components := make([]component, len(m.components))
	copy(components, m.components)
	m.mu.Unlock()

	var errs []error
	for i := len(components) - 1; i >= 0; i-- {
		comp := components[i]
		compStart := time.Now()

		if err := comp.fn(ctx); err != nil {
			shutdownErrors.WithLabelValues(comp.name).Inc()
			m.logger.Error("Component shutdown failed",
				zap.String("component", comp.name),
				zap.Duration("elapsed", time.Since(compStart)),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", comp.name, err))
			continue
		}

		m.logger.Info("Component shut down",
			zap.String("component", comp.name),
			zap.Duration("elapsed", time.Since(compStart)),
		)
	}

	elapsed := time.Since(start)
	shutdownDuration.Observe(elapsed.Seconds())

	if len(errs) > 0 {
		m.logger.Error("Graceful shutdown completed with errors",
			zap.Int("error_count", len(errs)),
			zap.Duration("elapsed", elapsed),
		)
		return errors.Join(errs...)
	}

	m.logger.Info("Graceful shutdown completed", zap.Duration("elapsed", elapsed))
	return nil
}
