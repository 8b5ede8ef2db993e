package shutdown

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// InFlightTracker tracks webhook requests so shutdown waits for acknowledgements
// already being written
type InFlightTracker struct {
	mu           sync.Mutex
	wg           sync.WaitGroup
	shuttingDown bool
	logger       *zap.Logger
	name         string
}

// NewInFlightTracker creates a new in-flight work tracker
func NewInFlightTracker(name string, logger *zap.Logger) *InFlightTracker {
	return &InFlightTracker{
		logger: logger,
		name:   name,
	}
}

// Add registers one unit of work. It returns false once shutdown has started.
func (t *InFlightTracker) Add() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.shuttingDown {
		return false
	}
	t.wg.Add(1)
	return true
}

// Done marks one unit of work as finished
func (t *InFlightTracker) Done() {
	t.wg.Done()
}

// IsShuttingDown reports whether Shutdown has been called
func (t *InFlightTracker) IsShuttingDown() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shuttingDown
}

// Shutdown rejects new work and waits for in-flight work or ctx expiry
func (t *InFlightTracker) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	t.shuttingDown = true
	t.mu.Unlock()

	t.logger.Info("Waiting for in-flight work to complete",
		zap.String("tracker", t.name),
	)

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("All in-flight work completed",
			zap.String("tracker", t.name),
		)
		return nil
	case <-ctx.Done():
		t.logger.Warn("Shutdown timeout - some work may be incomplete",
			zap.String("tracker", t.name),
		)
		return ctx.Err()
	}
}

// Middleware answers 503 once shutdown has started so the provider redelivers
// the notification later
func (t *InFlightTracker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.Add() {
			w.Header().Set("Connection", "close")
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
			return
		}
		defer t.Done()

		next.ServeHTTP(w, r)
	})
}
