package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pkgmiddleware "github.com/kevin07696/openpayu/pkg/middleware"
	"github.com/kevin07696/openpayu/pkg/shutdown"
)

func TestRouter(t *testing.T) {
	rateLimiter := pkgmiddleware.NewRateLimiter(100, 100, zap.NewNop())
	defer rateLimiter.Shutdown()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Panic") != "" {
			panic("boom")
		}
		w.WriteHeader(http.StatusOK)
	})
	router := newRouter(handler, rateLimiter, shutdown.NewInFlightTracker("test", zap.NewNop()), true, zap.NewNop())

	tests := []struct {
		name   string
		method string
		path   string
		panic  bool
		status int
	}{
		{"notification", http.MethodPost, notifyPath, false, http.StatusOK},
		{"wrong method", http.MethodGet, notifyPath, false, http.StatusMethodNotAllowed},
		{"unknown path", http.MethodPost, "/other", false, http.StatusNotFound},
		{"panic", http.MethodPost, notifyPath, true, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.panic {
				req.Header.Set("X-Panic", "1")
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestWaitForExit_ServerFailure(t *testing.T) {
	listenErr := errors.New("listen tcp :8080: bind: address already in use")

	var stopped bool
	manager := shutdown.NewManager(zap.NewNop(), time.Second)
	manager.RegisterNoErr("component", func() { stopped = true })

	serverErr := make(chan error, 1)
	serverErr <- listenErr

	err := waitForExit(context.Background(), manager, serverErr, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, listenErr)
	assert.True(t, stopped)
}

func TestWaitForExit_ContextCancelled(t *testing.T) {
	var stopped bool
	manager := shutdown.NewManager(zap.NewNop(), time.Second)
	manager.RegisterNoErr("component", func() { stopped = true })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := waitForExit(ctx, manager, make(chan error), zap.NewNop())
	assert.NoError(t, err)
	assert.True(t, stopped)
}
