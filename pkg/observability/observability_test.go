package observability

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/kevin07696/openpayu/pkg/errors"
)

func TestGatewayMetrics_RecordOperation(t *testing.T) {
	metrics := NewGatewayMetrics()

	success := openpayuOperationsTotal.WithLabelValues("OrderCreateRequest", "success", "OPENPAYU_SUCCESS")
	rejected := openpayuOperationsTotal.WithLabelValues("OrderCancelRequest", "rejected", "OPENPAYU_BUSINESS_ERROR")
	network := openpayuOperationErrors.WithLabelValues("OrderRetrieveRequest", "network_error")
	other := openpayuOperationErrors.WithLabelValues("OrderRetrieveRequest", "other")

	beforeSuccess := testutil.ToFloat64(success)
	beforeRejected := testutil.ToFloat64(rejected)
	beforeNetwork := testutil.ToFloat64(network)
	beforeOther := testutil.ToFloat64(other)

	metrics.RecordOperation("OrderCreateRequest", "OPENPAYU_SUCCESS", true, 120*time.Millisecond, nil)
	metrics.RecordOperation("OrderCancelRequest", "OPENPAYU_BUSINESS_ERROR", false, time.Second, nil)
	metrics.RecordOperation("OrderRetrieveRequest", "", false, time.Second,
		pkgerrors.NewGatewayError("OrderRetrieveRequest", pkgerrors.CategoryNetworkError, "failed", io.EOF))
	metrics.RecordOperation("OrderRetrieveRequest", "", false, time.Second, errors.New("parse"))

	assert.Equal(t, beforeSuccess+1, testutil.ToFloat64(success))
	assert.Equal(t, beforeRejected+1, testutil.ToFloat64(rejected))
	assert.Equal(t, beforeNetwork+1, testutil.ToFloat64(network))
	assert.Equal(t, beforeOther+1, testutil.ToFloat64(other))
}

func TestGatewayMetrics_RecordInbound(t *testing.T) {
	counter := openpayuInboundTotal.WithLabelValues("order_notify")
	before := testutil.ToFloat64(counter)

	NewGatewayMetrics().RecordInbound("order_notify")

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestHealthChecker(t *testing.T) {
	checker := NewHealthChecker()
	checker.Register("config", func(ctx context.Context) error { return nil })

	status := checker.Check(context.Background())
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "healthy", status.Checks["config"])

	checker.Register("circuit_breaker", func(ctx context.Context) error { return errors.New("circuit open") })
	status = checker.Check(context.Background())
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "unhealthy: circuit open", status.Checks["circuit_breaker"])
}

func TestHealthChecker_Handler(t *testing.T) {
	checker := NewHealthChecker()
	checker.Register("gateway", func(ctx context.Context) error { return errors.New("down") })

	recorder := httptest.NewRecorder()
	checker.HealthHandler()(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	var status HealthStatus
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &status))
	assert.Equal(t, "unhealthy", status.Status)
}

func TestMetricsMux(t *testing.T) {
	server := httptest.NewServer(NewMetricsMux(NewHealthChecker()))
	defer server.Close()

	for _, path := range []string{"/metrics", "/health", "/ready"} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	counter := httpRequestsTotal.WithLabelValues("/test/notify", "202")
	before := testutil.ToFloat64(counter)

	handler := HTTPMetricsMiddleware("/test/notify")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/test/notify", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
