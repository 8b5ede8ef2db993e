package observability

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	pkgerrors "github.com/kevin07696/openpayu/pkg/errors"
)

var (
	// OpenPayU order operation metrics
	openpayuOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openpayu_operations_total",
		Help: "Total OpenPayU order operations",
	}, []string{
		"operation",   // OrderCreateRequest, OrderRetrieveRequest, ...
		"outcome",     // success, rejected, error
		"status_code", // OPENPAYU_SUCCESS, OPENPAYU_ERROR_VALUE_INVALID, ... (empty on error)
	})

	openpayuOperationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openpayu_operation_errors_total",
		Help: "OpenPayU operations that failed locally, by error category",
	}, []string{
		"operation",
		"category", // network_error, http_status, circuit_open, authentication, protocol_error
	})

	openpayuOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "openpayu_operation_duration_seconds",
		Help: "Time to complete an OpenPayU operation including the OAuth exchange",
		// Buckets: 100ms to 30s
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{
		"operation",
	})

	// Inbound message metrics
	openpayuInboundTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openpayu_inbound_messages_total",
		Help: "Total provider pushed messages by kind",
	}, []string{
		"kind", // order_notify, shipping_cost_retrieve, unknown
	})

	notificationRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openpayu_notification_requests_total",
		Help: "Webhook requests handled by the notification endpoint",
	}, []string{
		"status", // acknowledged, forwarded, unhandled, rejected, failed
	})

	signatureVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openpayu_signature_verifications_total",
		Help: "Inbound signature verification results",
	}, []string{
		"result", // valid, invalid
	})
)

// GatewayMetrics records OpenPayU client metrics in Prometheus
type GatewayMetrics struct{}

// NewGatewayMetrics returns the Prometheus backed recorder
func NewGatewayMetrics() *GatewayMetrics {
	return &GatewayMetrics{}
}

// RecordOperation records the outcome of one order operation
func (GatewayMetrics) RecordOperation(operation, statusCode string, success bool, duration time.Duration, err error) {
	outcome := "rejected"
	switch {
	case err != nil:
		outcome = "error"
		category := "other"
		var gwErr *pkgerrors.GatewayError
		if errors.As(err, &gwErr) {
			category = string(gwErr.Category)
		}
		openpayuOperationErrors.WithLabelValues(operation, category).Inc()
	case success:
		outcome = "success"
	}

	openpayuOperationsTotal.WithLabelValues(operation, outcome, statusCode).Inc()
	openpayuOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordInbound records a consumed provider message
func (GatewayMetrics) RecordInbound(kind string) {
	openpayuInboundTotal.WithLabelValues(kind).Inc()
}

// RecordNotificationRequest records how the webhook endpoint handled a request
func RecordNotificationRequest(status string) {
	notificationRequestsTotal.WithLabelValues(status).Inc()
}

// RecordSignatureVerification records an inbound signature check
func RecordSignatureVerification(valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	signatureVerificationsTotal.WithLabelValues(result).Inc()
}
