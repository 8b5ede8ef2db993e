package notification

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/kevin07696/openpayu/internal/adapters/openpayu"
	"github.com/kevin07696/openpayu/pkg/observability"
)

// maxPayloadSize bounds a pushed OpenPayU document
const maxPayloadSize = 1 << 20

// MessageConsumer dispatches decoded provider messages
type MessageConsumer interface {
	ConsumeMessage(ctx context.Context, payload string, w http.ResponseWriter, opts ...openpayu.CallOption) (*openpayu.Consumed, error)
}

// NotificationSink receives acknowledged order notifications
type NotificationSink interface {
	OrderNotified(ctx context.Context, result *openpayu.Result) error
}

// ShippingCostProvider quotes shipping for a ShippingCostRetrieveRequest
type ShippingCostProvider interface {
	ShippingCosts(ctx context.Context, countryCode, sessionID string) ([]openpayu.ShippingCost, error)
}

// Options configures optional handler behavior
type Options struct {
	// Verify the OpenPayu-Signature header against the signature key
	VerifySignature bool
	SignatureKey    string

	// Send debug artifacts of each message to the client's observer
	Debug bool

	Sink     NotificationSink
	Shipping ShippingCostProvider
}

// Handler receives OpenPayU pushes on the merchant notification URL
type Handler struct {
	consumer MessageConsumer
	logger   *zap.Logger
	opts     Options
}

// NewHandler creates a new notification handler
func NewHandler(consumer MessageConsumer, logger *zap.Logger, opts Options) *Handler {
	return &Handler{
		consumer: consumer,
		logger:   logger,
		opts:     opts,
	}
}

// ServeHTTP handles POST /openpayu/notify
// The document arrives either as the DOCUMENT form field or as the raw body.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.logger.Warn("Notification endpoint received non-POST request",
			zap.String("method", r.Method),
		)
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadSize))
	if err != nil {
		h.logger.Warn("Failed to read notification body", zap.Error(err))
		observability.RecordNotificationRequest("rejected")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	payload := extractDocument(string(body))
	if payload == "" {
		observability.RecordNotificationRequest("rejected")
		http.Error(w, "missing DOCUMENT", http.StatusBadRequest)
		return
	}

	if h.opts.VerifySignature && !h.verify(r, payload) {
		observability.RecordNotificationRequest("rejected")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	consumed, err := h.consumer.ConsumeMessage(r.Context(), payload, w, openpayu.WithDebug(h.opts.Debug))
	if err != nil {
		h.logger.Error("Failed to consume OpenPayU message", zap.Error(err))
		observability.RecordNotificationRequest("failed")
		http.Error(w, "invalid OpenPayU message", http.StatusBadRequest)
		return
	}

	switch consumed.Kind {
	case openpayu.KindOrderNotify:
		h.notify(r.Context(), consumed.Result)
		observability.RecordNotificationRequest("acknowledged")

	case openpayu.KindShippingCostRetrieve:
		h.replyShippingCost(r.Context(), w, consumed.Result)

	default:
		h.logger.Warn("Unhandled OpenPayU message",
			zap.String("tag", consumed.Tag),
		)
		observability.RecordNotificationRequest("unhandled")
		w.WriteHeader(http.StatusAccepted)
	}
}

// verify checks the signature header against the decoded document
func (h *Handler) verify(r *http.Request, payload string) bool {
	document, err := openpayu.DecodePayload(payload)
	if err == nil {
		err = openpayu.VerifySignature(r.Header.Get(openpayu.SignatureHeader), []byte(document), h.opts.SignatureKey)
	}

	observability.RecordSignatureVerification(err == nil)
	if err != nil {
		h.logger.Warn("Rejected notification with invalid signature",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return false
	}
	return true
}

// notify hands the acknowledged notification to the sink. The ack is already
// written, so a sink failure is only logged.
func (h *Handler) notify(ctx context.Context, result *openpayu.Result) {
	h.logger.Info("Order notification acknowledged",
		zap.String("session_id", result.SessionID),
		zap.String("req_id", result.ReqID),
	)

	if h.opts.Sink == nil {
		return
	}
	if err := h.opts.Sink.OrderNotified(ctx, result); err != nil {
		h.logger.Error("Notification sink failed",
			zap.String("session_id", result.SessionID),
			zap.Error(err),
		)
	}
}

func (h *Handler) replyShippingCost(ctx context.Context, w http.ResponseWriter, result *openpayu.Result) {
	if h.opts.Shipping == nil {
		h.logger.Info("Shipping cost request received without a provider",
			zap.String("session_id", result.SessionID),
			zap.String("country_code", result.CountryCode),
		)
		observability.RecordNotificationRequest("forwarded")
		w.WriteHeader(http.StatusAccepted)
		return
	}

	costs, err := h.opts.Shipping.ShippingCosts(ctx, result.CountryCode, result.SessionID)
	if err != nil {
		h.logger.Error("Failed to quote shipping cost",
			zap.String("session_id", result.SessionID),
			zap.Error(err),
		)
		observability.RecordNotificationRequest("failed")
		http.Error(w, "shipping cost unavailable", http.StatusInternalServerError)
		return
	}

	doc, err := openpayu.BuildShippingCostRetrieveResponse(result.ReqID, result.CountryCode, costs)
	if err != nil {
		h.logger.Error("Failed to build shipping cost response",
			zap.String("session_id", result.SessionID),
			zap.Error(err),
		)
		observability.RecordNotificationRequest("failed")
		http.Error(w, "shipping cost unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/xml")
	if _, err := w.Write(doc); err != nil {
		h.logger.Error("Failed to write shipping cost response", zap.Error(err))
	}
	observability.RecordNotificationRequest("acknowledged")
}

// extractDocument returns the still encoded DOCUMENT form value, or the whole
// body when it is not form encoded. A bare XML body is encoded here so that
// ConsumeMessage decodes every payload the same way.
func extractDocument(body string) string {
	body = strings.TrimSpace(body)
	if strings.HasPrefix(body, "<") {
		return url.QueryEscape(body)
	}
	for _, pair := range strings.Split(body, "&") {
		if value, ok := strings.CutPrefix(pair, "DOCUMENT="); ok {
			return value
		}
	}
	if strings.Contains(body, "=") && !strings.Contains(body, "<") && !strings.Contains(body, "%3C") {
		return ""
	}
	return body
}
