package openpayu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kevin07696/openpayu/internal/adapters/ports"
	pkgerrors "github.com/kevin07696/openpayu/pkg/errors"
)

// maxResponseSize bounds how much of a response body is read
const maxResponseSize = 4 << 20

// Transport signs OpenPayU documents and POSTs them to the service.
// It performs exactly one attempt per Send.
type Transport struct {
	httpClient    ports.HTTPClient
	merchantPosID string
	signatureKey  string
	algorithm     Algorithm
	breaker       *CircuitBreaker
	logger        ports.Logger
}

// NewTransport creates a transport for the merchant in cfg.
// breaker may be nil to disable circuit breaking.
func NewTransport(cfg Config, httpClient ports.HTTPClient, breaker *CircuitBreaker, logger ports.Logger) *Transport {
	if logger == nil {
		logger = ports.NopLogger{}
	}

	return &Transport{
		httpClient:    httpClient,
		merchantPosID: cfg.MerchantPosID,
		signatureKey:  cfg.SignatureKey,
		algorithm:     cfg.algorithm(),
		breaker:       breaker,
		logger:        logger,
	}
}

// Send signs document, posts it as the DOCUMENT form field to endpoint and
// returns the raw response document.
func (t *Transport) Send(ctx context.Context, operation, endpoint string, document []byte) ([]byte, error) {
	authHeader, err := BuildSignatureHeader(document, t.merchantPosID, t.signatureKey, t.algorithm)
	if err != nil {
		return nil, pkgerrors.NewGatewayError(operation, pkgerrors.CategoryInvalidRequest, "failed to sign document", err)
	}

	form := "DOCUMENT=" + url.QueryEscape(string(document))

	var body []byte
	send := func() error {
		body, err = t.post(ctx, operation, endpoint, form, authHeader)
		return err
	}

	if t.breaker == nil {
		if err := send(); err != nil {
			return nil, err
		}
		return body, nil
	}

	err = t.breaker.Call(send, isTransportFailure)
	if errors.Is(err, ErrCircuitOpen) {
		t.logger.Warn("Circuit breaker is open, rejecting OpenPayU request",
			ports.String("operation", operation),
			ports.String("circuit_state", t.breaker.State().String()),
		)
		return nil, pkgerrors.NewGatewayError(operation, pkgerrors.CategoryCircuitOpen, "service unavailable", err)
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (t *Transport) post(ctx context.Context, operation, endpoint, form, authHeader string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form))
	if err != nil {
		return nil, pkgerrors.NewGatewayError(operation, pkgerrors.CategoryInvalidRequest, "failed to create request", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(SignatureHeader, authHeader)

	t.logger.Info("Sending OpenPayU document",
		ports.String("operation", operation),
		ports.Int("document_length", len(form)),
	)

	startTime := time.Now()
	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.Error("Failed to send OpenPayU document",
			ports.String("operation", operation),
			ports.Duration("elapsed", time.Since(startTime)),
			ports.Err(err),
		)
		return nil, pkgerrors.NewGatewayError(operation, pkgerrors.CategoryNetworkError, "failed to send document", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, pkgerrors.NewGatewayError(operation, pkgerrors.CategoryNetworkError, "failed to read response", err)
	}

	t.logger.Info("Received OpenPayU response",
		ports.String("operation", operation),
		ports.Int("status_code", resp.StatusCode),
		ports.Duration("elapsed", time.Since(startTime)),
		ports.Int("body_length", len(body)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gwErr := pkgerrors.NewGatewayError(operation, pkgerrors.CategoryHTTPStatus, "unexpected response status", nil)
		gwErr.HTTPStatus = resp.StatusCode
		return nil, gwErr
	}

	return unwrapDocument(body), nil
}

// unwrapDocument accepts both a bare XML body and a DOCUMENT=<urlencoded> body
func unwrapDocument(body []byte) []byte {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "DOCUMENT=") {
		return body
	}

	values, err := url.ParseQuery(trimmed)
	if err != nil || values.Get("DOCUMENT") == "" {
		return body
	}
	return []byte(values.Get("DOCUMENT"))
}

// isTransportFailure limits the breaker to network faults and 5xx responses
func isTransportFailure(err error) bool {
	var gwErr *pkgerrors.GatewayError
	if !errors.As(err, &gwErr) {
		return true
	}
	switch gwErr.Category {
	case pkgerrors.CategoryNetworkError:
		return true
	case pkgerrors.CategoryHTTPStatus:
		return gwErr.HTTPStatus >= 500
	default:
		return false
	}
}

// String is used in debug output
func (t *Transport) String() string {
	return fmt.Sprintf("openpayu transport (sender=%s, algorithm=%s)", t.merchantPosID, t.algorithm)
}
