package openpayu

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kevin07696/openpayu/internal/adapters/ports"
	"github.com/kevin07696/openpayu/pkg/timeutil"
)

// OpenPayU order domain operations
const (
	OpOrderCreate       = "OrderCreateRequest"
	OpOrderRetrieve     = "OrderRetrieveRequest"
	OpOrderCancel       = "OrderCancelRequest"
	OpOrderStatusUpdate = "OrderStatusUpdateRequest"
)

type parsePolicy int

const (
	// parseFailurePropagates returns the parse error to the caller
	parseFailurePropagates parsePolicy = iota
	// parseFailureKeepsRawBody leaves Result.Response as the raw body
	parseFailureKeepsRawBody
)

// parsePolicies decides what a malformed final response does per operation.
// Only retrieve recovers; the others fail the call.
var parsePolicies = map[string]parsePolicy{
	OpOrderCreate:       parseFailurePropagates,
	OpOrderRetrieve:     parseFailureKeepsRawBody,
	OpOrderCancel:       parseFailurePropagates,
	OpOrderStatusUpdate: parseFailurePropagates,
}

// DocumentSender signs and delivers a request document, returning the response document
type DocumentSender interface {
	Send(ctx context.Context, operation, endpoint string, document []byte) ([]byte, error)
}

// Metrics records operation outcomes. pkg/observability provides the
// Prometheus implementation.
type Metrics interface {
	RecordOperation(operation, statusCode string, success bool, duration time.Duration, err error)
	RecordInbound(kind string)
}

type nopMetrics struct{}

func (nopMetrics) RecordOperation(string, string, bool, time.Duration, error) {}
func (nopMetrics) RecordInbound(string)                                       {}

// ClientOption configures an OrderClient
type ClientOption func(*OrderClient)

// WithObserver sets where debug artifacts go for calls made WithDebug(true).
// Defaults to a LoggerObserver over the client's logger.
func WithObserver(observer Observer) ClientOption {
	return func(c *OrderClient) {
		c.observer = observer
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(metrics Metrics) ClientOption {
	return func(c *OrderClient) {
		c.metrics = metrics
	}
}

// WithClock overrides the clock used for status update timestamps
func WithClock(now func() time.Time) ClientOption {
	return func(c *OrderClient) {
		c.now = now
	}
}

// WithRequestIDGenerator overrides ReqId generation
func WithRequestIDGenerator(gen func() string) ClientOption {
	return func(c *OrderClient) {
		c.newReqID = gen
	}
}

// OrderClient runs OpenPayU order operations for one merchant point of sale.
// It is safe for concurrent use.
type OrderClient struct {
	config   Config
	sender   DocumentSender
	tokens   ports.TokenSource
	logger   ports.Logger
	observer Observer
	metrics  Metrics
	now      func() time.Time
	newReqID func() string
}

// NewOrderClient creates an order client with dependency injection.
// tokens may be nil when only Create and ConsumeMessage are used.
func NewOrderClient(config Config, sender DocumentSender, tokens ports.TokenSource, logger ports.Logger, opts ...ClientOption) (*OrderClient, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid openpayu config: %w", err)
	}
	if sender == nil {
		return nil, fmt.Errorf("document sender is required")
	}
	if logger == nil {
		logger = ports.NopLogger{}
	}

	c := &OrderClient{
		config:   config,
		sender:   sender,
		tokens:   tokens,
		logger:   logger,
		metrics:  nopMetrics{},
		now:      timeutil.Now,
		newReqID: NewReqID,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.observer == nil {
		c.observer = LoggerObserver{Logger: logger}
	}

	return c, nil
}

// NewReqID returns a random 32 character hex request id
func NewReqID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// Create sends an OrderCreateRequest built from order.
// Result.Request is order and Result.Response is the parsed response document.
func (c *OrderClient) Create(ctx context.Context, order Fields, opts ...CallOption) (*Result, error) {
	return c.call(ctx, OpOrderCreate, order, false, applyCallOptions(opts))
}

// Retrieve fetches the order for sessionID. A response that cannot be fully
// parsed is returned as the raw body string instead of failing the call.
func (c *OrderClient) Retrieve(ctx context.Context, sessionID string, opts ...CallOption) (*Result, error) {
	return c.call(ctx, OpOrderRetrieve, c.sessionRequest(sessionID), true, applyCallOptions(opts))
}

// Cancel cancels the order for sessionID
func (c *OrderClient) Cancel(ctx context.Context, sessionID string, opts ...CallOption) (*Result, error) {
	return c.call(ctx, OpOrderCancel, c.sessionRequest(sessionID), true, applyCallOptions(opts))
}

// UpdateStatus moves the order for sessionID to status (e.g. COMPLETED)
func (c *OrderClient) UpdateStatus(ctx context.Context, sessionID, status string, opts ...CallOption) (*Result, error) {
	req := append(c.sessionRequest(sessionID),
		Field{Key: "OrderStatus", Value: status},
		Field{Key: "Timestamp", Value: timeutil.ISO8601(c.now())},
	)
	return c.call(ctx, OpOrderStatusUpdate, req, true, applyCallOptions(opts))
}

func (c *OrderClient) sessionRequest(sessionID string) Fields {
	return Fields{
		{Key: "ReqId", Value: c.newReqID()},
		{Key: "MerchantPosId", Value: c.config.MerchantPosID},
		{Key: "SessionId", Value: sessionID},
	}
}

// call runs one operation: optional token fetch, build, send, status, parse
func (c *OrderClient) call(ctx context.Context, operation string, request Fields, needsToken bool, opts callOptions) (result *Result, err error) {
	dbg := debugSink{operation: operation, enabled: opts.debug, observer: c.observer}
	startTime := time.Now()

	defer func() {
		var statusCode string
		var success bool
		if result != nil {
			statusCode, success = result.Error, result.Success
		}
		c.metrics.RecordOperation(operation, statusCode, success, time.Since(startTime), err)
	}()

	endpoint := c.config.Endpoint(operation)
	dbg.emit(DebugEndpoint, endpoint)

	if needsToken {
		if c.tokens == nil {
			return nil, fmt.Errorf("%s: oauth token source is not configured", operation)
		}
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return nil, err
		}
		endpoint += "?oauth_token=" + url.QueryEscape(token)
	}

	document, err := BuildRequestDocument(operation, request)
	if err != nil {
		return nil, err
	}
	dbg.emit(DebugRequest, string(document))

	c.logger.Info("Processing OpenPayU operation",
		ports.String("operation", operation),
		ports.String("session_id", request.GetString("SessionId")),
		ports.String("req_id", request.GetString("ReqId")),
	)

	body, err := c.sender.Send(ctx, operation, endpoint, document)
	if err != nil {
		return nil, err
	}
	dbg.emit(DebugResponse, string(body))

	status, err := ExtractStatus(body)
	if err != nil {
		c.logger.Error("Failed to read OpenPayU response status",
			ports.String("operation", operation),
			ports.Err(err),
		)
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	dbg.emit(DebugStatus, status.String())

	result = newStatusResult(status)
	result.Request = request
	result.Response = string(body)

	parsed, err := ParseDocument(body)
	if err != nil {
		if parsePolicies[operation] == parseFailureKeepsRawBody {
			dbg.emit(DebugParseError, err.Error())
			c.logger.Warn("OpenPayU response kept unparsed",
				ports.String("operation", operation),
				ports.Err(err),
			)
			return result, nil
		}
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	result.Response = parsed

	c.logger.Info("OpenPayU operation completed",
		ports.String("operation", operation),
		ports.String("status_code", result.Error),
		ports.Bool("success", result.Success),
	)

	return result, nil
}
