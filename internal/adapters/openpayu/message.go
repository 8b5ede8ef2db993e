package openpayu

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/kevin07696/openpayu/internal/adapters/ports"
)

// Inbound message tags under OpenPayU/OrderDomainRequest
const (
	TagOrderNotifyRequest          = "OrderNotifyRequest"
	TagShippingCostRetrieveRequest = "ShippingCostRetrieveRequest"

	opOrderNotifyResponse = "OrderNotifyResponse"
)

// MessageKind identifies the variant of an inbound message
type MessageKind int

const (
	KindUnknown MessageKind = iota
	KindOrderNotify
	KindShippingCostRetrieve
)

func (k MessageKind) String() string {
	switch k {
	case KindOrderNotify:
		return "order_notify"
	case KindShippingCostRetrieve:
		return "shipping_cost_retrieve"
	default:
		return "unknown"
	}
}

func kindForTag(tag string) MessageKind {
	switch tag {
	case TagOrderNotifyRequest:
		return KindOrderNotify
	case TagShippingCostRetrieveRequest:
		return KindShippingCostRetrieve
	default:
		return KindUnknown
	}
}

// InboundMessage is a decoded provider push, classified once at parse time
type InboundMessage struct {
	Kind MessageKind
	// Tag is the element name under OrderDomainRequest
	Tag string
	// Document is the whole parsed message
	Document Document
	// Body is the element named Tag
	Body Document
	// XML is the decoded payload
	XML string
}

// Field returns a leaf of the message body
func (m *InboundMessage) Field(name string) string {
	return m.Body.String(name)
}

// Consumed is the outcome of ConsumeMessage. Result is nil for KindUnknown.
type Consumed struct {
	Kind   MessageKind
	Tag    string
	Result *Result
}

// DecodePayload reverses the URL encoding and backslash escaping the provider
// applies to pushed documents.
func DecodePayload(payload string) (string, error) {
	decoded, err := url.QueryUnescape(payload)
	if err != nil {
		return "", fmt.Errorf("failed to decode message payload: %w", err)
	}
	return stripSlashes(decoded), nil
}

// stripSlashes drops each escaping backslash; "\\" becomes "\"
func stripSlashes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for _, r := range s {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

// ParseInboundMessage parses a decoded payload and classifies it
func ParseInboundMessage(xmlPayload string) (*InboundMessage, error) {
	doc, err := ParseDocument([]byte(xmlPayload))
	if err != nil {
		return nil, err
	}

	domain, ok := doc.Lookup(rootElement, orderDomainRequest)
	if !ok {
		return nil, fmt.Errorf("message has no %s/%s element", rootElement, orderDomainRequest)
	}
	requests, ok := domain.(Document)
	if !ok || len(requests) == 0 {
		return nil, fmt.Errorf("message has an empty %s", orderDomainRequest)
	}
	if len(requests) > 1 {
		tags := make([]string, 0, len(requests))
		for tag := range requests {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		return nil, fmt.Errorf("message carries more than one request: %s", strings.Join(tags, ", "))
	}

	msg := &InboundMessage{Document: doc, XML: xmlPayload}
	for tag, body := range requests {
		msg.Tag = tag
		msg.Kind = kindForTag(tag)
		msg.Body, _ = body.(Document)
	}
	if msg.Body == nil {
		msg.Body = Document{}
	}
	return msg, nil
}

// ConsumeMessage decodes a provider push and dispatches it by kind.
//
// An OrderNotifyRequest is acknowledged; when w is non-nil the acknowledgement
// is written to it as text/xml. A ShippingCostRetrieveRequest is surfaced
// without writing anything. Any other request returns Consumed{Kind: KindUnknown}
// carrying the tag, with a nil error.
//
// The inbound signature is not verified here; see VerifySignature.
func (c *OrderClient) ConsumeMessage(ctx context.Context, payload string, w http.ResponseWriter, opts ...CallOption) (*Consumed, error) {
	callOpts := applyCallOptions(opts)

	xmlPayload, err := DecodePayload(payload)
	if err != nil {
		return nil, err
	}

	msg, err := ParseInboundMessage(xmlPayload)
	if err != nil {
		c.logger.Error("Failed to parse OpenPayU message",
			ports.Int("payload_length", len(payload)),
			ports.Err(err),
		)
		return nil, err
	}

	c.metrics.RecordInbound(msg.Kind.String())
	dbg := debugSink{operation: msg.Tag, enabled: callOpts.debug, observer: c.observer}

	switch msg.Kind {
	case KindOrderNotify:
		result, err := c.consumeNotification(ctx, msg, w, dbg)
		if err != nil {
			return nil, err
		}
		return &Consumed{Kind: msg.Kind, Tag: msg.Tag, Result: result}, nil
	case KindShippingCostRetrieve:
		return &Consumed{Kind: msg.Kind, Tag: msg.Tag, Result: c.consumeShippingCostRetrieveRequest(msg, dbg)}, nil
	default:
		c.logger.Warn("Unhandled OpenPayU message",
			ports.String("tag", msg.Tag),
		)
		return &Consumed{Kind: KindUnknown, Tag: msg.Tag}, nil
	}
}

// BuildOrderNotifyResponse builds the acknowledgement for a notification
func BuildOrderNotifyResponse(reqID string) ([]byte, error) {
	return BuildResponseDocument(opOrderNotifyResponse, Fields{
		{Key: "ResId", Value: reqID},
		{Key: "Status", Value: Fields{
			{Key: "StatusCode", Value: StatusSuccess},
		}},
	})
}

func (c *OrderClient) consumeNotification(ctx context.Context, msg *InboundMessage, w http.ResponseWriter, dbg debugSink) (*Result, error) {
	dbg.emit(DebugRequest, msg.XML)

	reqID := msg.Field("ReqId")
	sessionID := msg.Field("SessionId")

	c.logger.Info("Received OpenPayU order notification",
		ports.String("req_id", reqID),
		ports.String("session_id", sessionID),
	)

	ack, err := BuildOrderNotifyResponse(reqID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opOrderNotifyResponse, err)
	}
	dbg.emit(DebugResponse, string(ack))

	if w != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w.Header().Set("Content-Type", "text/xml")
		if _, err := w.Write(ack); err != nil {
			c.logger.Error("Failed to write OpenPayU notification acknowledgement",
				ports.String("req_id", reqID),
				ports.Err(err),
			)
			return nil, fmt.Errorf("failed to write acknowledgement: %w", err)
		}
	}

	return &Result{
		Status:    Status{"StatusCode": StatusSuccess},
		Error:     StatusSuccess,
		Message:   stringPtr(TagOrderNotifyRequest),
		Success:   true,
		Request:   msg.Document,
		Response:  string(ack),
		SessionID: sessionID,
		ReqID:     reqID,
	}, nil
}

func (c *OrderClient) consumeShippingCostRetrieveRequest(msg *InboundMessage, dbg debugSink) *Result {
	dbg.emit(DebugRequest, msg.XML)

	result := &Result{
		Message:     stringPtr(TagShippingCostRetrieveRequest),
		Request:     msg.Document,
		SessionID:   msg.Field("SessionId"),
		ReqID:       msg.Field("ReqId"),
		CountryCode: msg.Field("CountryCode"),
	}

	c.logger.Info("Received OpenPayU shipping cost request",
		ports.String("req_id", result.ReqID),
		ports.String("session_id", result.SessionID),
		ports.String("country_code", result.CountryCode),
	)

	return result
}
