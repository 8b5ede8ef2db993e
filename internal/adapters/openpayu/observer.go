package openpayu

import (
	"github.com/kevin07696/openpayu/internal/adapters/ports"
)

// Observer receives the intermediate artifacts of an operation when debug is
// enabled for that call. It never influences the returned Result.
type Observer interface {
	Observe(operation, label, value string)
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(operation, label, value string)

// Observe implements Observer
func (f ObserverFunc) Observe(operation, label, value string) {
	f(operation, label, value)
}

// LoggerObserver writes debug artifacts to a logger at debug level
type LoggerObserver struct {
	Logger ports.Logger
}

// Observe implements Observer
func (o LoggerObserver) Observe(operation, label, value string) {
	o.Logger.Debug("OpenPayU "+label,
		ports.String("operation", operation),
		ports.String(label, value),
	)
}

// Debug labels passed to Observer
const (
	DebugEndpoint   = "endpoint"
	DebugRequest    = "request"
	DebugResponse   = "response"
	DebugStatus     = "status"
	DebugParseError = "parse_error"
)

// CallOption configures a single operation call
type CallOption func(*callOptions)

type callOptions struct {
	debug bool
}

// WithDebug sends intermediate artifacts of the call to the client's Observer
func WithDebug(debug bool) CallOption {
	return func(o *callOptions) {
		o.debug = debug
	}
}

func applyCallOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// debugSink forwards to the observer only when debug is on for the call
type debugSink struct {
	operation string
	enabled   bool
	observer  Observer
}

func (d debugSink) emit(label, value string) {
	if !d.enabled {
		return
	}
	d.observer.Observe(d.operation, label, value)
}
