package errors

import (
	"fmt"
)

// ErrorCategory represents the category of error for handling
type ErrorCategory string

const (
	CategoryNetworkError   ErrorCategory = "network_error"
	CategoryHTTPStatus     ErrorCategory = "http_status"
	CategoryProtocolError  ErrorCategory = "protocol_error"
	CategoryCircuitOpen    ErrorCategory = "circuit_open"
	CategoryAuthentication ErrorCategory = "authentication"
	CategoryInvalidRequest ErrorCategory = "invalid_request"
)

// GatewayError represents a local fault while talking to the OpenPayU service.
// Provider outcomes (StatusCode values) are never reported through this type.
type GatewayError struct {
	Operation  string
	Category   ErrorCategory
	Message    string
	HTTPStatus int
	Err        error
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("%s: %s (%s)", e.Operation, e.Message, e.Category)
	if e.HTTPStatus != 0 {
		msg = fmt.Sprintf("%s [http %d]", msg, e.HTTPStatus)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NewGatewayError creates a new gateway error
func NewGatewayError(operation string, category ErrorCategory, message string, err error) *GatewayError {
	return &GatewayError{
		Operation: operation,
		Category:  category,
		Message:   message,
		Err:       err,
	}
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
