package errors

import (
	stderrors "errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGatewayError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *GatewayError
		want string
	}{
		{
			name: "network error with cause",
			err:  NewGatewayError("OrderCreateRequest", CategoryNetworkError, "failed to send document", io.ErrUnexpectedEOF),
			want: "OrderCreateRequest: failed to send document (network_error): unexpected EOF",
		},
		{
			name: "http status without cause",
			err: &GatewayError{
				Operation:  "OrderCancelRequest",
				Category:   CategoryHTTPStatus,
				Message:    "unexpected response status",
				HTTPStatus: 503,
			},
			want: "OrderCancelRequest: unexpected response status (http_status) [http 503]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestGatewayError_Unwrap(t *testing.T) {
	err := NewGatewayError("OrderRetrieveRequest", CategoryNetworkError, "failed", io.EOF)

	assert.True(t, stderrors.Is(err, io.EOF))

	var gwErr *GatewayError
	wrapped := stderrors.Join(stderrors.New("outer"), err)
	assert.True(t, stderrors.As(wrapped, &gwErr))
	assert.Equal(t, CategoryNetworkError, gwErr.Category)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("SessionId", "session id is required")
	assert.Equal(t, "validation error on field 'SessionId': session id is required", err.Error())
}
