package openpayu

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/kevin07696/openpayu/pkg/errors"
	"github.com/kevin07696/openpayu/test/mocks"
)

const testDocument = `<?xml version="1.0" encoding="UTF-8"?>
<OpenPayU><OrderDomainRequest><OrderCreateRequest><ReqId>r1</ReqId></OrderCreateRequest></OrderDomainRequest></OpenPayU>`

func testConfig(serviceURL string) Config {
	return Config{
		ServiceURL:        serviceURL,
		MerchantPosID:     "145227",
		SignatureKey:      "13a980d4f851f3d9a1cfc792fb1f5e50",
		Algorithm:         AlgorithmMD5,
		OAuthClientID:     "145227",
		OAuthClientSecret: "12f071174cb7eb79d4aac5bc2f07563f",
		Timeout:           5 * time.Second,
	}
}

func TestTransport_Send(t *testing.T) {
	cfg := testConfig("https://sandbox.payu.pl/")
	var form url.Values

	httpClient := mocks.NewMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))

		expectedHeader, err := BuildSignatureHeader([]byte(testDocument), cfg.MerchantPosID, cfg.SignatureKey, AlgorithmMD5)
		require.NoError(t, err)
		assert.Equal(t, expectedHeader, req.Header.Get(SignatureHeader))

		body, _ := io.ReadAll(req.Body)
		form, err = url.ParseQuery(string(body))
		require.NoError(t, err)

		return mocks.XMLResponse(http.StatusOK, mocks.DefaultStatusResponse), nil
	})

	transport := NewTransport(cfg, httpClient, nil, mocks.NewMockLogger())
	body, err := transport.Send(context.Background(), OpOrderCreate, cfg.Endpoint(OpOrderCreate), []byte(testDocument))

	require.NoError(t, err)
	assert.Equal(t, mocks.DefaultStatusResponse, string(body))
	assert.Equal(t, testDocument, form.Get("DOCUMENT"))
	assert.Equal(t, "https://sandbox.payu.pl/co/openpayu/OrderCreateRequest", httpClient.Calls[0].URL.String())
}

func TestTransport_Send_FormEncodedResponse(t *testing.T) {
	encoded := "DOCUMENT=" + url.QueryEscape(mocks.DefaultStatusResponse)
	httpClient := mocks.NewMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return mocks.XMLResponse(http.StatusOK, encoded), nil
	})

	transport := NewTransport(testConfig("https://sandbox.payu.pl/"), httpClient, nil, nil)
	body, err := transport.Send(context.Background(), OpOrderCreate, "https://sandbox.payu.pl/x", []byte(testDocument))

	require.NoError(t, err)
	assert.Equal(t, mocks.DefaultStatusResponse, string(body))
}

func TestTransport_Send_Errors(t *testing.T) {
	tests := []struct {
		name       string
		doFunc     func(*http.Request) (*http.Response, error)
		category   pkgerrors.ErrorCategory
		httpStatus int
	}{
		{
			name: "network failure",
			doFunc: func(*http.Request) (*http.Response, error) {
				return nil, io.ErrUnexpectedEOF
			},
			category: pkgerrors.CategoryNetworkError,
		},
		{
			name: "server error",
			doFunc: func(*http.Request) (*http.Response, error) {
				return mocks.XMLResponse(http.StatusServiceUnavailable, "down"), nil
			},
			category:   pkgerrors.CategoryHTTPStatus,
			httpStatus: http.StatusServiceUnavailable,
		},
		{
			name: "client error",
			doFunc: func(*http.Request) (*http.Response, error) {
				return mocks.XMLResponse(http.StatusForbidden, "no"), nil
			},
			category:   pkgerrors.CategoryHTTPStatus,
			httpStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := mocks.NewMockLogger()
			transport := NewTransport(testConfig("https://sandbox.payu.pl/"), mocks.NewMockHTTPClient(tt.doFunc), nil, logger)

			_, err := transport.Send(context.Background(), OpOrderCancel, "https://sandbox.payu.pl/x", []byte(testDocument))
			require.Error(t, err)

			var gwErr *pkgerrors.GatewayError
			require.True(t, errors.As(err, &gwErr))
			assert.Equal(t, tt.category, gwErr.Category)
			assert.Equal(t, tt.httpStatus, gwErr.HTTPStatus)
			assert.Equal(t, OpOrderCancel, gwErr.Operation)
		})
	}
}

func TestTransport_CircuitBreaker(t *testing.T) {
	httpClient := mocks.NewMockHTTPClient(func(*http.Request) (*http.Response, error) {
		return nil, io.ErrUnexpectedEOF
	})
	breaker := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 2, Timeout: time.Minute})
	logger := mocks.NewMockLogger()
	transport := NewTransport(testConfig("https://sandbox.payu.pl/"), httpClient, breaker, logger)

	for i := 0; i < 2; i++ {
		_, err := transport.Send(context.Background(), OpOrderCreate, "https://sandbox.payu.pl/x", []byte(testDocument))
		require.Error(t, err)
	}
	assert.Equal(t, StateOpen, breaker.State())

	_, err := transport.Send(context.Background(), OpOrderCreate, "https://sandbox.payu.pl/x", []byte(testDocument))
	var gwErr *pkgerrors.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, pkgerrors.CategoryCircuitOpen, gwErr.Category)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, httpClient.CallCount())
	assert.NotEmpty(t, logger.WarnCalls)
}

func TestTransport_ClientErrorsDoNotTripBreaker(t *testing.T) {
	httpClient := mocks.NewMockHTTPClient(func(*http.Request) (*http.Response, error) {
		return mocks.XMLResponse(http.StatusBadRequest, "bad"), nil
	})
	breaker := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Minute})
	transport := NewTransport(testConfig("https://sandbox.payu.pl/"), httpClient, breaker, nil)

	for i := 0; i < 3; i++ {
		_, err := transport.Send(context.Background(), OpOrderCreate, "https://sandbox.payu.pl/x", []byte(testDocument))
		require.Error(t, err)
	}
	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, 3, httpClient.CallCount())
}

func TestTransport_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	transport := NewTransport(testConfig(server.URL), server.Client(), nil, nil)
	_, err := transport.Send(ctx, OpOrderCreate, server.URL, []byte(testDocument))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
