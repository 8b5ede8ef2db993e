package openpayu

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/kevin07696/openpayu/pkg/errors"
	"github.com/kevin07696/openpayu/test/mocks"
)

func TestClientCredentialsTokenSource_AccessToken(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/oauth/authorize", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "145227", r.PostForm.Get("client_id"))
		assert.Equal(t, "12f071174cb7eb79d4aac5bc2f07563f", r.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer","expires_in":43199}`))
	}))
	defer server.Close()

	source := NewClientCredentialsTokenSource(testConfig(server.URL), server.Client(), mocks.NewMockLogger())

	token, err := source.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	_, err = source.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "every call performs a new exchange")
}

func TestClientCredentialsTokenSource_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer server.Close()

	logger := mocks.NewMockLogger()
	source := NewClientCredentialsTokenSource(testConfig(server.URL), server.Client(), logger)

	_, err := source.AccessToken(context.Background())
	require.Error(t, err)

	var gwErr *pkgerrors.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, pkgerrors.CategoryAuthentication, gwErr.Category)
	assert.Len(t, logger.ErrorCalls, 1)
}
