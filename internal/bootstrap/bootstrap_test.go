package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/openpayu/internal/adapters/openpayu"
	"github.com/kevin07696/openpayu/internal/config"
)

func testAppConfig() *config.Config {
	return &config.Config{
		OpenPayU: config.OpenPayUConfig{
			Environment:        "sandbox",
			MerchantPosID:      "145227",
			SignatureKey:       "13a980d4f851f3d9a1cfc792fb1f5e50",
			Algorithm:          "MD5",
			OAuthClientID:      "145227",
			OAuthClientSecret:  "12f071174cb7eb79d4aac5bc2f07563f",
			Timeout:            10 * time.Second,
			BreakerMaxFailures: 3,
			BreakerTimeout:     time.Second,
		},
		Secrets: config.SecretsConfig{Backend: "env", PathPrefix: "openpayu"},
	}
}

func TestOpenPayUConfig(t *testing.T) {
	cfg := testAppConfig()

	clientCfg := OpenPayUConfig(cfg.OpenPayU)
	assert.Equal(t, openpayu.SandboxServiceURL, clientCfg.ServiceURL)
	assert.Equal(t, "145227", clientCfg.MerchantPosID)
	assert.Equal(t, openpayu.AlgorithmMD5, clientCfg.Algorithm)
	assert.Equal(t, 10*time.Second, clientCfg.Timeout)

	cfg.OpenPayU.Environment = "production"
	cfg.OpenPayU.ServiceURL = "http://localhost:9000/"
	clientCfg = OpenPayUConfig(cfg.OpenPayU)
	assert.Equal(t, "http://localhost:9000/", clientCfg.ServiceURL)
}

func TestNewClient_EnvBackend(t *testing.T) {
	client, err := NewClient(context.Background(), testAppConfig(), zap.NewNop())
	require.NoError(t, err)

	assert.NotNil(t, client.Orders)
	assert.Equal(t, openpayu.StateClosed, client.Breaker.State())
	assert.Equal(t, "13a980d4f851f3d9a1cfc792fb1f5e50", client.Config.SignatureKey)
}

func TestNewClient_LocalBackend(t *testing.T) {
	dir := t.TempDir()
	posDir := filepath.Join(dir, "openpayu", "145227")
	require.NoError(t, os.MkdirAll(posDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(posDir, "signature-key"), []byte("from-file"), 0o600))

	cfg := testAppConfig()
	cfg.OpenPayU.SignatureKey = ""
	cfg.OpenPayU.OAuthClientSecret = ""
	cfg.Secrets.Backend = "local"
	cfg.Secrets.LocalPath = dir

	client, err := NewClient(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "from-file", client.Config.SignatureKey)
	assert.Empty(t, client.Config.OAuthClientSecret)

	_, err = client.Orders.Retrieve(context.Background(), "SESSION1")
	assert.ErrorContains(t, err, "oauth token source is not configured")
}

func TestNewClient_MissingSecret(t *testing.T) {
	cfg := testAppConfig()
	cfg.Secrets.Backend = "local"
	cfg.Secrets.LocalPath = t.TempDir()

	_, err := NewClient(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "signature key")
}

func TestNewSecretManager_Unsupported(t *testing.T) {
	_, err := newSecretManager(context.Background(), config.SecretsConfig{Backend: "gcp"}, zap.NewNop())
	assert.Error(t, err)
}

func TestBreakerHealthCheck(t *testing.T) {
	breaker := openpayu.NewCircuitBreaker(openpayu.CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Hour})
	check := BreakerHealthCheck(breaker)

	assert.NoError(t, check(context.Background()))

	_ = breaker.Call(func() error { return errors.New("connection refused") }, func(error) bool { return true })
	assert.ErrorContains(t, check(context.Background()), "open")
}
