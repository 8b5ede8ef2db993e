// Package bootstrap wires configuration into a ready OpenPayU order client
// for the server and CLI binaries.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kevin07696/openpayu/internal/adapters/openpayu"
	"github.com/kevin07696/openpayu/internal/adapters/ports"
	"github.com/kevin07696/openpayu/internal/config"
	pkghttp "github.com/kevin07696/openpayu/pkg/http"
	"github.com/kevin07696/openpayu/pkg/observability"
	"github.com/kevin07696/openpayu/pkg/security"
)

// Client is an order client with the pieces the binaries inspect
type Client struct {
	Orders  *openpayu.OrderClient
	Breaker *openpayu.CircuitBreaker
	Config  openpayu.Config
}

// OpenPayUConfig maps application configuration onto the client configuration
func OpenPayUConfig(cfg config.OpenPayUConfig) openpayu.Config {
	clientCfg := openpayu.DefaultConfig(cfg.Environment)
	if cfg.ServiceURL != "" {
		clientCfg.ServiceURL = cfg.ServiceURL
	}
	clientCfg.MerchantPosID = cfg.MerchantPosID
	clientCfg.SignatureKey = cfg.SignatureKey
	if cfg.Algorithm != "" {
		clientCfg.Algorithm = openpayu.Algorithm(cfg.Algorithm)
	}
	clientCfg.OAuthClientID = cfg.OAuthClientID
	clientCfg.OAuthClientSecret = cfg.OAuthClientSecret
	if cfg.Timeout > 0 {
		clientCfg.Timeout = cfg.Timeout
	}
	return clientCfg
}

// NewClient resolves credentials and builds the order client with a pooled
// HTTP client, circuit breaker, OAuth token source and Prometheus metrics.
func NewClient(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...openpayu.ClientOption) (*Client, error) {
	if err := resolveCredentials(ctx, cfg, logger); err != nil {
		return nil, err
	}

	clientCfg := OpenPayUConfig(cfg.OpenPayU)
	portLogger := security.NewZapLogger(logger)

	httpClient := pkghttp.NewHTTPClient(pkghttp.GatewayClientConfig(), clientCfg.Timeout)
	breaker := openpayu.NewCircuitBreaker(openpayu.CircuitBreakerConfig{
		MaxFailures: uint32(cfg.OpenPayU.BreakerMaxFailures),
		Timeout:     cfg.OpenPayU.BreakerTimeout,
	})
	transport := openpayu.NewTransport(clientCfg, httpClient, breaker, portLogger)

	var tokens ports.TokenSource
	if clientCfg.OAuthClientSecret != "" {
		tokens = openpayu.NewClientCredentialsTokenSource(clientCfg, httpClient, portLogger)
	} else {
		logger.Warn("OAuth client secret not configured; retrieve, cancel and status update are unavailable")
	}

	clientOpts := append([]openpayu.ClientOption{openpayu.WithMetrics(observability.NewGatewayMetrics())}, opts...)

	orders, err := openpayu.NewOrderClient(clientCfg, transport, tokens, portLogger, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create order client: %w", err)
	}

	logger.Info("OpenPayU order client ready",
		zap.String("service_url", clientCfg.ServiceURL),
		zap.String("pos_id", clientCfg.MerchantPosID),
		zap.String("algorithm", string(clientCfg.Algorithm)),
	)

	return &Client{
		Orders:  orders,
		Breaker: breaker,
		Config:  clientCfg,
	}, nil
}

// BreakerHealthCheck reports unhealthy while the circuit is open
func BreakerHealthCheck(breaker *openpayu.CircuitBreaker) observability.HealthCheck {
	return func(ctx context.Context) error {
		if state := breaker.State(); state == openpayu.StateOpen {
			return fmt.Errorf("openpayu circuit breaker is %s", state)
		}
		return nil
	}
}
