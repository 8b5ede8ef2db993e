package openpayu

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// SandboxServiceURL is the OpenPayU sandbox base URL
	SandboxServiceURL = "https://sandbox.payu.pl/"
	// ProductionServiceURL is the OpenPayU production base URL
	ProductionServiceURL = "https://secure.payu.com/"

	servicePath    = "co/openpayu/"
	oauthTokenPath = "oauth/authorize"
)

// Config holds the merchant credentials and service location for one point of sale.
// It is passed explicitly to every client; nothing is read from process-wide state.
type Config struct {
	// Base URL of the OpenPayU service, with trailing slash
	ServiceURL string

	// Merchant point-of-sale identifier issued by PayU
	MerchantPosID string

	// Secret used to sign outgoing documents
	SignatureKey string

	// Hash algorithm for document signatures (default: MD5)
	Algorithm Algorithm

	// OAuth client credentials (retrieve, cancel and status update)
	OAuthClientID     string
	OAuthClientSecret string

	// HTTP client timeout
	Timeout time.Duration
}

// DefaultConfig returns a configuration for the given environment ("sandbox" or "production")
func DefaultConfig(environment string) Config {
	serviceURL := ProductionServiceURL
	if environment == "sandbox" {
		serviceURL = SandboxServiceURL
	}

	return Config{
		ServiceURL: serviceURL,
		Algorithm:  AlgorithmMD5,
		Timeout:    30 * time.Second,
	}
}

// Validate checks the fields every operation depends on
func (c Config) Validate() error {
	if c.ServiceURL == "" {
		return fmt.Errorf("service url is required")
	}
	if _, err := url.ParseRequestURI(c.ServiceURL); err != nil {
		return fmt.Errorf("service url is invalid: %w", err)
	}
	if c.MerchantPosID == "" {
		return fmt.Errorf("merchant pos id is required")
	}
	if c.SignatureKey == "" {
		return fmt.Errorf("signature key is required")
	}
	if _, err := c.algorithm().hasher(); err != nil {
		return err
	}
	return nil
}

// Endpoint returns the URL for an OpenPayU operation, e.g. ".../co/openpayu/OrderCreateRequest"
func (c Config) Endpoint(operation string) string {
	return c.baseURL() + servicePath + operation
}

// TokenURL returns the OAuth client-credentials endpoint
func (c Config) TokenURL() string {
	return c.baseURL() + oauthTokenPath
}

func (c Config) baseURL() string {
	if strings.HasSuffix(c.ServiceURL, "/") {
		return c.ServiceURL
	}
	return c.ServiceURL + "/"
}

func (c Config) algorithm() Algorithm {
	if c.Algorithm == "" {
		return AlgorithmMD5
	}
	return c.Algorithm
}
