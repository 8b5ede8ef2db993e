package openpayu

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/kevin07696/openpayu/internal/adapters/ports"
	pkgerrors "github.com/kevin07696/openpayu/pkg/errors"
)

// ClientCredentialsTokenSource exchanges the merchant OAuth client credentials
// for an access token at {serviceUrl}oauth/authorize.
// Each AccessToken call performs a new exchange; tokens are never cached.
type ClientCredentialsTokenSource struct {
	config     clientcredentials.Config
	httpClient *http.Client
	logger     ports.Logger
}

// NewClientCredentialsTokenSource creates a token source for cfg.
// httpClient may be nil to use http.DefaultClient.
func NewClientCredentialsTokenSource(cfg Config, httpClient *http.Client, logger ports.Logger) *ClientCredentialsTokenSource {
	if logger == nil {
		logger = ports.NopLogger{}
	}

	return &ClientCredentialsTokenSource{
		config: clientcredentials.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			TokenURL:     cfg.TokenURL(),
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: httpClient,
		logger:     logger,
	}
}

// AccessToken implements ports.TokenSource
func (s *ClientCredentialsTokenSource) AccessToken(ctx context.Context) (string, error) {
	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}

	s.logger.Debug("Requesting OpenPayU access token",
		ports.String("token_url", s.config.TokenURL),
		ports.String("client_id", s.config.ClientID),
	)

	token, err := s.config.Token(ctx)
	if err != nil {
		s.logger.Error("Failed to obtain OpenPayU access token",
			ports.String("client_id", s.config.ClientID),
			ports.Err(err),
		)
		return "", pkgerrors.NewGatewayError("OAuthAuthorize", pkgerrors.CategoryAuthentication, "failed to obtain access token", err)
	}

	if token.AccessToken == "" {
		return "", pkgerrors.NewGatewayError("OAuthAuthorize", pkgerrors.CategoryAuthentication, "empty access token", nil)
	}

	return token.AccessToken, nil
}
