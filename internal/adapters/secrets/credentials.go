package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/kevin07696/openpayu/internal/adapters/ports"
)

// Credentials are the merchant secrets an OpenPayU client needs
type Credentials struct {
	SignatureKey      string
	OAuthClientSecret string
}

// SignatureKeyPath is where the signature key for a POS is stored
func SignatureKeyPath(prefix, posID string) string {
	return fmt.Sprintf("%s/%s/signature-key", prefix, posID)
}

// OAuthClientSecretPath is where the OAuth client secret for a POS is stored
func OAuthClientSecretPath(prefix, posID string) string {
	return fmt.Sprintf("%s/%s/oauth-client-secret", prefix, posID)
}

// LoadCredentials reads the signature key and OAuth client secret for posID.
// The OAuth secret is optional; a POS that only creates orders has none.
func LoadCredentials(ctx context.Context, manager ports.SecretManagerAdapter, prefix, posID string) (*Credentials, error) {
	if posID == "" {
		return nil, fmt.Errorf("pos id is required")
	}

	signatureKey, err := manager.GetSecret(ctx, SignatureKeyPath(prefix, posID))
	if err != nil {
		return nil, fmt.Errorf("failed to load signature key: %w", err)
	}
	if signatureKey.Value == "" {
		return nil, fmt.Errorf("signature key for pos %s is empty", posID)
	}

	creds := &Credentials{SignatureKey: signatureKey.Value}

	oauthSecret, err := manager.GetSecret(ctx, OAuthClientSecretPath(prefix, posID))
	switch {
	case err == nil:
		creds.OAuthClientSecret = oauthSecret.Value
	case !errors.Is(err, ports.ErrSecretNotFound):
		return nil, fmt.Errorf("failed to load oauth client secret: %w", err)
	}

	return creds, nil
}
