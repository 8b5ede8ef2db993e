package ports

import (
	"context"
	"errors"
)

// ErrSecretNotFound is returned by every backend when the path holds no secret
var ErrSecretNotFound = errors.New("secret not found")

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string            // The secret value (e.g., signature key)
	Version   string            // Secret version identifier
	Metadata  map[string]string // Additional secret metadata
	CreatedAt string            // When this version was created
}

// SecretManagerAdapter defines the port for reading merchant credentials
// (signature key, OAuth client secret) from a secret management backend.
// Path format depends on implementation:
//   - Local: file path relative to the base directory
//   - AWS: "openpayu/{pos_id}/signature-key" or a full ARN
//   - Vault: "openpayu/{pos_id}" under the KV mount, value in the "value" key
type SecretManagerAdapter interface {
	// GetSecret retrieves the latest version of a secret
	GetSecret(ctx context.Context, path string) (*Secret, error)

	// GetSecretVersion retrieves a specific version of a secret
	// Useful while a signature key is being rotated at the provider
	GetSecretVersion(ctx context.Context, path string, version string) (*Secret, error)
}
