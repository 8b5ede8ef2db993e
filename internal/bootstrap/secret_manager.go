package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kevin07696/openpayu/internal/adapters/ports"
	"github.com/kevin07696/openpayu/internal/adapters/secrets"
	"github.com/kevin07696/openpayu/internal/config"
)

// newSecretManager builds the secret backend selected by SECRETS_BACKEND:
//   - local: files under LOCAL_SECRETS_PATH (development)
//   - aws: AWS Secrets Manager in AWS_REGION
//   - vault: HashiCorp Vault KV at VAULT_ADDR, token or AppRole auth
func newSecretManager(ctx context.Context, cfg config.SecretsConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	switch cfg.Backend {
	case "local":
		logger.Warn("Using local filesystem secrets - NOT for production use!",
			zap.String("path", cfg.LocalPath),
		)
		return secrets.NewLocalSecretManager(cfg.LocalPath, logger), nil

	case "aws":
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(cfg.AWSRegion)
		awsCfg.Profile = cfg.AWSProfile
		awsCfg.Endpoint = cfg.AWSEndpoint
		return secrets.NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)

	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(cfg.VaultAddress)
		vaultCfg.Token = cfg.VaultToken
		vaultCfg.Namespace = cfg.VaultNamespace
		vaultCfg.MountPath = cfg.VaultMountPath
		if cfg.VaultRoleID != "" {
			vaultCfg.AuthMethod = "approle"
			vaultCfg.RoleID = cfg.VaultRoleID
			vaultCfg.SecretID = cfg.VaultSecretID
		}
		return secrets.NewVaultAdapter(ctx, vaultCfg, logger)

	default:
		return nil, fmt.Errorf("unsupported secrets backend %q", cfg.Backend)
	}
}

// resolveCredentials fills the signature key and OAuth secret from the secret
// backend. With the env backend the values already loaded from the environment stay.
func resolveCredentials(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.Secrets.Backend == "env" {
		return nil
	}

	manager, err := newSecretManager(ctx, cfg.Secrets, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize secret manager: %w", err)
	}

	creds, err := secrets.LoadCredentials(ctx, manager, cfg.Secrets.PathPrefix, cfg.OpenPayU.MerchantPosID)
	if err != nil {
		return err
	}

	cfg.OpenPayU.SignatureKey = creds.SignatureKey
	if creds.OAuthClientSecret != "" {
		cfg.OpenPayU.OAuthClientSecret = creds.OAuthClientSecret
	}

	logger.Info("Merchant credentials loaded",
		zap.String("backend", cfg.Secrets.Backend),
		zap.String("pos_id", cfg.OpenPayU.MerchantPosID),
		zap.Bool("oauth_configured", cfg.OpenPayU.OAuthClientSecret != ""),
	)
	return nil
}
