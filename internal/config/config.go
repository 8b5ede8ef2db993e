package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	OpenPayU OpenPayUConfig
	Secrets  SecretsConfig
	Logger   LoggerConfig
}

// ServerConfig holds the webhook server configuration
type ServerConfig struct {
	Port        int
	Host        string
	MetricsPort int

	// Per client IP limit on the notification endpoint
	RateLimitRPS   float64
	RateLimitBurst int

	ShutdownTimeout time.Duration
}

// OpenPayUConfig holds the merchant point-of-sale configuration
type OpenPayUConfig struct {
	Environment       string // sandbox or production
	ServiceURL        string // overrides the environment default when set
	MerchantPosID     string
	SignatureKey      string
	Algorithm         string // MD5, SHA-1 or SHA-256
	OAuthClientID     string // defaults to MerchantPosID
	OAuthClientSecret string
	Timeout           time.Duration

	// Verify the OpenPayu-Signature header of pushed notifications
	VerifyNotifications bool

	// Circuit breaker on the order transport
	BreakerMaxFailures int
	BreakerTimeout     time.Duration
}

// SecretsConfig selects where SignatureKey and OAuthClientSecret come from
type SecretsConfig struct {
	Backend    string // env, local, aws, vault
	PathPrefix string // secrets are read from {prefix}/{pos_id}/signature-key

	LocalPath string

	AWSRegion   string
	AWSProfile  string
	AWSEndpoint string

	VaultAddress   string
	VaultToken     string
	VaultRoleID    string
	VaultSecretID  string
	VaultMountPath string
	VaultNamespace string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	posID := getEnv("OPENPAYU_MERCHANT_POS_ID", "")

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort:     getEnvAsInt("METRICS_PORT", 9090),
			RateLimitRPS:    getEnvAsFloat("RATE_LIMIT_RPS", 10),
			RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 20),
			ShutdownTimeout: time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT", 15)) * time.Second,
		},
		OpenPayU: OpenPayUConfig{
			Environment:         strings.ToLower(getEnv("OPENPAYU_ENVIRONMENT", "sandbox")),
			ServiceURL:          getEnv("OPENPAYU_SERVICE_URL", ""),
			MerchantPosID:       posID,
			SignatureKey:        getEnv("OPENPAYU_SIGNATURE_KEY", ""),
			Algorithm:           getEnv("OPENPAYU_SIGNATURE_ALGORITHM", "MD5"),
			OAuthClientID:       getEnv("OPENPAYU_OAUTH_CLIENT_ID", posID),
			OAuthClientSecret:   getEnv("OPENPAYU_OAUTH_CLIENT_SECRET", ""),
			Timeout:             time.Duration(getEnvAsInt("OPENPAYU_TIMEOUT", 30)) * time.Second,
			VerifyNotifications: getEnvAsBool("OPENPAYU_VERIFY_NOTIFICATIONS", false),
			BreakerMaxFailures:  getEnvAsInt("OPENPAYU_BREAKER_MAX_FAILURES", 5),
			BreakerTimeout:      time.Duration(getEnvAsInt("OPENPAYU_BREAKER_TIMEOUT", 30)) * time.Second,
		},
		Secrets: SecretsConfig{
			Backend:        strings.ToLower(getEnv("SECRETS_BACKEND", "env")),
			PathPrefix:     getEnv("SECRETS_PATH_PREFIX", "openpayu"),
			LocalPath:      getEnv("LOCAL_SECRETS_PATH", "./secrets"),
			AWSRegion:      getEnv("AWS_REGION", "eu-central-1"),
			AWSProfile:     getEnv("AWS_PROFILE", ""),
			AWSEndpoint:    getEnv("AWS_SECRETS_ENDPOINT", ""),
			VaultAddress:   getEnv("VAULT_ADDR", "http://127.0.0.1:8200"),
			VaultToken:     getEnv("VAULT_TOKEN", ""),
			VaultRoleID:    getEnv("VAULT_ROLE_ID", ""),
			VaultSecretID:  getEnv("VAULT_SECRET_ID", ""),
			VaultMountPath: getEnv("VAULT_MOUNT_PATH", "secret"),
			VaultNamespace: getEnv("VAULT_NAMESPACE", ""),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields
func (c *Config) Validate() error {
	if c.OpenPayU.MerchantPosID == "" {
		return fmt.Errorf("OPENPAYU_MERCHANT_POS_ID is required")
	}

	switch c.OpenPayU.Environment {
	case "sandbox", "production":
	default:
		return fmt.Errorf("OPENPAYU_ENVIRONMENT must be sandbox or production, got %q", c.OpenPayU.Environment)
	}

	switch c.Secrets.Backend {
	case "env":
		// Secrets come straight from the environment
		if c.OpenPayU.SignatureKey == "" {
			return fmt.Errorf("OPENPAYU_SIGNATURE_KEY is required when SECRETS_BACKEND=env")
		}
	case "local", "aws", "vault":
	default:
		return fmt.Errorf("SECRETS_BACKEND must be env, local, aws or vault, got %q", c.Secrets.Backend)
	}

	if c.Server.RateLimitRPS <= 0 || c.Server.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	return nil
}

// Address returns the webhook server listen address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
