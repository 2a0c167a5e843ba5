package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// minSecretBytes is the minimum HMAC-SHA256 key length we accept.
// Measured in bytes (not runes) because the key is used as raw bytes.
const minSecretBytes = 32

// tokenEnv holds raw env values before post-parse validation.
type tokenEnv struct {
	SecretKey string        `env:"TASKLIST_TOKEN_SECRET_KEY"`
	Issuer    string        `env:"TASKLIST_TOKEN_ISSUER" envDefault:"tasklist"`
	AccessTTL time.Duration `env:"TASKLIST_TOKEN_ACCESS_TTL" envDefault:"30m"`
	ClockSkew time.Duration `env:"TASKLIST_TOKEN_CLOCK_SKEW" envDefault:"30s"`
}

// Config defines how access tokens are signed and verified.
//
// The secret key and algorithm are fixed at process start and immutable
// thereafter; the Manager built from this config is the only component that
// touches the key.
type Config struct {
	// SecretKey is the process-wide HMAC-SHA256 signing secret.
	SecretKey []byte

	// Issuer is the value set in the "iss" claim of access tokens.
	Issuer string

	// AccessTTL is the default token lifetime used when callers do not
	// override it.
	AccessTTL time.Duration

	// ClockSkew is the allowed time skew during token validation.
	ClockSkew time.Duration
}

// LoadConfigFromEnv reads token signing configuration.
//
// Required:
//   - TASKLIST_TOKEN_SECRET_KEY (>= 32 bytes)
//
// Optional:
//   - TASKLIST_TOKEN_ISSUER
//   - TASKLIST_TOKEN_ACCESS_TTL
//   - TASKLIST_TOKEN_CLOCK_SKEW
func LoadConfigFromEnv() (Config, error) {
	var raw tokenEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse token env: %w", err)
	}

	secret := strings.TrimSpace(raw.SecretKey)
	if secret == "" {
		return Config{}, fmt.Errorf("%w: TASKLIST_TOKEN_SECRET_KEY is required", ErrConfig)
	}
	if len(secret) < minSecretBytes {
		return Config{}, fmt.Errorf("%w: TASKLIST_TOKEN_SECRET_KEY must be at least %d bytes", ErrConfig, minSecretBytes)
	}

	issuer := strings.TrimSpace(raw.Issuer)
	if issuer == "" {
		issuer = "tasklist"
	}
	if raw.AccessTTL <= 0 {
		return Config{}, fmt.Errorf("%w: TASKLIST_TOKEN_ACCESS_TTL must be positive", ErrConfig)
	}
	if raw.ClockSkew < 0 {
		return Config{}, fmt.Errorf("%w: TASKLIST_TOKEN_CLOCK_SKEW must not be negative", ErrConfig)
	}

	return Config{
		SecretKey: []byte(secret),
		Issuer:    issuer,
		AccessTTL: raw.AccessTTL,
		ClockSkew: raw.ClockSkew,
	}, nil
}
