package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded identity payload of a verified access token.
type Claims struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
	IssuedAt  time.Time
	Issuer    string
}

// Manager issues and verifies HS256-signed access tokens.
// It holds the only reference to the signing secret.
type Manager struct {
	cfg Config
}

// jwtClaims is the internal claims type used for JWT signing and parsing.
type jwtClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// NewManager builds a Manager from config. The secret and TTL are validated
// here so a misconfigured process fails at startup, not on first login.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.SecretKey) < minSecretBytes {
		return nil, ErrConfig
	}
	if cfg.AccessTTL <= 0 {
		return nil, ErrConfig
	}
	if cfg.ClockSkew < 0 {
		return nil, ErrConfig
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		cfg.Issuer = "tasklist"
	}
	return &Manager{cfg: cfg}, nil
}

// AccessTTL returns the configured default token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.cfg.AccessTTL }

// Issue signs a token for the given identity using the default TTL.
func (m *Manager) Issue(userID, email string, now time.Time) (string, time.Time, error) {
	return m.IssueWithTTL(userID, email, now, m.cfg.AccessTTL)
}

// IssueWithTTL signs a token with an explicit lifetime.
func (m *Manager) IssueWithTTL(userID, email string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	if strings.TrimSpace(userID) == "" {
		return "", time.Time{}, ErrInvalidToken
	}
	if ttl <= 0 {
		ttl = m.cfg.AccessTTL
	}
	exp := now.Add(ttl)

	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID: userID,
		Email:  email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.cfg.SecretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks signature, issuer, and expiry, and returns the decoded
// claims. Every failure mode returns ErrInvalidToken; callers must not be
// able to distinguish malformed from expired from tampered.
func (m *Manager) Verify(tokenStr string, now time.Time) (Claims, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	// Sanity bounds to avoid parsing pathological inputs.
	if tokenStr == "" || len(tokenStr) > 4096 {
		return Claims{}, ErrInvalidToken
	}

	var parsed jwtClaims
	_, err := jwt.ParseWithClaims(tokenStr, &parsed, func(t *jwt.Token) (any, error) {
		return m.cfg.SecretKey, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.cfg.ClockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	if strings.TrimSpace(parsed.UserID) == "" {
		return Claims{}, ErrInvalidToken
	}

	out := Claims{
		UserID: parsed.UserID,
		Email:  parsed.Email,
		Issuer: parsed.Issuer,
	}
	if parsed.ExpiresAt != nil {
		out.ExpiresAt = parsed.ExpiresAt.Time
	}
	if parsed.IssuedAt != nil {
		out.IssuedAt = parsed.IssuedAt.Time
	}
	return out, nil
}
