// Package access guards the drawing console behind the shared operator PIN.
package access

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "prizedraw"

// ErrInvalidToken is returned when a session token is missing, forged or
// expired.
var ErrInvalidToken = errors.New("invalid session token")

// Config holds the access settings for one event.
type Config struct {
	PIN        string
	PINLength  int
	SecretKey  []byte
	SessionTTL time.Duration
}

// Validate checks that the PIN is numeric and has the configured length.
func (c Config) Validate() error {
	if c.PINLength <= 0 {
		return fmt.Errorf("pin length must be positive")
	}
	if len(c.PIN) != c.PINLength {
		return fmt.Errorf("pin must be exactly %d digits", c.PINLength)
	}
	if !isDigits(c.PIN) {
		return fmt.Errorf("pin must contain only digits")
	}
	if len(c.SecretKey) == 0 {
		return fmt.Errorf("secret key is required")
	}
	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// Gate checks operator PINs and signs session cookies.
type Gate struct {
	cfg Config
	now func() time.Time
}

// NewGate returns a Gate for cfg.
func NewGate(cfg Config) (*Gate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}
	return &Gate{cfg: cfg, now: time.Now}, nil
}

// CheckPIN reports whether pin matches the configured PIN.
func (g *Gate) CheckPIN(pin string) bool {
	pin = strings.TrimSpace(pin)
	if len(pin) != g.cfg.PINLength || !isDigits(pin) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(pin), []byte(g.cfg.PIN)) == 1
}

// PINLength returns the number of digits in the PIN.
func (g *Gate) PINLength() int {
	return g.cfg.PINLength
}

// SessionTTL returns the idle lifetime of an operator session.
func (g *Gate) SessionTTL() time.Duration {
	return g.cfg.SessionTTL
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// IssueToken signs a cookie value that carries sessionID.
func (g *Gate) IssueToken(sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", fmt.Errorf("session id is required")
	}
	now := g.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.cfg.SessionTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.cfg.SecretKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies token and returns the session id it carries.
func (g *Gate) ParseToken(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return g.cfg.SecretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
