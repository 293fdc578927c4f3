package tokenmanager

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nkiryanov/taskmanager/internal/apperrors"
	"github.com/nkiryanov/taskmanager/internal/models"
	"github.com/nkiryanov/taskmanager/internal/tokencodec"
)

const (
	defaultTokenTTL      = 72 * time.Hour
	defaultSigningMethod = "HS256"
)

// Token manager with sensible default
type Config struct {
	// Secret key to sign tokens
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Session token lifetime
	// If not set than default is used
	TTL time.Duration

	// Clock used for issuance and expiry checks, time.Now if nil
	Clock func() time.Time
}

type TokenManager struct {
	key   string
	alg   jwt.SigningMethod
	ttl   time.Duration
	clock func() time.Time
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg := jwt.GetSigningMethod(cfg.Alg)
	if alg == nil {
		return nil, fmt.Errorf("unknown signing method %q", cfg.Alg)
	}

	if cfg.TTL == 0 {
		cfg.TTL = defaultTokenTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &TokenManager{
		key:   cfg.SecretKey,
		alg:   alg,
		ttl:   cfg.TTL,
		clock: cfg.Clock,
	}, nil
}

// Issue signs a new token for user with a fresh expiry
func (m *TokenManager) Issue(user models.User) (models.IssuedToken, error) {
	now := m.clock().Truncate(time.Second)
	expiresAt := now.Add(m.ttl)

	token := jwt.NewWithClaims(m.alg, tokencodec.NewClaims(user, now, expiresAt))
	signed, err := token.SignedString([]byte(m.key))
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing token. Err: %w", err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// Verify checks signature and expiry.
// Expired tokens fail with apperrors.ErrTokenExpired, anything else with apperrors.ErrTokenMalformed.
func (m *TokenManager) Verify(token string) (models.Claims, error) {
	claims := &tokencodec.Claims{}

	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) {
			return []byte(m.key), nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.clock),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return models.Claims{}, fmt.Errorf("error while validating token. Err: %w", apperrors.ErrTokenExpired)
	default:
		return models.Claims{}, fmt.Errorf("error while parsing token. Err: %w: %w", apperrors.ErrTokenMalformed, err)
	}

	return claims.Model()
}
