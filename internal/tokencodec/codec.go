// Package tokencodec describes the session token payload and decodes its
// structure without checking the signature. Verification lives in tokenmanager.
package tokencodec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/taskmanager/internal/apperrors"
	"github.com/nkiryanov/taskmanager/internal/models"
)

// Claims is the JWT payload. Subject holds the user id.
type Claims struct {
	jwt.RegisteredClaims
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

func NewClaims(user models.User, issuedAt, expiresAt time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: user.Email,
		Role:  user.Role,
	}
}

// Model converts the wire payload into models.Claims.
// Missing expiry or a subject that is not a uuid make the token malformed.
func (c *Claims) Model() (models.Claims, error) {
	if c.ExpiresAt == nil {
		return models.Claims{}, fmt.Errorf("token has no expiry: %w", apperrors.ErrTokenMalformed)
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return models.Claims{}, fmt.Errorf("token subject is not an id: %w", apperrors.ErrTokenMalformed)
	}

	out := models.Claims{
		UserID:    userID,
		Email:     c.Email,
		Role:      c.Role,
		ExpiresAt: c.ExpiresAt.Time,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	return out, nil
}

// Decode reads the claims of token without verifying its signature.
// Only for reading the expiry and identity client side, never for trusting them.
func Decode(token string) (models.Claims, error) {
	var claims Claims

	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil {
		return models.Claims{}, fmt.Errorf("decode token: %w: %w", apperrors.ErrTokenMalformed, err)
	}

	return claims.Model()
}

// Expired reports whether token is expired at now. Malformed tokens return an error.
func Expired(token string, now time.Time) (bool, error) {
	claims, err := Decode(token)
	if err != nil {
		return false, err
	}
	return !now.Before(claims.ExpiresAt), nil
}
