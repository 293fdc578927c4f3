package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/nkiryanov/taskmanager/internal/apperrors"
	"github.com/nkiryanov/taskmanager/internal/models"
)

// cookie builds the session cookie. Setting and clearing share it,
// browsers ignore a clearing cookie whose path or same-site differ.
func (s *AuthService) cookie(value string, expiresAt time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.cookieName,
		Value:    value,
		Path:     s.cookiePath,
		Expires:  expiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

// SetTokenToResponse sets cookie expiring together with the token
func (s *AuthService) SetTokenToResponse(w http.ResponseWriter, token models.IssuedToken) {
	maxAge := int(token.ExpiresAt.Sub(s.clock()).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	http.SetCookie(w, s.cookie(token.Value, token.ExpiresAt, maxAge))
}

// ClearTokenFromResponse overwrites the cookie with an empty already expired one
func (s *AuthService) ClearTokenFromResponse(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie("", time.Unix(0, 0), -1))
}

// GetTokenFromRequest reads the token from the auth header, then from the cookie
func (s *AuthService) GetTokenFromRequest(r *http.Request) (string, error) {
	if token, ok := s.bearerToken(r); ok {
		return token, nil
	}
	return s.GetCookieToken(r)
}

// GetCookieToken reads the token from the session cookie only
func (s *AuthService) GetCookieToken(r *http.Request) (string, error) {
	c, err := r.Cookie(s.cookieName)
	if err != nil || c.Value == "" {
		return "", apperrors.ErrUnauthenticated
	}
	return c.Value, nil
}

func (s *AuthService) bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(s.authHeaderName)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, s.authScheme) {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}
