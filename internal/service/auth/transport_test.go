package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/taskmanager/internal/apperrors"
	"github.com/nkiryanov/taskmanager/internal/models"
)

func Test_Transport(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	newService := func(t *testing.T, cfg Config) *AuthService {
		cfg.Clock = clock
		s, err := NewService(cfg, nil, nil)
		require.NoError(t, err)
		return s
	}

	t.Run("set cookie", func(t *testing.T) {
		s := newService(t, Config{SecureCookie: true})
		w := httptest.NewRecorder()

		s.SetTokenToResponse(w, models.IssuedToken{Value: "token-value", ExpiresAt: now.Add(time.Hour)})

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		c := cookies[0]
		assert.Equal(t, "token", c.Name)
		assert.Equal(t, "token-value", c.Value)
		assert.Equal(t, "/", c.Path)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		assert.Equal(t, 3600, c.MaxAge, "cookie lives as long as the token")
		assert.True(t, c.Expires.Equal(now.Add(time.Hour)))
	})

	t.Run("not secure outside production", func(t *testing.T) {
		s := newService(t, Config{})
		w := httptest.NewRecorder()

		s.SetTokenToResponse(w, models.IssuedToken{Value: "v", ExpiresAt: now.Add(time.Minute)})

		require.False(t, w.Result().Cookies()[0].Secure)
	})

	t.Run("clear cookie with same attributes", func(t *testing.T) {
		s := newService(t, Config{SecureCookie: true, CookieName: "sid", CookiePath: "/api"})

		set := httptest.NewRecorder()
		s.SetTokenToResponse(set, models.IssuedToken{Value: "v", ExpiresAt: now.Add(time.Hour)})
		clear := httptest.NewRecorder()
		s.ClearTokenFromResponse(clear)

		setCookie := set.Result().Cookies()[0]
		clearCookie := clear.Result().Cookies()[0]

		assert.Equal(t, setCookie.Name, clearCookie.Name)
		assert.Equal(t, setCookie.Path, clearCookie.Path)
		assert.Equal(t, setCookie.SameSite, clearCookie.SameSite)
		assert.Equal(t, setCookie.HttpOnly, clearCookie.HttpOnly)
		assert.Equal(t, setCookie.Secure, clearCookie.Secure)
		assert.Empty(t, clearCookie.Value)
		assert.Equal(t, -1, clearCookie.MaxAge, "cookie has to expire immediately")
	})

	t.Run("read token", func(t *testing.T) {
		s := newService(t, Config{})

		tests := []struct {
			name    string
			prepare func(r *http.Request)
			want    string
			wantErr error
		}{
			{
				name:    "bearer header",
				prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer header-token") },
				want:    "header-token",
			},
			{
				name:    "scheme is case insensitive",
				prepare: func(r *http.Request) { r.Header.Set("Authorization", "bearer header-token") },
				want:    "header-token",
			},
			{
				name:    "cookie",
				prepare: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: "cookie-token"}) },
				want:    "cookie-token",
			},
			{
				name: "header wins over cookie",
				prepare: func(r *http.Request) {
					r.Header.Set("Authorization", "Bearer header-token")
					r.AddCookie(&http.Cookie{Name: "token", Value: "cookie-token"})
				},
				want: "header-token",
			},
			{
				name: "other scheme falls back to cookie",
				prepare: func(r *http.Request) {
					r.Header.Set("Authorization", "Basic dXNlcjpwd2Q=")
					r.AddCookie(&http.Cookie{Name: "token", Value: "cookie-token"})
				},
				want: "cookie-token",
			},
			{
				name:    "empty bearer",
				prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer ") },
				wantErr: apperrors.ErrUnauthenticated,
			},
			{
				name:    "nothing",
				prepare: func(r *http.Request) {},
				wantErr: apperrors.ErrUnauthenticated,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				r := httptest.NewRequest(http.MethodGet, "/", nil)
				tt.prepare(r)

				got, err := s.GetTokenFromRequest(r)

				if tt.wantErr != nil {
					require.ErrorIs(t, err, tt.wantErr)
					return
				}
				require.NoError(t, err)
				require.Equal(t, tt.want, got)
			})
		}
	})

	t.Run("cookie only ignores header", func(t *testing.T) {
		s := newService(t, Config{})
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer header-token")

		_, err := s.GetCookieToken(r)

		require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})
}
