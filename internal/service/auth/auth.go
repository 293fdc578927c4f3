package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nkiryanov/taskmanager/internal/apperrors"
	"github.com/nkiryanov/taskmanager/internal/models"
	"github.com/nkiryanov/taskmanager/internal/repository"
	"github.com/nkiryanov/taskmanager/internal/service/validate"
)

const (
	defaultCookieName     = "token"
	defaultCookiePath     = "/"
	defaultAuthHeaderName = "Authorization"
	defaultAuthScheme     = "Bearer"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type tokenManager interface {
	Issue(user models.User) (models.IssuedToken, error)
	Verify(token string) (models.Claims, error)
}

// Auth service config, zero fields are set to defaults
type Config struct {
	Hasher PasswordHasher

	// Session cookie attributes. The same attributes are used to set and to clear the cookie
	CookieName   string
	CookiePath   string
	SecureCookie bool

	// Header to read the token from when there is no cookie
	AuthHeaderName string
	AuthScheme     string

	Clock func() time.Time
}

type AuthService struct {
	tokens   tokenManager
	hasher   PasswordHasher
	userRepo repository.UserRepo

	cookieName   string
	cookiePath   string
	secureCookie bool

	authHeaderName string
	authScheme     string

	clock func() time.Time

	// Hash compared against when the user does not exist, so unknown emails take as long as wrong passwords
	dummyOnce sync.Once
	dummyHash string
}

func NewService(cfg Config, tokens tokenManager, userRepo repository.UserRepo) (*AuthService, error) {
	s := &AuthService{
		tokens:         tokens,
		hasher:         cfg.Hasher,
		userRepo:       userRepo,
		cookieName:     cfg.CookieName,
		cookiePath:     cfg.CookiePath,
		secureCookie:   cfg.SecureCookie,
		authHeaderName: cfg.AuthHeaderName,
		authScheme:     cfg.AuthScheme,
		clock:          cfg.Clock,
	}

	setDefault := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	setDefault(&s.cookieName, defaultCookieName)
	setDefault(&s.cookiePath, defaultCookiePath)
	setDefault(&s.authHeaderName, defaultAuthHeaderName)
	setDefault(&s.authScheme, defaultAuthScheme)

	if s.hasher == nil {
		s.hasher = BcryptHasher{}
	}
	if s.clock == nil {
		s.clock = time.Now
	}

	return s, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user with role user. It never issues a token.
func (s *AuthService) Register(ctx context.Context, name string, email string, password string) (models.User, error) {
	input := struct {
		Name     string `json:"name" validate:"required,min=2,max=50"`
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,min=6,max=128"`
	}{
		Name:     strings.TrimSpace(name),
		Email:    normalizeEmail(email),
		Password: password,
	}
	if err := validate.Struct(input); err != nil {
		return models.User{}, err
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return models.User{}, fmt.Errorf("can't check email. Err: %w", err)
	}
	if exists {
		return models.User{}, apperrors.ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, models.User{
		Name:           input.Name,
		Email:          input.Email,
		HashedPassword: hash,
		Role:           models.RoleUser,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("can't create user. Err: %w", err)
	}

	return user, nil
}

// Authenticate checks credentials and issues a token.
// Unknown email and wrong password both fail with apperrors.ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email string, password string) (models.User, models.IssuedToken, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, normalizeEmail(email))
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrUserNotFound):
		_ = s.hasher.Compare(s.dummy(), password)
		return models.User{}, models.IssuedToken{}, apperrors.ErrInvalidCredentials
	default:
		return models.User{}, models.IssuedToken{}, fmt.Errorf("can't get user. Err: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, models.IssuedToken{}, apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return models.User{}, models.IssuedToken{}, fmt.Errorf("token could not be issued. Err: %w", err)
	}

	return user, token, nil
}

// Verify returns claims of a valid token.
// Fails with apperrors.ErrTokenExpired or apperrors.ErrTokenMalformed.
func (s *AuthService) Verify(_ context.Context, token string) (models.Claims, error) {
	return s.tokens.Verify(token)
}

// Reissue issues a fresh token for the subject of claims if the user still exists.
// The token is built from the stored user, so it carries the current email and role.
func (s *AuthService) Reissue(ctx context.Context, claims models.Claims) (models.User, models.IssuedToken, error) {
	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return models.User{}, models.IssuedToken{}, fmt.Errorf("can't reissue token. Err: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return models.User{}, models.IssuedToken{}, fmt.Errorf("token could not be issued. Err: %w", err)
	}

	return user, token, nil
}

// Refresh verifies token and reissues it.
// An expired token is rejected, the server does not extend sessions past expiry.
func (s *AuthService) Refresh(ctx context.Context, token string) (models.User, models.IssuedToken, error) {
	claims, err := s.Verify(ctx, token)
	if err != nil {
		return models.User{}, models.IssuedToken{}, err
	}

	return s.Reissue(ctx, claims)
}

// Resume returns the stored user a valid token was issued for, together with the token
func (s *AuthService) Resume(ctx context.Context, token string) (models.User, models.IssuedToken, error) {
	claims, err := s.Verify(ctx, token)
	if err != nil {
		return models.User{}, models.IssuedToken{}, err
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return models.User{}, models.IssuedToken{}, fmt.Errorf("can't get token subject. Err: %w", err)
	}

	return user, models.IssuedToken{Value: token, ExpiresAt: claims.ExpiresAt}, nil
}

// Auth returns the user the request is authenticated as
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	token, err := s.GetTokenFromRequest(r)
	if err != nil {
		return models.User{}, err
	}

	user, _, err := s.Resume(ctx, token)
	return user, err
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("not-a-real-password")
	})
	return s.dummyHash
}
