package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/taskmanager/internal/apperrors"
	"github.com/nkiryanov/taskmanager/internal/models"
	"github.com/nkiryanov/taskmanager/internal/repository"
	"github.com/nkiryanov/taskmanager/internal/service/validate"
)

type UserService struct {
	userRepo repository.UserRepo
}

func NewService(userRepo repository.UserRepo) *UserService {
	return &UserService{userRepo: userRepo}
}

// Profile changes, nil fields stay as they are
type ProfileInput struct {
	Name  *string `json:"name" validate:"omitempty,min=2,max=50"`
	Email *string `json:"email" validate:"omitempty,email,max=254"`
}

func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListUsers(ctx)
}

// UpdateProfile changes name or email.
// A new email is checked against existing users before writing.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (models.User, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		in.Email = &email
	}
	if err := validate.Struct(in); err != nil {
		return models.User{}, err
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	if in.Name != nil {
		user.Name = *in.Name
	}

	if in.Email != nil && *in.Email != user.Email {
		exists, err := s.userRepo.ExistsByEmail(ctx, *in.Email)
		if err != nil {
			return models.User{}, fmt.Errorf("can't check email. Err: %w", err)
		}
		if exists {
			return models.User{}, apperrors.ErrDuplicateEmail
		}
		user.Email = *in.Email
	}

	user, err = s.userRepo.UpdateUser(ctx, user)
	if err != nil {
		return models.User{}, fmt.Errorf("can't update user. Err: %w", err)
	}

	return user, nil
}
