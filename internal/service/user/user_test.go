package user

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/taskmanager/internal/apperrors"
	"github.com/nkiryanov/taskmanager/internal/models"
	"github.com/nkiryanov/taskmanager/internal/repository"
	"github.com/nkiryanov/taskmanager/internal/repository/postgres"
	"github.com/nkiryanov/taskmanager/internal/testutil"
)

func ptr[T any](v T) *T {
	return &v
}

func TestUser(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Helper function to create UserService within transaction
	inTx := func(t *testing.T, fn func(s *UserService, storage repository.Storage)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			fn(NewService(storage.User()), storage)
		})
	}

	createUser := func(t *testing.T, storage repository.Storage, email string) models.User {
		u, err := storage.User().CreateUser(t.Context(), models.User{Name: "Test", Email: email, HashedPassword: "hash"})
		require.NoError(t, err)
		return u
	}

	t.Run("GetUser", func(t *testing.T) {
		inTx(t, func(s *UserService, storage repository.Storage) {
			created := createUser(t, storage, "alice@example.com")

			got, err := s.GetUser(t.Context(), created.ID)
			require.NoError(t, err)
			require.Equal(t, created, got)

			_, err = s.GetUser(t.Context(), uuid.New())
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("UpdateProfile", func(t *testing.T) {
		t.Run("name and email", func(t *testing.T) {
			inTx(t, func(s *UserService, storage repository.Storage) {
				created := createUser(t, storage, "alice@example.com")

				updated, err := s.UpdateProfile(t.Context(), created.ID, ProfileInput{
					Name:  ptr("  Alice Smith "),
					Email: ptr("Alice.Smith@Example.com"),
				})

				require.NoError(t, err)
				require.Equal(t, "Alice Smith", updated.Name)
				require.Equal(t, "alice.smith@example.com", updated.Email)
				require.Equal(t, created.HashedPassword, updated.HashedPassword, "password is untouched")
			})
		})

		t.Run("same email in other case is not a duplicate", func(t *testing.T) {
			inTx(t, func(s *UserService, storage repository.Storage) {
				created := createUser(t, storage, "alice@example.com")

				updated, err := s.UpdateProfile(t.Context(), created.ID, ProfileInput{Email: ptr("ALICE@example.com")})

				require.NoError(t, err)
				require.Equal(t, "alice@example.com", updated.Email)
			})
		})

		t.Run("taken email", func(t *testing.T) {
			inTx(t, func(s *UserService, storage repository.Storage) {
				createUser(t, storage, "taken@example.com")
				created := createUser(t, storage, "alice@example.com")

				_, err := s.UpdateProfile(t.Context(), created.ID, ProfileInput{Email: ptr("Taken@example.com")})

				require.ErrorIs(t, err, apperrors.ErrDuplicateEmail)
			})
		})

		t.Run("invalid input", func(t *testing.T) {
			inTx(t, func(s *UserService, storage repository.Storage) {
				created := createUser(t, storage, "alice@example.com")

				_, err := s.UpdateProfile(t.Context(), created.ID, ProfileInput{Name: ptr("A"), Email: ptr("nope")})

				var vErr *apperrors.ValidationError
				require.ErrorAs(t, err, &vErr)
				require.Contains(t, vErr.Fields, "name")
				require.Contains(t, vErr.Fields, "email")
			})
		})

		t.Run("unknown user", func(t *testing.T) {
			inTx(t, func(s *UserService, _ repository.Storage) {
				_, err := s.UpdateProfile(t.Context(), uuid.New(), ProfileInput{Name: ptr("Ghost")})

				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})

	t.Run("ListUsers", func(t *testing.T) {
		inTx(t, func(s *UserService, storage repository.Storage) {
			first := createUser(t, storage, "first@example.com")
			second := createUser(t, storage, "second@example.com")

			users, err := s.ListUsers(t.Context())

			require.NoError(t, err)
			require.ElementsMatch(t, []models.User{first, second}, users)
		})
	})
}
