package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/taskmanager/internal/apperrors"
	"github.com/nkiryanov/taskmanager/internal/models"
	"github.com/nkiryanov/taskmanager/internal/testutil"
)

func newUser(email string) models.User {
	return models.User{
		Name:           "Test User",
		Email:          email,
		HashedPassword: "hashedpassword123",
	}
}

func Test_UserRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("create user ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}

			user, err := r.CreateUser(t.Context(), newUser("Alice@Example.com"))

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, user.ID)
			assert.Equal(t, "alice@example.com", user.Email, "email stored lower-cased")
			assert.Equal(t, "Test User", user.Name)
			assert.Equal(t, "hashedpassword123", user.HashedPassword)
			assert.Equal(t, models.RoleUser, user.Role, "default role is user")
			assert.WithinDuration(t, time.Now(), user.CreatedAt, time.Second, "CreatedAt should be recent")
			assert.Equal(t, user.CreatedAt, user.UpdatedAt)
		})
	})

	t.Run("create admin", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			u := newUser("root@example.com")
			u.Role = models.RoleAdmin

			user, err := r.CreateUser(t.Context(), u)

			require.NoError(t, err)
			assert.Equal(t, models.RoleAdmin, user.Role)
		})
	})

	t.Run("create duplicate email in other case", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			_, err := r.CreateUser(t.Context(), newUser("bob@example.com"))
			require.NoError(t, err)

			_, err = r.CreateUser(t.Context(), newUser("BOB@example.com"))

			require.ErrorIs(t, err, apperrors.ErrDuplicateEmail)
		})
	})

	t.Run("get user by id ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			created, err := r.CreateUser(t.Context(), newUser("findbyid@example.com"))
			require.NoError(t, err)

			got, err := r.GetUserByID(t.Context(), created.ID)

			require.NoError(t, err)
			assert.Equal(t, created, got)
		})
	})

	t.Run("get user by id not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}

			_, err := r.GetUserByID(t.Context(), uuid.New())

			assert.ErrorIs(t, err, apperrors.ErrUserNotFound, "should return well known error")
		})
	})

	t.Run("get user by email ignores case", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			created, err := r.CreateUser(t.Context(), newUser("carol@example.com"))
			require.NoError(t, err)

			got, err := r.GetUserByEmail(t.Context(), "CAROL@Example.COM")

			require.NoError(t, err)
			assert.Equal(t, created.ID, got.ID)
		})
	})

	t.Run("get user by email not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}

			_, err := r.GetUserByEmail(t.Context(), "nobody@example.com")

			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("exists by email", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			_, err := r.CreateUser(t.Context(), newUser("dave@example.com"))
			require.NoError(t, err)

			exists, err := r.ExistsByEmail(t.Context(), "Dave@Example.com")
			require.NoError(t, err)
			assert.True(t, exists)

			exists, err = r.ExistsByEmail(t.Context(), "eve@example.com")
			require.NoError(t, err)
			assert.False(t, exists)
		})
	})

	t.Run("update user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			created, err := r.CreateUser(t.Context(), newUser("frank@example.com"))
			require.NoError(t, err)

			created.Name = "Frank"
			created.Email = "Frank.New@example.com"
			updated, err := r.UpdateUser(t.Context(), created)

			require.NoError(t, err)
			assert.Equal(t, "Frank", updated.Name)
			assert.Equal(t, "frank.new@example.com", updated.Email)
			assert.Equal(t, created.CreatedAt, updated.CreatedAt)
		})
	})

	t.Run("update not existed user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			u := newUser("ghost@example.com")
			u.ID = uuid.New()
			u.Role = models.RoleUser

			_, err := r.UpdateUser(t.Context(), u)

			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("update to taken email", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			_, err := r.CreateUser(t.Context(), newUser("taken@example.com"))
			require.NoError(t, err)
			other, err := r.CreateUser(t.Context(), newUser("other@example.com"))
			require.NoError(t, err)

			other.Email = "TAKEN@example.com"
			_, err = r.UpdateUser(t.Context(), other)

			assert.ErrorIs(t, err, apperrors.ErrDuplicateEmail)
		})
	})

	t.Run("list users", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			first, err := r.CreateUser(t.Context(), newUser("first@example.com"))
			require.NoError(t, err)
			second, err := r.CreateUser(t.Context(), newUser("second@example.com"))
			require.NoError(t, err)

			users, err := r.ListUsers(t.Context())

			require.NoError(t, err)
			assert.ElementsMatch(t, []models.User{first, second}, users)
		})
	})
}
