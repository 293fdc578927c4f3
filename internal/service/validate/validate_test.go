package validate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/taskmanager/internal/apperrors"
)

func TestStruct(t *testing.T) {
	type input struct {
		Name     string `json:"name" validate:"required,min=2,max=5"`
		Email    string `json:"email" validate:"required,email"`
		Status   string `json:"status" validate:"omitempty,oneof=todo done"`
		Internal string `json:"-" validate:"max=1"`
	}

	t.Run("valid", func(t *testing.T) {
		err := Struct(input{Name: "Bob", Email: "bob@example.com", Status: "done"})
		require.NoError(t, err)
	})

	t.Run("field messages", func(t *testing.T) {
		err := Struct(input{Name: "B", Email: "not-an-email", Status: "later"})

		require.ErrorIs(t, err, apperrors.ErrValidation)

		vErr, ok := err.(*apperrors.ValidationError)
		require.True(t, ok)
		require.Equal(t, map[string]string{
			"name":   "Value is too short (minimum 2)",
			"email":  "Must be a valid email address",
			"status": "Must be one of: todo, done",
		}, vErr.Fields)
	})

	t.Run("required and max", func(t *testing.T) {
		err := Struct(input{Name: "Roberto"})

		vErr, ok := err.(*apperrors.ValidationError)
		require.True(t, ok)
		require.Equal(t, "Value is too long (maximum 5)", vErr.Fields["name"])
		require.Equal(t, "This field is required", vErr.Fields["email"])
	})
}
