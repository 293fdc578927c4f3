package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRole_IsAtLeast(t *testing.T) {
	tests := []struct {
		role     Role
		min      Role
		expected bool
	}{
		{RoleUser, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{RoleAdmin, RoleUser, true},
		{RoleAdmin, RoleAdmin, true},
		{Role("guest"), RoleUser, false},
		{Role(""), RoleUser, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+">="+string(tt.min), func(t *testing.T) {
			require.Equal(t, tt.expected, tt.role.IsAtLeast(tt.min))
		})
	}
}

func TestRole_IsValid(t *testing.T) {
	require.True(t, RoleUser.IsValid())
	require.True(t, RoleAdmin.IsValid())
	require.False(t, Role("root").IsValid())
}
