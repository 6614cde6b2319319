package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		pw    string
		valid bool
	}{
		{"Abcd1234", true},
		{"", false},
		{"Ab1", false},
		{"abcd1234", false},
		{"ABCD1234", false},
		{"Abcdefgh", false},
		{"Äbcd1234ü", true},
		{strings.Repeat("Ab1", 50), false},
	}

	for _, tt := range tests {
		errs := make(map[string]string)
		validatePassword(errs, "password", tt.pw)
		require.Equal(t, tt.valid, len(errs) == 0, "password %q", tt.pw)
	}
}

func TestIsEmail(t *testing.T) {
	require.True(t, isEmail("a@x.com"))
	require.True(t, isEmail("first.last+tag@sub.example.org"))
	require.False(t, isEmail("a@x"))
	require.False(t, isEmail("Alice <a@x.com>"))
	require.False(t, isEmail("not-an-email"))
	require.False(t, isEmail(""))
}

func TestValidationError(t *testing.T) {
	err := invalid(map[string]string{"title": "is required", "email": "is required"})
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, "validation failed: email: is required, title: is required", err.Error())

	require.NoError(t, invalid(map[string]string{}))
}
