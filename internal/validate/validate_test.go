package validate

import (
	"errors"
	"testing"

	"github.com/ieraasyl/SavorViews/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldErrors(t *testing.T, err error) FieldErrors {
	t.Helper()
	var fe FieldErrors
	require.True(t, errors.As(err, &fe), "expected FieldErrors, got %v", err)
	return fe
}

func TestLoginForm(t *testing.T) {
	v := New()

	t.Run("valid credentials pass", func(t *testing.T) {
		assert.NoError(t, v.Struct(models.LoginForm{Email: "x@y.com", Password: "Abc123!@"}))
	})

	tests := []struct {
		name     string
		form     models.LoginForm
		field    string
		expected string
	}{
		{"missing email", models.LoginForm{Password: "Abc123!@"}, "email", "Required"},
		{"email without at sign", models.LoginForm{Email: "xy.com", Password: "Abc123!@"}, "email", `Email must contain "@"`},
		{"malformed email", models.LoginForm{Email: "x@", Password: "Abc123!@"}, "email", "Invalid email"},
		{"missing password", models.LoginForm{Email: "x@y.com"}, "password", "Required"},
		{"no uppercase", models.LoginForm{Email: "x@y.com", Password: "abc123!@"}, "password", "Password must contain at least one uppercase letter"},
		{"no lowercase", models.LoginForm{Email: "x@y.com", Password: "ABC123!@"}, "password", "Password must contain at least one lowercase letter"},
		{"no ASCII uppercase", models.LoginForm{Email: "x@y.com", Password: "Ébc123!@"}, "password", "Password must contain at least one uppercase letter"},
		{"no ASCII lowercase", models.LoginForm{Email: "x@y.com", Password: "ABC123!ß"}, "password", "Password must contain at least one lowercase letter"},
		{"no digit", models.LoginForm{Email: "x@y.com", Password: "Abcdef!@"}, "password", "Password must contain at least one digit"},
		{"no symbol", models.LoginForm{Email: "x@y.com", Password: "Abc12345"}, "password", "Password must contain at least one special character"},
		{"symbol outside the set", models.LoginForm{Email: "x@y.com", Password: "Abc123-_"}, "password", "Password must contain at least one special character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := fieldErrors(t, v.Struct(tt.form))
			assert.Equal(t, tt.expected, fe[tt.field])
		})
	}
}

func TestSignupForm(t *testing.T) {
	v := New()
	valid := models.SignupForm{
		Email:           "x@y.com",
		Password:        "Abc123!@",
		ConfirmPassword: "Abc123!@",
		Terms:           true,
	}

	t.Run("valid signup passes", func(t *testing.T) {
		assert.NoError(t, v.Struct(valid))
	})

	t.Run("passwords must match", func(t *testing.T) {
		form := valid
		form.ConfirmPassword = "Abc123!#"
		fe := fieldErrors(t, v.Struct(form))
		assert.Equal(t, "Passwords must match", fe["confirmPassword"])
	})

	t.Run("terms must be accepted", func(t *testing.T) {
		form := valid
		form.Terms = false
		fe := fieldErrors(t, v.Struct(form))
		assert.Equal(t, "You must agree with the terms and conditions", fe["terms"])
		assert.Len(t, fe, 1)
	})
}

func TestReviewForm(t *testing.T) {
	v := New()

	t.Run("valid review passes", func(t *testing.T) {
		assert.NoError(t, v.Struct(models.ReviewForm{Content: "Great pasta, friendly staff", Rating: 5}))
	})

	t.Run("short content", func(t *testing.T) {
		fe := fieldErrors(t, v.Struct(models.ReviewForm{Content: "too short", Rating: 3}))
		assert.Equal(t, "Must be 10 characters or more", fe["content"])
	})

	t.Run("missing rating", func(t *testing.T) {
		fe := fieldErrors(t, v.Struct(models.ReviewForm{Content: "Great pasta, friendly staff"}))
		assert.Equal(t, "Required", fe["rating"])
	})

	t.Run("rating above five", func(t *testing.T) {
		fe := fieldErrors(t, v.Struct(models.ReviewForm{Content: "Great pasta, friendly staff", Rating: 6}))
		assert.Equal(t, "Rating must be between 1 and 5", fe["rating"])
	})
}
