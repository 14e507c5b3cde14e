package service

import (
	"context"
	"testing"

	"autoflow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstRegisteredUserBecomesAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.users.Register(ctx, RegisterRequest{
		Name:     "Marta Ops",
		Email:    "marta@example.com",
		Password: "s3cret-pass",
		Role:     model.RoleStaff,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, first.Role)

	second, err := env.users.Register(ctx, RegisterRequest{
		Name:     "Luis Desk",
		Email:    "luis@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, second.Role)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Register(ctx, RegisterRequest{
		Name:     "Marta Ops",
		Email:    "marta@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	_, err = env.users.Register(ctx, RegisterRequest{
		Name:     "Impostor",
		Email:    "marta@example.com",
		Password: "another-pass",
	})
	assert.EqualError(t, err, "email already exists")
}

func TestLoginRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Register(ctx, RegisterRequest{
		Name:     "Marta Ops",
		Email:    "marta@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	resp, err := env.users.Login(ctx, LoginRequest{Email: "marta@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "marta@example.com", resp.User.Email)

	_, err = env.users.Login(ctx, LoginRequest{Email: "marta@example.com", Password: "wrong"})
	assert.EqualError(t, err, "invalid email or password")
}

func TestLoginRateLimitedPerEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Burn through the burst with failed attempts.
	for i := 0; i < 5; i++ {
		_, err := env.users.Login(ctx, LoginRequest{Email: "bot@example.com", Password: "guess"})
		assert.EqualError(t, err, "invalid email or password")
	}

	_, err := env.users.Login(ctx, LoginRequest{Email: "bot@example.com", Password: "guess"})
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	// Another identifier is unaffected.
	_, err = env.users.Login(ctx, LoginRequest{Email: "other@example.com", Password: "guess"})
	assert.EqualError(t, err, "invalid email or password")
}
