package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedauth "profile-backend/internal/shared/auth"
	"profile-backend/internal/users"
)

func newPasswordService(t *testing.T) *PasswordService {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "test")
	return NewPasswordService(users.NewService(users.NewMemoryRepo()))
}

func TestSignUpThenSignIn(t *testing.T) {
	svc := newPasswordService(t)
	ctx := context.Background()

	session, err := svc.SignUp(ctx, " ada@example.com ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", session.User.Email)
	assert.Equal(t, users.ProviderPassword, session.User.Provider)

	claims, err := sharedauth.VerifyJWT(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.Subject)

	again, err := svc.SignIn(ctx, "ada@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, again.User.ID)
}

func TestSignUpRejects(t *testing.T) {
	svc := newPasswordService(t)
	ctx := context.Background()
	_, err := svc.SignUp(ctx, "ada@example.com", "hunter22")
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, "ada@example.com", "another1")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	_, err = svc.SignUp(ctx, "grace@example.com", "123")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.SignUp(ctx, "not-an-email", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	svc := newPasswordService(t)
	ctx := context.Background()
	_, err := svc.SignUp(ctx, "ada@example.com", "hunter22")
	require.NoError(t, err)

	_, err = svc.SignIn(ctx, "ada@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignIn(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
