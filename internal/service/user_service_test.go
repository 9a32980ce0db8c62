package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/thisissairam/vidoo-backend/internal/repository"
)

func newUserService() *UserService {
	return NewUserService(repository.NewInMemoryUserRepository(), nil)
}

func TestRegisterHashesPassword(t *testing.T) {
	svc := newUserService()

	user, err := svc.Register(context.Background(), "Alice", "alice", "s3cret")
	require.NoError(t, err)

	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "s3cret", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")))
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	svc := newUserService()

	tests := []struct {
		name, username, password string
	}{
		{"", "alice", "pw"},
		{"Alice", "", "pw"},
		{"Alice", "alice", ""},
	}

	for _, tc := range tests {
		_, err := svc.Register(context.Background(), tc.name, tc.username, tc.password)
		assert.Error(t, err)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newUserService()

	_, err := svc.Register(context.Background(), "Alice", "alice", "pw1")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "Other Alice", "alice", "pw2")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLoginIssuesToken(t *testing.T) {
	svc := newUserService()

	_, err := svc.Register(context.Background(), "Alice", "alice", "s3cret")
	require.NoError(t, err)

	user, err := svc.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Len(t, user.Token, 40)

	// Each login rotates the token.
	again, err := svc.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, user.Token, again.Token)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newUserService()

	_, err := svc.Register(context.Background(), "Alice", "alice", "s3cret")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown usernames fail the same way, no user enumeration.
	_, err = svc.Login(context.Background(), "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
