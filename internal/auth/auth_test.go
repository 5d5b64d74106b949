package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/feedline-io/feedline/internal/auth"
	"github.com/feedline-io/feedline/internal/feed"
	"github.com/feedline-io/feedline/internal/store/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T, ttl time.Duration) (*auth.Service, *feed.UserService) {
	t.Helper()
	st, err := sqlite.Open("file:auth_" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return auth.NewService(st, []byte("test-secret"), ttl), feed.NewUserService(st)
}

func TestLoginRoundTrip(t *testing.T) {
	svc, users := newAuthService(t, time.Hour)
	user, err := users.Create(context.Background(), feed.UserCreateInput{
		Email:    "ada@example.com",
		Username: "ada",
		Password: "password123",
	})
	require.NoError(t, err)

	token, got, err := svc.Login(context.Background(), "ada@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	identity, err := svc.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, "ada@example.com", identity.Email)
	assert.Equal(t, "ada", identity.Username)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, users := newAuthService(t, time.Hour)
	_, err := users.Create(context.Background(), feed.UserCreateInput{
		Email:    "ada@example.com",
		Username: "ada",
		Password: "password123",
	})
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "ada@example.com", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	// Unknown email fails the same way as a wrong password.
	_, _, err = svc.Login(context.Background(), "nobody@example.com", "password123")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestResolveRejectsBadTokens(t *testing.T) {
	svc, users := newAuthService(t, time.Hour)
	user, err := users.Create(context.Background(), feed.UserCreateInput{
		Email:    "ada@example.com",
		Username: "ada",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = svc.Resolve("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	other := auth.NewService(nil, []byte("other-secret"), time.Hour)
	foreign, err := other.IssueToken(user)
	require.NoError(t, err)
	_, err = svc.Resolve(foreign)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestResolveRejectsExpiredToken(t *testing.T) {
	svc, users := newAuthService(t, -time.Minute)
	user, err := users.Create(context.Background(), feed.UserCreateInput{
		Email:    "ada@example.com",
		Username: "ada",
		Password: "password123",
	})
	require.NoError(t, err)

	token, err := svc.IssueToken(user)
	require.NoError(t, err)
	_, err = svc.Resolve(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
