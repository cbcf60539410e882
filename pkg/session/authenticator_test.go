package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/lecturefeed/pkg/session"
)

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestPasswordAuthenticator(t *testing.T) {
	t.Parallel()

	auth, err := session.NewPasswordAuthenticator(session.Credential{
		UserID:       "42",
		Username:     "Alice",
		PasswordHash: mustHash(t, "correct horse"),
	})
	require.NoError(t, err)
	ctx := context.Background()

	id, err := auth.Authenticate(ctx, "alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	id, err = auth.Authenticate(ctx, " ALICE ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	_, err = auth.Authenticate(ctx, "alice", "wrong")
	require.ErrorIs(t, err, session.ErrInvalidCredentials)

	_, err = auth.Authenticate(ctx, "mallory", "correct horse")
	require.ErrorIs(t, err, session.ErrInvalidCredentials)
}

func TestPasswordAuthenticator_Add(t *testing.T) {
	t.Parallel()

	auth, err := session.NewPasswordAuthenticator()
	require.NoError(t, err)

	hash := mustHash(t, "pw")
	require.NoError(t, auth.Add(session.Credential{UserID: "1", Username: "bob", PasswordHash: hash}))
	require.ErrorIs(t, auth.Add(session.Credential{UserID: "2", Username: "BOB", PasswordHash: hash}), session.ErrDuplicateUser)
	require.ErrorIs(t, auth.Add(session.Credential{Username: "carol", PasswordHash: hash}), session.ErrEmptyUserID)
	require.ErrorIs(t, auth.Add(session.Credential{UserID: "3", Username: "carol"}), session.ErrInvalidCredentials)
}

func TestHashPassword(t *testing.T) {
	t.Parallel()

	h, err := session.HashPassword("s3cret")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("s3cret")))
}
