package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/EmpoweredVote/news-portal/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestVerifyStripsHash(t *testing.T) {
	users := newMemUsers(t, User{ID: 7, Email: "ana@news.test", PasswordHash: hashFor(t, "s3cret")})
	v := NewVerifier(users)

	user, err := v.Verify(context.Background(), "ana@news.test", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Empty(t, user.PasswordHash)
	assert.NotEmpty(t, users.byID[7].PasswordHash, "stored record is untouched")
}

func TestVerifyUnknownUserStillCompares(t *testing.T) {
	v := NewVerifier(newMemUsers(t))
	require.NotEmpty(t, v.dummy, "dummy hash is ready before the first login")
	cost, err := bcrypt.Cost(v.dummy)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
	dummy := v.dummy

	_, err = v.Verify(context.Background(), "ghost@news.test", "anything")
	assert.ErrorIs(t, err, apperr.Invalid)
	assert.Equal(t, dummy, v.dummy, "miss path reuses the same hash")
}

func TestVerifyPropagatesStorageErrors(t *testing.T) {
	users := newMemUsers(t)
	users.err = apperr.Storage("auth.FindByEmail", errors.New("timeout"))

	_, err := NewVerifier(users).Verify(context.Background(), "ana@news.test", "s3cret")
	assert.Equal(t, apperr.StorageFailure, apperr.KindOf(err))
}
