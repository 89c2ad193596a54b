package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test_secret", time.Hour)
	userID := uuid.NewString()

	token, err := tm.Generate(userID, "a@x.com", ScopeAPI)
	require.NoError(t, err)

	claims, err := tm.Validate(token, ScopeAPI)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, ScopeAPI, claims.Scope)
}

func TestTokenScopeMismatch(t *testing.T) {
	tm := NewTokenManager("test_secret", time.Hour)

	token, err := tm.Generate(uuid.NewString(), "a@x.com", ScopeAPI)
	require.NoError(t, err)

	_, err = tm.Validate(token, ScopeAdmin)
	assert.ErrorIs(t, err, ErrWrongScope)
}

func TestTokenExpired(t *testing.T) {
	tm := NewTokenManager("test_secret", time.Minute)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := tm.Generate(uuid.NewString(), "a@x.com", ScopeAPI)
	require.NoError(t, err)

	_, err = tm.Validate(token, ScopeAPI)
	assert.Error(t, err)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewTokenManager("one", time.Hour).Generate(uuid.NewString(), "a@x.com", ScopeAPI)
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Hour).Validate(token, ScopeAPI)
	assert.Error(t, err)
}
