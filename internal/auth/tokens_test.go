package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenseintel/internal/core"
)

func newTestManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager("access-secret", "refresh-secret", 30*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return m
}

func TestTokenManager_AccessRoundTrip(t *testing.T) {
	m := newTestManager(t)
	userID := uuid.New()

	token, err := m.NewAccessToken(userID)
	require.NoError(t, err)
	assert.Greater(t, len(token), 20)

	parsed, err := m.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestTokenManager_RefreshRoundTrip(t *testing.T) {
	m := newTestManager(t)
	userID := uuid.New()

	token, err := m.NewRefreshToken(userID)
	require.NoError(t, err)

	parsed, err := m.VerifyRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestTokenManager_RejectsWrongTokenType(t *testing.T) {
	m := newTestManager(t)
	userID := uuid.New()

	refresh, err := m.NewRefreshToken(userID)
	require.NoError(t, err)

	// A refresh token must never pass as an access token: different secret
	// and different type claim.
	_, err = m.VerifyAccessToken(refresh)
	assert.True(t, errors.Is(err, core.ErrUnauthorized))

	access, err := m.NewAccessToken(userID)
	require.NoError(t, err)
	_, err = m.VerifyRefreshToken(access)
	assert.True(t, errors.Is(err, core.ErrUnauthorized))
}

func TestTokenManager_RejectsGarbage(t *testing.T) {
	m := newTestManager(t)

	for _, token := range []string{"", "not.a.valid.jwt", "eyJhbGciOiJmb29iIn0.xxxx.yyyy"} {
		_, err := m.VerifyAccessToken(token)
		assert.True(t, errors.Is(err, core.ErrUnauthorized), "token %q should be rejected", token)
	}
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	m, err := NewTokenManager("access-secret", "refresh-secret", -time.Minute, -time.Minute)
	require.NoError(t, err)

	token, err := m.NewAccessToken(uuid.New())
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(token)
	assert.True(t, errors.Is(err, core.ErrUnauthorized))
}

func TestNewTokenManager_RequiresSecrets(t *testing.T) {
	_, err := NewTokenManager("", "refresh", time.Minute, time.Hour)
	assert.Error(t, err)
	_, err = NewTokenManager("access", "", time.Minute, time.Hour)
	assert.Error(t, err)
}
