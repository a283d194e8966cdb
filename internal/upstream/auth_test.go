package upstream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	token, err := tm.Issue("u-42")
	require.NoError(t, err)

	subject, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-42", subject)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	token, err := NewTokenManager("secret-a", time.Hour).Issue("u-1")
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", time.Hour).Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	token, err := NewTokenManager("secret", -time.Minute).Issue("u-1")
	require.NoError(t, err)

	_, err = NewTokenManager("secret", -time.Minute).Verify(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("", "anything"))
}
