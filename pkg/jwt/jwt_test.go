package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("secret", 42, "alice", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "42", claims.Subject)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", 42, "alice", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("other", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("secret", 42, "alice", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken("secret", "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
