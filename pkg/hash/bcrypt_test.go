package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheck(t *testing.T) {
	Cost = bcrypt.MinCost

	h, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", h)

	assert.True(t, CheckPassword(h, "correct horse"))
	assert.False(t, CheckPassword(h, "wrong horse"))
	assert.False(t, CheckPassword("not-a-hash", "correct horse"))
}
