package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashSeedPassword(t *testing.T) {
	hash, err := HashSeedPassword("correct horse")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct horse")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("wrong")))

	_, err = HashSeedPassword("short")
	assert.ErrorContains(t, err, "at least 8 characters")
}
