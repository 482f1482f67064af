package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasscodeHashAndVerify(t *testing.T) {
	hash, err := HashPasscode("swordfish")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	match, err := VerifyPasscode("swordfish", hash)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = VerifyPasscode("SWORDFISH", hash)
	require.NoError(t, err)
	assert.False(t, match)

	match, err = VerifyPasscode("", hash)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestPasscodeHashesAreSalted(t *testing.T) {
	h1, err := HashPasscode("swordfish")
	require.NoError(t, err)
	h2, err := HashPasscode("swordfish")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestVerifyPasscodeBadHash(t *testing.T) {
	_, err := VerifyPasscode("x", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)

	_, err = VerifyPasscode("x", "$argon2id$v=99$m=65536,t=3,p=2$c2FsdA$aGFzaA")
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
}
