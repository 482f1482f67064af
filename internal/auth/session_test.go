package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	require.NoError(t, Init())

	token, err := MintSession(SessionClaims{Name: "Alice", RoomCode: "BQRT", IsHost: false})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := VerifySession(token)
	require.NoError(t, err)
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, "BQRT", claims.RoomCode)
	assert.False(t, claims.IsHost)

	hostToken, err := MintSession(SessionClaims{Name: "Host", RoomCode: "BQRT", IsHost: true})
	require.NoError(t, err)
	hostClaims, err := VerifySession(hostToken)
	require.NoError(t, err)
	assert.True(t, hostClaims.IsHost)
}

func TestVerifySessionRejectsGarbage(t *testing.T) {
	require.NoError(t, Init())

	_, err := VerifySession("not-a-token")
	assert.Error(t, err)

	// Tokens signed with a previous key die with the restart.
	token, err := MintSession(SessionClaims{Name: "Alice", RoomCode: "BQRT"})
	require.NoError(t, err)
	require.NoError(t, Init())
	_, err = VerifySession(token)
	assert.Error(t, err)
}

func TestSessionExpireParsing(t *testing.T) {
	t.Setenv("SESSION_EXPIRE_TIME", "24h")
	require.NoError(t, Init())
	assert.Equal(t, 86400, sessionExpireSec)

	t.Setenv("SESSION_EXPIRE_TIME", "never")
	require.NoError(t, Init())
	assert.Equal(t, 0, sessionExpireSec)

	t.Setenv("SESSION_EXPIRE_TIME", "soon")
	assert.Error(t, Init())
}
