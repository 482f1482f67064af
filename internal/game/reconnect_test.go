// internal/game/reconnect_test.go
package game

import (
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paircade/couples-tournament/internal/models"
)

func TestResolveRejoinFreshLobby(t *testing.T) {
	g, _, _, _ := setupLobby(t, clockwork.NewFakeClock())

	assert.Equal(t, DecisionFreshJoin, ResolveRejoin(g, nil))
	assert.Equal(t, DecisionFreshJoin, ResolveRejoin(nil, nil))

	// A token for a different room does not help.
	sess := &SessionInfo{Name: "Alice", RoomCode: "WXYZ"}
	assert.Equal(t, DecisionFreshJoin, ResolveRejoin(g, sess))
}

func TestResolveRejoinStoredCredentials(t *testing.T) {
	g, _, players, _ := setupLobby(t, clockwork.NewFakeClock())
	g.HandleDisconnect(players[0].ID)

	sess := &SessionInfo{Name: "Alice", RoomCode: g.RoomCode}
	assert.Equal(t, DecisionAutoRejoin, ResolveRejoin(g, sess))

	// Credentials for a connected identity fall through to the default.
	sess = &SessionInfo{Name: "Bob", RoomCode: g.RoomCode}
	assert.Equal(t, DecisionFreshJoin, ResolveRejoin(g, sess))
}

func TestResolveRejoinStartedGameOffersPicker(t *testing.T) {
	g, host, players, _ := setupLobby(t, clockwork.NewFakeClock())
	require.NoError(t, g.StartGame(host.ID))

	// Nobody disconnected: a stranger gets the fresh-join answer even though
	// the game will reject an unknown name.
	assert.Equal(t, DecisionFreshJoin, ResolveRejoin(g, nil))

	g.HandleDisconnect(players[2].ID)
	assert.Equal(t, DecisionPickIdentity, ResolveRejoin(g, nil))
}

func TestRoomStatusPayload(t *testing.T) {
	payload := RoomStatusPayload("QQQQ", nil, nil)
	assert.Equal(t, models.EvRoomStatus, payload["type"])
	assert.Equal(t, false, payload["exists"])

	g, _, players, _ := setupLobby(t, clockwork.NewFakeClock())
	g.PasscodeHash = "$argon2id$..."
	g.HandleDisconnect(players[0].ID)

	payload = RoomStatusPayload(g.RoomCode, g, nil)
	assert.Equal(t, true, payload["exists"])
	assert.Equal(t, "lobby", payload["status"])
	assert.Equal(t, true, payload["hasPasscode"])
	assert.Equal(t, 5, payload["playerCount"])
	assert.Equal(t, 1, payload["disconnectedCount"])
}
