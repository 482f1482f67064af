// internal/handlers/ws_test.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paircade/couples-tournament/internal/auth"
	"github.com/paircade/couples-tournament/internal/game"
	"github.com/paircade/couples-tournament/internal/models"
)

// wsTestServer spins up the realtime endpoint on an httptest server.
func wsTestServer(t *testing.T) (*GameServer, *httptest.Server) {
	t.Helper()
	require.NoError(t, auth.Init())
	gs := testGameServer(t)
	srv := httptest.NewServer(WSHandler(gs.Logger, gs))
	t.Cleanup(srv.Close)
	return gs, srv
}

func dialWS(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		Subprotocols: []string{"tournament"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(websocket.StatusNormalClosure, "") })
	return c
}

func sendMsg(t *testing.T, ctx context.Context, c *websocket.Conn, msg map[string]interface{}) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, c.Write(ctx, websocket.MessageText, data))
}

// readUntil reads events off the socket until one with the given type
// arrives, skipping broadcasts (lobbyUpdate etc.) in between.
func readUntil(t *testing.T, ctx context.Context, c *websocket.Conn, typ string) map[string]interface{} {
	t.Helper()
	for i := 0; i < 20; i++ {
		_, data, err := c.Read(ctx)
		require.NoError(t, err)
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg["type"] == typ {
			return msg
		}
	}
	t.Fatalf("never received event %q", typ)
	return nil
}

func TestCreateAndJoinOverWebSocket(t *testing.T) {
	_, srv := wsTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	host := dialWS(t, ctx, srv.URL)
	sendMsg(t, ctx, host, map[string]interface{}{
		"type":     models.MsgCreateGame,
		"name":     "Hannah",
		"passcode": "tulip",
	})
	created := readUntil(t, ctx, host, models.EvGameCreated)
	roomCode, _ := created["roomCode"].(string)
	require.NotEmpty(t, roomCode)
	assert.NotEmpty(t, created["token"])
	assert.NotEmpty(t, created["playerId"])

	guest := dialWS(t, ctx, srv.URL)

	// A game action before joining is rejected.
	sendMsg(t, ctx, guest, map[string]interface{}{"type": models.MsgStartGame})
	errEv := readUntil(t, ctx, guest, models.EvError)
	assert.NotEmpty(t, errEv["message"])

	// Wrong passcode is rejected; the connection may retry.
	sendMsg(t, ctx, guest, map[string]interface{}{
		"type":     models.MsgJoinGame,
		"roomCode": roomCode,
		"name":     "Alice",
		"passcode": "rose",
	})
	errEv = readUntil(t, ctx, guest, models.EvError)
	assert.Equal(t, "Incorrect passcode", errEv["message"])

	sendMsg(t, ctx, guest, map[string]interface{}{
		"type":     models.MsgJoinGame,
		"roomCode": roomCode,
		"name":     "Alice",
		"passcode": "tulip",
	})
	joined := readUntil(t, ctx, guest, models.EvJoinSuccess)
	assert.Equal(t, false, joined["rejoined"])
	assert.NotEmpty(t, joined["token"])
	state, ok := joined["gameState"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, roomCode, state["roomCode"])
	assert.Equal(t, "lobby", state["status"])
}

func TestRejoinWithTokenSkipsPasscode(t *testing.T) {
	gs, srv := wsTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g, _, err := gs.CreateRoom("Hannah", "", "tulip")
	require.NoError(t, err)

	alice := dialWS(t, ctx, srv.URL)
	sendMsg(t, ctx, alice, map[string]interface{}{
		"type":     models.MsgJoinGame,
		"roomCode": g.RoomCode,
		"name":     "Alice",
		"passcode": "tulip",
	})
	joined := readUntil(t, ctx, alice, models.EvJoinSuccess)
	token, _ := joined["token"].(string)
	require.NotEmpty(t, token)

	alice.Close(websocket.StatusGoingAway, "phone locked")
	require.Eventually(t, func() bool {
		g.Mu.Lock()
		defer g.Mu.Unlock()
		for _, p := range g.Players {
			if p.Name == "Alice" {
				return !p.Connected
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "disconnect was never registered")

	// The stored token stands in for the passcode, and for the name too.
	back := dialWS(t, ctx, srv.URL)
	sendMsg(t, ctx, back, map[string]interface{}{
		"type":     models.MsgJoinGame,
		"roomCode": g.RoomCode,
		"token":    token,
	})
	rejoined := readUntil(t, ctx, back, models.EvJoinSuccess)
	assert.Equal(t, true, rejoined["rejoined"])
}

func TestJoinUnknownNameMidGameClearsCredentials(t *testing.T) {
	gs, srv := wsTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g, host, err := gs.CreateRoom("Hannah", "", "")
	require.NoError(t, err)
	a, _, err := g.Join("Alice", "")
	require.NoError(t, err)
	b, _, err := g.Join("Bob", "")
	require.NoError(t, err)
	require.NoError(t, g.RequestPair(a.ID, b.ID))
	require.NoError(t, g.RequestPair(b.ID, a.ID))
	require.NoError(t, g.StartGame(host.ID))

	c := dialWS(t, ctx, srv.URL)
	sendMsg(t, ctx, c, map[string]interface{}{
		"type":     models.MsgJoinGame,
		"roomCode": g.RoomCode,
		"name":     "Mallory",
	})
	errEv := readUntil(t, ctx, c, models.EvError)
	assert.Equal(t, "playerNotFound", errEv["code"])
	assert.Equal(t, true, errEv["clearCredentials"])
}

func TestPreJoinRoomStatus(t *testing.T) {
	gs, srv := wsTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := dialWS(t, ctx, srv.URL)
	sendMsg(t, ctx, c, map[string]interface{}{
		"type":     models.MsgCheckRoomStatus,
		"roomCode": "qqqq",
	})
	status := readUntil(t, ctx, c, models.EvRoomStatus)
	assert.Equal(t, false, status["exists"])

	g, _, err := gs.CreateRoom("Hannah", "", "tulip")
	require.NoError(t, err)
	sendMsg(t, ctx, c, map[string]interface{}{
		"type":     models.MsgCheckRoomStatus,
		"roomCode": g.RoomCode,
	})
	status = readUntil(t, ctx, c, models.EvRoomStatus)
	assert.Equal(t, true, status["exists"])
	assert.Equal(t, true, status["hasPasscode"])
	assert.Equal(t, string(game.DecisionFreshJoin), status["decision"])
}
