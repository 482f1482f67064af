// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/paircade/couples-tournament/internal/auth"
	"github.com/paircade/couples-tournament/internal/game"
	"github.com/paircade/couples-tournament/internal/models"
)

// WSHandler is the single realtime endpoint. A connection starts unattached:
// the client may check a room, create one or join one. Once attached to a
// room the connection routes game messages to that room until it drops or
// the player leaves.
func WSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"tournament"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "tournament" {
			c.Close(BadSubprotocolError, "client must speak the tournament subprotocol")
			return
		}
		logger.Infof("WebSocket connection established from %s", r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		cs := &clientSession{ws: c, gs: gs, logger: logger, cancel: cancel}
		cs.run(ctx)

		// Cleanup: mark the player disconnected unless they left explicitly
		// or a newer connection already took over the identity.
		if cs.g != nil && cs.conn != nil && !cs.left {
			if rc := gs.connsFor(cs.g.RoomCode); rc != nil && rc.unregister(cs.conn) {
				cs.g.HandleDisconnect(cs.conn.PlayerID)
				logger.Infof("Player %s disconnected from room %s", cs.conn.Name, cs.g.RoomCode)
			}
		}
	}
}

// clientSession tracks one WebSocket connection's progress from unattached
// to attached-to-a-room.
type clientSession struct {
	ws     *websocket.Conn
	gs     *GameServer
	logger *logrus.Logger
	cancel context.CancelFunc

	g    *game.Game
	conn *PlayerConn
	left bool
}

// run is the read loop. It exits on read error, context cancellation or an
// explicit leave.
func (cs *clientSession) run(ctx context.Context) {
	for {
		typ, data, err := cs.ws.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return
			}
			if strings.Contains(err.Error(), "context canceled") {
				return
			}
			cs.logger.Warnf("WebSocket read error: %v (status %d)", err, status)
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			cs.replyError("Invalid JSON format")
			continue
		}

		var done bool
		if cs.g == nil {
			done = cs.handlePreJoin(ctx, msg)
		} else {
			done = cs.handleInRoom(msg)
		}
		if done {
			return
		}
	}
}

// reply sends a message back to this client. Before attachment the socket is
// written directly; afterwards the write pump owns the socket and messages
// go through the player's OutChan.
func (cs *clientSession) reply(msg map[string]interface{}) {
	if cs.conn != nil {
		cs.conn.Write(msg)
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		cs.logger.Warnf("Failed to marshal reply: %v", err)
		return
	}
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cs.ws.Write(writeCtx, websocket.MessageText, data); err != nil {
		cs.logger.Warnf("Failed to write reply: %v", err)
	}
}

func (cs *clientSession) replyError(text string) {
	cs.reply(map[string]interface{}{
		"type":    models.EvError,
		"message": text,
	})
}

// handlePreJoin routes the messages a client may send before it belongs to
// a room.
func (cs *clientSession) handlePreJoin(ctx context.Context, msg ClientMessage) bool {
	switch msg.Type {
	case models.MsgCheckRoomStatus:
		g, _ := cs.gs.Rooms.Get(msg.RoomCode)
		cs.reply(game.RoomStatusPayload(strings.ToUpper(strings.TrimSpace(msg.RoomCode)), g, sessionFromToken(msg.Token)))

	case models.MsgGetDisconnectedPlayers:
		players := []map[string]interface{}{}
		if g, ok := cs.gs.Rooms.Get(msg.RoomCode); ok {
			players = g.DisconnectedPlayers()
		}
		cs.reply(map[string]interface{}{
			"type":     models.EvDisconnectedPlayers,
			"roomCode": strings.ToUpper(strings.TrimSpace(msg.RoomCode)),
			"players":  players,
		})

	case models.MsgCreateGame:
		return cs.handleCreate(ctx, msg)

	case models.MsgJoinGame:
		return cs.handleJoin(ctx, msg)

	default:
		cs.replyError(fmt.Sprintf("Must join a room before sending %q", msg.Type))
	}
	return false
}

func (cs *clientSession) handleCreate(ctx context.Context, msg ClientMessage) bool {
	name := strings.TrimSpace(msg.Name)
	if name == "" {
		cs.replyError("Name is required to create a game")
		return false
	}

	g, host, err := cs.gs.CreateRoom(name, msg.Avatar, msg.Passcode)
	if err != nil {
		cs.replyError(err.Error())
		return false
	}
	if !cs.attach(ctx, g, host) {
		return false
	}

	cs.conn.Write(map[string]interface{}{
		"type":      models.EvGameCreated,
		"roomCode":  g.RoomCode,
		"gameId":    g.ID.String(),
		"playerId":  host.ID.String(),
		"token":     cs.mintToken(host.Name, g.RoomCode, true),
		"gameState": g.Snapshot(host.ID),
	})
	return false
}

func (cs *clientSession) handleJoin(ctx context.Context, msg ClientMessage) bool {
	g, ok := cs.gs.Rooms.Get(msg.RoomCode)
	if !ok {
		cs.replyError("Room not found")
		return false
	}

	sess := sessionFromToken(msg.Token)
	name := strings.TrimSpace(msg.Name)
	if name == "" && sess != nil && sess.RoomCode == g.RoomCode {
		name = sess.Name
	}
	if name == "" {
		cs.replyError("Name is required to join")
		return false
	}

	// A valid token for this room skips the passcode check on rejoin.
	hasToken := sess != nil && sess.RoomCode == g.RoomCode && strings.EqualFold(sess.Name, name)
	if g.PasscodeHash != "" && !hasToken {
		match, err := auth.VerifyPasscode(msg.Passcode, g.PasscodeHash)
		if err != nil || !match {
			cs.replyError("Incorrect passcode")
			return false
		}
	}

	player, rejoined, err := g.Join(name, msg.Avatar)
	if err != nil {
		if errors.Is(err, game.ErrPlayerNotFound) {
			cs.reply(map[string]interface{}{
				"type":             models.EvError,
				"code":             "playerNotFound",
				"clearCredentials": true,
				"message":          err.Error(),
			})
		} else {
			cs.replyError(err.Error())
		}
		return false
	}
	if !cs.attach(ctx, g, player) {
		return false
	}

	cs.conn.Write(map[string]interface{}{
		"type":      models.EvJoinSuccess,
		"roomCode":  g.RoomCode,
		"playerId":  player.ID.String(),
		"rejoined":  rejoined,
		"token":     cs.mintToken(player.Name, g.RoomCode, player.IsHost),
		"gameState": g.Snapshot(player.ID),
	})
	cs.logger.Infof("Player %s %s room %s", player.Name, joinVerb(rejoined), g.RoomCode)
	return false
}

func joinVerb(rejoined bool) string {
	if rejoined {
		return "rejoined"
	}
	return "joined"
}

// attach registers this connection in the room and starts its write pump.
func (cs *clientSession) attach(ctx context.Context, g *game.Game, p *models.Player) bool {
	rc := cs.gs.connsFor(g.RoomCode)
	if rc == nil {
		cs.replyError("Room not found")
		return false
	}
	conn := &PlayerConn{
		PlayerID: p.ID,
		Name:     p.Name,
		Cancel:   cs.cancel,
		OutChan:  make(chan map[string]interface{}, 16),
	}
	rc.register(conn)
	cs.g = g
	cs.conn = conn
	go writePump(ctx, cs.ws, conn, cs.logger)
	return true
}

// handleInRoom routes game messages once the connection belongs to a room.
// Returns true when the read loop should exit.
func (cs *clientSession) handleInRoom(msg ClientMessage) bool {
	pid := cs.conn.PlayerID

	var err error
	switch msg.Type {
	case models.MsgRequestPair:
		target, perr := uuid.Parse(msg.TargetID)
		if perr != nil {
			cs.replyError("Invalid targetId")
			return false
		}
		err = cs.g.RequestPair(pid, target)

	case models.MsgUnpair:
		err = cs.g.Unpair(pid)

	case models.MsgStartGame:
		err = cs.g.StartGame(pid)

	case models.MsgStartRound:
		err = cs.startRound(msg)

	case models.MsgSubmitAnswer:
		err = cs.g.SubmitAnswer(pid, msg.Text, msg.ResponseTime)

	case models.MsgRevealAnswer:
		target, perr := uuid.Parse(msg.PlayerID)
		if perr != nil {
			cs.replyError("Invalid playerId")
			return false
		}
		err = cs.g.RevealAnswer(pid, target)

	case models.MsgAwardPoints:
		if msg.Points == nil {
			cs.replyError("points is required")
			return false
		}
		team, perr := uuid.Parse(msg.TeamID)
		if perr != nil {
			cs.replyError("Invalid teamId")
			return false
		}
		err = cs.g.AwardPoints(pid, team, *msg.Points)

	case models.MsgNextRound:
		err = cs.g.NextRound(pid)

	case models.MsgBackToAnswering:
		err = cs.g.BackToAnswering(pid)

	case models.MsgGetDisconnectedPlayers:
		cs.reply(map[string]interface{}{
			"type":     models.EvDisconnectedPlayers,
			"roomCode": cs.g.RoomCode,
			"players":  cs.g.DisconnectedPlayers(),
		})

	case models.MsgCheckRoomStatus:
		cs.reply(game.RoomStatusPayload(cs.g.RoomCode, cs.g, nil))

	case models.MsgLeaveGame:
		cs.left = true
		if rc := cs.gs.connsFor(cs.g.RoomCode); rc != nil {
			rc.unregister(cs.conn)
		}
		cs.g.Leave(pid)
		cs.ws.Close(websocket.StatusNormalClosure, "left game")
		return true

	default:
		cs.replyError(fmt.Sprintf("Unknown message type: %s", msg.Type))
	}

	if err != nil {
		cs.replyError(err.Error())
	}
	return false
}

// startRound resolves the round description, drawing from the question bank
// when the host did not supply a question.
func (cs *clientSession) startRound(msg ClientMessage) error {
	variant := models.Variant(msg.Variant)
	if variant == "" {
		variant = models.VariantOpenEnded
	}
	if !models.ValidVariant(variant) {
		return fmt.Errorf("unknown variant %q", msg.Variant)
	}

	spec := game.RoundSpec{
		Question:      strings.TrimSpace(msg.Question),
		Variant:       variant,
		Options:       msg.Options,
		AnswerForBoth: msg.AnswerForBoth,
	}
	if spec.Question == "" {
		if cs.gs.Bank == nil || cs.gs.Bank.Len() == 0 {
			return errors.New("no question given and the question bank is empty")
		}
		q, err := cs.gs.Bank.Draw(variant)
		if err != nil {
			return err
		}
		spec.Question = q.Text
		spec.Variant = q.Variant
		spec.AnswerForBoth = q.AnswerForBoth
		if len(spec.Options) == 0 {
			spec.Options = q.Options
		}
	}
	return cs.g.StartRound(cs.conn.PlayerID, spec)
}

// sessionFromToken recovers the client's persisted identity from its session
// token. Invalid or missing tokens simply yield nil.
func sessionFromToken(token string) *game.SessionInfo {
	if token == "" {
		return nil
	}
	claims, err := auth.VerifySession(token)
	if err != nil {
		return nil
	}
	return &game.SessionInfo{
		Name:     claims.Name,
		RoomCode: claims.RoomCode,
		IsHost:   claims.IsHost,
	}
}

func (cs *clientSession) mintToken(name, roomCode string, isHost bool) string {
	token, err := auth.MintSession(auth.SessionClaims{
		Name:     name,
		RoomCode: roomCode,
		IsHost:   isHost,
	})
	if err != nil {
		cs.logger.Warnf("Failed to mint session token for %s: %v", name, err)
		return ""
	}
	return token
}

// writePump drains the player's OutChan onto the socket and keeps the
// connection alive with periodic pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *PlayerConn, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-conn.OutChan:
			if !ok {
				c.Close(websocket.StatusGoingAway, "connection replaced or room closed")
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Warnf("Failed to marshal outgoing msg for %s: %v", conn.Name, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("Failed to write to websocket for %s: %v", conn.Name, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("Ping failed for %s, assuming disconnect: %v", conn.Name, err)
				return
			}
		}
	}
}
