package handlers

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// PlayerConn is a single player's live presence: an outgoing event channel
// drained by the connection's write pump, plus the cancel func that tears
// the pump down.
type PlayerConn struct {
	PlayerID uuid.UUID
	Name     string
	Cancel   func()
	OutChan  chan map[string]interface{}

	mu     sync.Mutex
	closed bool
}

// Write pushes a message onto the player's OutChan without blocking. A full
// or torn-down connection drops the message; the client recovers state from
// the snapshot it gets on reconnect.
func (conn *PlayerConn) Write(msg map[string]interface{}) {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if conn.closed {
		return
	}
	select {
	case conn.OutChan <- msg:
	default:
		msgType, _ := msg["type"].(string)
		log.Printf("PlayerConn %s: OutChan full, dropped message type %q", conn.Name, msgType)
	}
}

// close shuts the outgoing channel exactly once, so the write pump drains
// and exits, and cancels the connection's context. The closed flag keeps
// later Writes from hitting the closed channel.
func (conn *PlayerConn) close() {
	conn.mu.Lock()
	already := conn.closed
	conn.closed = true
	conn.mu.Unlock()
	if already {
		return
	}
	close(conn.OutChan)
	if conn.Cancel != nil {
		conn.Cancel()
	}
}

// WriteError sends the generic error event.
func (conn *PlayerConn) WriteError(msg string) {
	conn.Write(map[string]interface{}{
		"type":    "error",
		"message": msg,
	})
}

// roomConns is the per-room connection registry backing the game's
// broadcast functions.
type roomConns struct {
	mu    sync.Mutex
	conns map[uuid.UUID]*PlayerConn
}

func newRoomConns() *roomConns {
	return &roomConns{conns: make(map[uuid.UUID]*PlayerConn)}
}

// register adds a connection, replacing (and tearing down) any previous
// connection for the same player.
func (rc *roomConns) register(conn *PlayerConn) {
	rc.mu.Lock()
	old := rc.conns[conn.PlayerID]
	rc.conns[conn.PlayerID] = conn
	rc.mu.Unlock()

	if old != nil && old != conn {
		old.close()
	}
}

// unregister removes a connection if it is still the current one for its
// player. A stale connection (already replaced by a rejoin) is left alone.
func (rc *roomConns) unregister(conn *PlayerConn) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if cur, ok := rc.conns[conn.PlayerID]; ok && cur == conn {
		delete(rc.conns, conn.PlayerID)
		return true
	}
	return false
}

// broadcast fans a message out to every registered connection.
func (rc *roomConns) broadcast(msg map[string]interface{}) {
	rc.mu.Lock()
	targets := make([]*PlayerConn, 0, len(rc.conns))
	for _, c := range rc.conns {
		targets = append(targets, c)
	}
	rc.mu.Unlock()

	for _, c := range targets {
		c.Write(msg)
	}
}

// closeAll tears down every registered connection. Used when the room is
// deleted.
func (rc *roomConns) closeAll() {
	rc.mu.Lock()
	conns := rc.conns
	rc.conns = make(map[uuid.UUID]*PlayerConn)
	rc.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
}

// sendTo delivers a message to one player, if connected.
func (rc *roomConns) sendTo(playerID uuid.UUID, msg map[string]interface{}) {
	rc.mu.Lock()
	c := rc.conns[playerID]
	rc.mu.Unlock()
	if c != nil {
		c.Write(msg)
	}
}
