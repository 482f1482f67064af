package game

import "github.com/paircade/couples-tournament/internal/models"

// RejoinDecision tells a reconnecting client which flow to show: the fresh
// join form, an automatic rejoin with its stored identity, or a picker over
// the room's disconnected identities.
type RejoinDecision string

const (
	DecisionFreshJoin    RejoinDecision = "freshJoin"
	DecisionAutoRejoin   RejoinDecision = "autoRejoin"
	DecisionPickIdentity RejoinDecision = "pickIdentity"
)

// SessionInfo is the server-side view of the client's persisted playerInfo
// record, recovered from its session token.
type SessionInfo struct {
	Name     string
	RoomCode string
	IsHost   bool
}

// ResolveRejoin decides how a client arriving at a room should proceed.
//
// Stored credentials win when they point at a disconnected identity in this
// room. Otherwise a lobby-phase room takes fresh joins, and a started room
// can only offer its disconnected identities back.
func ResolveRejoin(g *Game, sess *SessionInfo) RejoinDecision {
	if g == nil {
		return DecisionFreshJoin
	}
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if sess != nil && sess.RoomCode == g.RoomCode {
		if p := g.playerByName(sess.Name); p != nil && !p.Connected {
			return DecisionAutoRejoin
		}
	}
	if g.Phase == PhaseLobby {
		return DecisionFreshJoin
	}
	for _, p := range g.Players {
		if !p.Connected {
			return DecisionPickIdentity
		}
	}
	return DecisionFreshJoin
}

// RoomStatusPayload builds the roomStatus reply for checkRoomStatus. A nil
// game reports a nonexistent room.
func RoomStatusPayload(code string, g *Game, sess *SessionInfo) map[string]interface{} {
	if g == nil {
		return map[string]interface{}{
			"type":     models.EvRoomStatus,
			"roomCode": code,
			"exists":   false,
			"decision": string(DecisionFreshJoin),
		}
	}

	decision := ResolveRejoin(g, sess)

	g.Mu.Lock()
	defer g.Mu.Unlock()
	disconnected := 0
	for _, p := range g.Players {
		if !p.Connected {
			disconnected++
		}
	}
	return map[string]interface{}{
		"type":              models.EvRoomStatus,
		"roomCode":          g.RoomCode,
		"exists":            true,
		"status":            g.Phase.GameStatus(),
		"hasPasscode":       g.PasscodeHash != "",
		"playerCount":       len(g.Players),
		"disconnectedCount": disconnected,
		"decision":          string(decision),
	}
}
