// internal/handlers/game_server.go
package handlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/paircade/couples-tournament/internal/auth"
	"github.com/paircade/couples-tournament/internal/cache"
	"github.com/paircade/couples-tournament/internal/database"
	"github.com/paircade/couples-tournament/internal/game"
	"github.com/paircade/couples-tournament/internal/models"
	"github.com/paircade/couples-tournament/internal/questions"
)

// endedRoomLinger is how long a finished room stays reachable so clients can
// read the final leaderboard before the room is deleted.
const endedRoomLinger = 30 * time.Second

// GameServer owns the room store, the question bank and the per-room
// connection registries, and wires every new game's callbacks: broadcasting,
// the action history queue and result persistence.
type GameServer struct {
	Rooms  *game.RoomStore
	Bank   *questions.Bank
	Logger *logrus.Logger
	Clock  clockwork.Clock

	// AnswerTimeLimit, when positive, is applied to every new room so the
	// answering phase force-closes on expiry.
	AnswerTimeLimit time.Duration

	connsMu sync.Mutex
	conns   map[string]*roomConns // room code -> connection registry
}

func NewGameServer(logger *logrus.Logger, bank *questions.Bank) *GameServer {
	return &GameServer{
		Rooms:  game.NewRoomStore(),
		Bank:   bank,
		Logger: logger,
		Clock:  clockwork.NewRealClock(),
		conns:  make(map[string]*roomConns),
	}
}

// CreateRoom builds a new game, registers it in the store, wires its
// callbacks and seats the host. Returns the game and the host player.
func (gs *GameServer) CreateRoom(hostName, avatar, passcode string) (*game.Game, *models.Player, error) {
	g := game.NewGame(gs.Clock)
	g.AnswerTimeLimit = gs.AnswerTimeLimit

	if passcode != "" {
		hash, err := auth.HashPasscode(passcode)
		if err != nil {
			return nil, nil, fmt.Errorf("hash passcode: %w", err)
		}
		g.PasscodeHash = hash
	}

	code := gs.Rooms.Add(g)

	rc := newRoomConns()
	gs.connsMu.Lock()
	gs.conns[code] = rc
	gs.connsMu.Unlock()

	g.Mu.Lock()
	g.BroadcastFn = rc.broadcast
	g.BroadcastToPlayerFn = rc.sendTo
	g.LogActionFn = gs.publishAction
	g.OnEmpty = gs.dropRoom
	g.OnEnd = gs.onGameEnd
	g.Mu.Unlock()

	host, err := g.AddHost(hostName, avatar)
	if err != nil {
		gs.dropRoom(code)
		return nil, nil, err
	}
	gs.Logger.Infof("Room %s created by %s (game %s)", code, hostName, g.ID)
	return g, host, nil
}

// connsFor returns the connection registry for a room code, nil if the room
// is gone.
func (gs *GameServer) connsFor(code string) *roomConns {
	gs.connsMu.Lock()
	defer gs.connsMu.Unlock()
	return gs.conns[code]
}

// dropRoom removes the room from the store and tears down its connections.
func (gs *GameServer) dropRoom(code string) {
	gs.Rooms.Delete(code)

	gs.connsMu.Lock()
	rc := gs.conns[code]
	delete(gs.conns, code)
	gs.connsMu.Unlock()

	if rc != nil {
		rc.closeAll()
	}
	gs.Logger.Infof("Room %s removed", code)
}

// publishAction pushes one action onto the Redis history queue without
// blocking game logic. Failures are logged and otherwise ignored.
func (gs *GameServer) publishAction(gameID uuid.UUID, roomCode string, actionIndex int, actor, actionType string, payload map[string]interface{}) {
	record := cache.GameActionRecord{
		GameID:        gameID,
		RoomCode:      roomCode,
		ActionIndex:   actionIndex,
		Actor:         actor,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := cache.PublishGameAction(ctx, record); err != nil {
			gs.Logger.Warnf("Failed to publish action %s for game %s: %v", actionType, gameID, err)
		}
	}()
}

// onGameEnd persists the final results and schedules room deletion after a
// linger window. Runs on its own goroutine, outside the game lock.
func (gs *GameServer) onGameEnd(g *game.Game, reason string, leaderboard []map[string]interface{}) {
	rounds, teams, names := g.ResultsSnapshot()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.RecordGameResults(ctx, g.ID, g.RoomCode, rounds, teams, names); err != nil {
		gs.Logger.Errorf("Failed to record results for game %s (%s): %v", g.ID, g.RoomCode, err)
	}

	code := g.RoomCode
	gs.Clock.AfterFunc(endedRoomLinger, func() {
		gs.dropRoom(code)
	})
	gs.Logger.Infof("Game %s in room %s ended (%s), %d teams", g.ID, code, reason, len(teams))
}
