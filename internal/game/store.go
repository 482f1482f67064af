package game

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// RoomStore manages the live rooms in memory, keyed by join code.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[string]*Game
	rng   *rand.Rand
}

// NewRoomStore returns an empty in-memory store.
func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*Game),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Add registers a game, assigning it a unique room code, and wires the
// OnEmpty callback so abandoned rooms remove themselves.
func (s *RoomStore) Add(g *Game) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := NewRoomCode(s.rng)
	for _, taken := s.rooms[code]; taken; _, taken = s.rooms[code] {
		code = NewRoomCode(s.rng)
	}
	g.RoomCode = code
	g.OnEmpty = func(roomCode string) { s.Delete(roomCode) }
	s.rooms[code] = g
	return code
}

// Get retrieves a room by code, case-insensitively: join codes are typed by
// hand on phones.
func (s *RoomStore) Get(code string) (*Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.rooms[strings.ToUpper(strings.TrimSpace(code))]
	return g, ok
}

// Delete removes a room.
func (s *RoomStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, strings.ToUpper(strings.TrimSpace(code)))
}

// Codes returns the active room codes, for the debug listing endpoint.
func (s *RoomStore) Codes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes := make([]string, 0, len(s.rooms))
	for code := range s.rooms {
		codes = append(codes, code)
	}
	return codes
}

// Len returns the number of live rooms.
func (s *RoomStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}
