// internal/handlers/http.go
package handlers

import (
	"encoding/json"
	"net/http"
)

// HealthHandler reports liveness.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// RoomListHandler lists active room codes and player counts. Intended for
// operational visibility, not for the game client.
func RoomListHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms := []map[string]interface{}{}
		for _, code := range gs.Rooms.Codes() {
			g, ok := gs.Rooms.Get(code)
			if !ok {
				continue
			}
			g.Mu.Lock()
			rooms = append(rooms, map[string]interface{}{
				"roomCode":    g.RoomCode,
				"status":      g.Phase.GameStatus(),
				"playerCount": len(g.Players),
				"hasPasscode": g.PasscodeHash != "",
			})
			g.Mu.Unlock()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count": len(rooms),
			"rooms": rooms,
		})
	}
}
