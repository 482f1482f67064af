// internal/handlers/messages.go
package handlers

// ClientMessage is the union of every message the browser client sends over
// the realtime channel. Only Type is always present; the remaining fields
// are populated per message type.
type ClientMessage struct {
	Type string `json:"type"`

	// Identity and room access (createGame, joinGame, checkRoomStatus).
	Name     string `json:"name,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	RoomCode string `json:"roomCode,omitempty"`
	Passcode string `json:"passcode,omitempty"`
	Token    string `json:"token,omitempty"`

	// Pairing (requestPair).
	TargetID string `json:"targetId,omitempty"`

	// Round setup (startRound). An empty Question asks the server to draw
	// one from the question bank for the given variant.
	Question      string   `json:"question,omitempty"`
	Variant       string   `json:"variant,omitempty"`
	Options       []string `json:"options,omitempty"`
	AnswerForBoth bool     `json:"answerForBoth,omitempty"`

	// Answer submission (submitAnswer).
	Text         string `json:"text,omitempty"`
	ResponseTime int64  `json:"responseTime,omitempty"`

	// Hosting the scoring phase (revealAnswer, awardPoints). Points is a
	// pointer so an explicit zero survives the omitempty round trip.
	PlayerID string `json:"playerId,omitempty"`
	TeamID   string `json:"teamId,omitempty"`
	Points   *int   `json:"points,omitempty"`
}
