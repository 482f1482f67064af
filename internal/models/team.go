package models

import "github.com/google/uuid"

// Team is a pair of two distinct players. Teams only come into existence
// through a mutual pair request and always hold exactly two members.
type Team struct {
	ID        uuid.UUID `json:"teamId"`
	Player1ID uuid.UUID `json:"player1Id"`
	Player2ID uuid.UUID `json:"player2Id"`
	Score     int       `json:"score"`

	// Awards tracks points granted per round number. Re-awarding the same
	// round replaces the previous entry; that is the only path by which a
	// team's score can go down.
	Awards map[int]int `json:"-"`
}

// NewTeam pairs two players. Callers are responsible for ensuring the ids
// are distinct and neither player is already on a team.
func NewTeam(p1, p2 uuid.UUID) *Team {
	id, _ := uuid.NewRandom()
	return &Team{
		ID:        id,
		Player1ID: p1,
		Player2ID: p2,
		Awards:    make(map[int]int),
	}
}

// Has reports whether the given player is a member of this team.
func (t *Team) Has(playerID uuid.UUID) bool {
	return t.Player1ID == playerID || t.Player2ID == playerID
}

// PartnerOf returns the other member of the team, or uuid.Nil if playerID
// is not a member.
func (t *Team) PartnerOf(playerID uuid.UUID) uuid.UUID {
	switch playerID {
	case t.Player1ID:
		return t.Player2ID
	case t.Player2ID:
		return t.Player1ID
	}
	return uuid.Nil
}

// Award grants points for a round. A second award for the same round
// replaces the first (host re-score); otherwise the score only grows.
func (t *Team) Award(roundNumber, points int) {
	if prev, ok := t.Awards[roundNumber]; ok {
		t.Score += points - prev
	} else {
		t.Score += points
	}
	t.Awards[roundNumber] = points
}

// RevokeRound removes any award for the given round, e.g. when the host
// reopens a round for answering.
func (t *Team) RevokeRound(roundNumber int) {
	if prev, ok := t.Awards[roundNumber]; ok {
		t.Score -= prev
		delete(t.Awards, roundNumber)
	}
}

// Public returns the wire representation used in lobby updates and score
// broadcasts.
func (t *Team) Public() map[string]interface{} {
	return map[string]interface{}{
		"teamId":    t.ID.String(),
		"player1Id": t.Player1ID.String(),
		"player2Id": t.Player2ID.String(),
		"score":     t.Score,
	}
}
