package models

import "github.com/google/uuid"

// Player is one participant in a room. The stable identity across reconnects
// is the Name: connection ids churn every time a browser reconnects, so
// rejoin matching is done by name, never by connection.
type Player struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	IsHost    bool      `json:"isHost"`
	Connected bool      `json:"connected"`

	// PartnerID is the confirmed partner once a team has formed, uuid.Nil
	// otherwise. Pending pair requests live on the Game, not here.
	PartnerID uuid.UUID `json:"partnerId,omitempty"`
	TeamID    uuid.UUID `json:"teamId,omitempty"`
}

// Public returns the wire representation used in lobby updates and state
// snapshots.
func (p *Player) Public() map[string]interface{} {
	m := map[string]interface{}{
		"id":        p.ID.String(),
		"name":      p.Name,
		"isHost":    p.IsHost,
		"connected": p.Connected,
	}
	if p.Avatar != "" {
		m["avatar"] = p.Avatar
	}
	if p.PartnerID != uuid.Nil {
		m["partnerId"] = p.PartnerID.String()
	}
	if p.TeamID != uuid.Nil {
		m["teamId"] = p.TeamID.String()
	}
	return m
}
