package domain

import "github.com/google/uuid"

// Status is the room lifecycle state. Transitions are monotonic:
// Matching -> Ready -> InProgress -> Finished.
type Status string

const (
	StatusMatching   Status = "matching"
	StatusReady      Status = "ready"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// Room is one match instance tracked in memory. It carries no lock of its
// own: once published into a pool it is mutated only under the pool lock,
// and everything handed out of the registry is a copy.
type Room struct {
	ID              uuid.UUID
	Type            MatchType
	RequiredPlayers int
	CurrentPlayers  int
	Players         []uuid.UUID
	Status          Status
}

func (r *Room) HasPlayer(userID uuid.UUID) bool {
	for _, p := range r.Players {
		if p == userID {
			return true
		}
	}
	return false
}

func (r *Room) Idle() bool {
	return r.CurrentPlayers == 0 && r.Status == StatusMatching
}

// Snapshot copies the fields callers are allowed to see outside the pool lock.
func (r *Room) Snapshot() RoomSnapshot {
	return RoomSnapshot{
		MatchID:         r.ID,
		Status:          r.Status,
		MatchType:       r.Type,
		CurrentPlayers:  r.CurrentPlayers,
		RequiredPlayers: r.RequiredPlayers,
	}
}

// RoomSnapshot is the read-only view returned by pool operations.
type RoomSnapshot struct {
	MatchID         uuid.UUID `json:"match_id"`
	Status          Status    `json:"status"`
	MatchType       MatchType `json:"match_type"`
	CurrentPlayers  int       `json:"current_players"`
	RequiredPlayers int       `json:"required_players"`
}
