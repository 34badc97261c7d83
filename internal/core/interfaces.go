package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dkeye/matchgate/internal/domain"
)

// Frame is one outbound text frame, already encoded.
type Frame []byte

// Sender is the outbound push primitive of a connection.
// Owned by the adapter; the adapter must Close() it.
type Sender interface {
	TrySend(Frame) error
	Close()
}

// MatchRecord is the store's view of a match roster.
type MatchRecord struct {
	ID              uuid.UUID
	MatchType       domain.MatchType
	Status          domain.Status
	RequiredPlayers int
	Players         []uuid.UUID
}

type MemberRecord struct {
	UserID uuid.UUID `json:"user_id"`
	Score  int       `json:"score"`
}

type TeamRecord struct {
	ID         uuid.UUID      `json:"id"`
	TeamNumber int            `json:"team_number"`
	TotalScore int            `json:"total_score"`
	Members    []MemberRecord `json:"members"`
}

// MatchDetails is the read projection served to clients.
type MatchDetails struct {
	ID           uuid.UUID        `json:"id"`
	MatchType    domain.MatchType `json:"match_type"`
	Status       domain.Status    `json:"status"`
	StartTime    *time.Time       `json:"start_time,omitempty"`
	EndTime      *time.Time       `json:"end_time,omitempty"`
	WinnerTeamID uuid.UUID        `json:"winner_team_id,omitempty"`
	Teams        []TeamRecord     `json:"teams"`
	Duration     time.Duration    `json:"duration,omitempty"`
}

// MatchStore is the persistence collaborator. Implementations must be safe
// for concurrent use; callers never hold an in-memory lock across a call.
type MatchStore interface {
	CreateMatch(ctx context.Context, matchID uuid.UUID, matchType domain.MatchType, playersPerTeam int) error
	CreateTeam(ctx context.Context, teamID, matchID uuid.UUID, teamNumber, maxPlayers int) error
	AddPlayerToTeam(ctx context.Context, matchID, teamID, userID uuid.UUID) error
	StartMatch(ctx context.Context, matchID uuid.UUID) error

	// EndMatch computes the winner (highest total score, lowest team id on a
	// tie) and persists the finished state. Returns the winner team id.
	EndMatch(ctx context.Context, matchID uuid.UUID) (uuid.UUID, error)

	RecordDiscovery(ctx context.Context, matchID, teamID, userID, treasureID uuid.UUID, score int) error

	GetMatch(ctx context.Context, matchID uuid.UUID) (MatchRecord, error)
	GetMatchTeams(ctx context.Context, matchID uuid.UUID) ([]TeamRecord, error)
	GetMatchDetails(ctx context.Context, matchID uuid.UUID) (MatchDetails, error)

	// ActiveMatchFor reports the match a user currently belongs to, if any.
	// Enforces single-match membership on the join path.
	ActiveMatchFor(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error)
}
