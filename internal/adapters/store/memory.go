// Package store implements the persistence collaborator: postgres for
// production, an in-memory store for dev mode and tests, and a redis
// decorator for the join hot path.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dkeye/matchgate/internal/core"
	"github.com/dkeye/matchgate/internal/domain"
)

type memMember struct {
	userID uuid.UUID
	score  int
}

type memTeam struct {
	id         uuid.UUID
	number     int
	maxPlayers int
	score      int
	members    []*memMember
}

type memMatch struct {
	id        uuid.UUID
	matchType domain.MatchType
	status    domain.Status
	perTeam   int
	startTime *time.Time
	endTime   *time.Time
	winner    uuid.UUID
	teams     []*memTeam
}

// Memory is a MatchStore kept entirely in process memory.
type Memory struct {
	mu      sync.RWMutex
	matches map[uuid.UUID]*memMatch
}

func NewMemory() *Memory {
	return &Memory{matches: make(map[uuid.UUID]*memMatch)}
}

func (m *Memory) CreateMatch(_ context.Context, matchID uuid.UUID, matchType domain.MatchType, playersPerTeam int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches[matchID] = &memMatch{
		id:        matchID,
		matchType: matchType,
		status:    domain.StatusMatching,
		perTeam:   playersPerTeam,
	}
	return nil
}

func (m *Memory) CreateTeam(_ context.Context, teamID, matchID uuid.UUID, teamNumber, maxPlayers int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[matchID]
	if !ok {
		return domain.ErrMatchNotFound
	}
	match.teams = append(match.teams, &memTeam{id: teamID, number: teamNumber, maxPlayers: maxPlayers})
	return nil
}

func (m *Memory) AddPlayerToTeam(_ context.Context, matchID, teamID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[matchID]
	if !ok {
		return domain.ErrMatchNotFound
	}
	for _, t := range match.teams {
		if t.id == teamID {
			t.members = append(t.members, &memMember{userID: userID})
			return nil
		}
	}
	return domain.ErrMatchNotFound
}

func (m *Memory) StartMatch(_ context.Context, matchID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[matchID]
	if !ok {
		return domain.ErrMatchNotFound
	}
	now := time.Now().UTC()
	match.status = domain.StatusInProgress
	match.startTime = &now
	return nil
}

func (m *Memory) EndMatch(_ context.Context, matchID uuid.UUID) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[matchID]
	if !ok || len(match.teams) == 0 {
		return uuid.Nil, domain.ErrMatchNotFound
	}
	teams := make([]*memTeam, len(match.teams))
	copy(teams, match.teams)
	// Highest total score wins; equal scores pick the lowest team id so the
	// result is deterministic across stores.
	sort.Slice(teams, func(i, j int) bool {
		if teams[i].score != teams[j].score {
			return teams[i].score > teams[j].score
		}
		return teams[i].id.String() < teams[j].id.String()
	})
	now := time.Now().UTC()
	match.status = domain.StatusFinished
	match.endTime = &now
	match.winner = teams[0].id
	return teams[0].id, nil
}

func (m *Memory) RecordDiscovery(_ context.Context, matchID, teamID, userID, _ uuid.UUID, score int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[matchID]
	if !ok {
		return domain.ErrMatchNotFound
	}
	for _, t := range match.teams {
		if t.id != teamID {
			continue
		}
		t.score += score
		for _, mb := range t.members {
			if mb.userID == userID {
				mb.score += score
				break
			}
		}
		return nil
	}
	return domain.ErrMatchNotFound
}

func (m *Memory) GetMatch(_ context.Context, matchID uuid.UUID) (core.MatchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	match, ok := m.matches[matchID]
	if !ok {
		return core.MatchRecord{}, domain.ErrMatchNotFound
	}
	rec := core.MatchRecord{
		ID:              match.id,
		MatchType:       match.matchType,
		Status:          match.status,
		RequiredPlayers: match.perTeam * 2,
	}
	for _, t := range match.teams {
		for _, mb := range t.members {
			rec.Players = append(rec.Players, mb.userID)
		}
	}
	return rec, nil
}

func (m *Memory) GetMatchTeams(_ context.Context, matchID uuid.UUID) ([]core.TeamRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	match, ok := m.matches[matchID]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	return teamRecords(match), nil
}

func (m *Memory) GetMatchDetails(_ context.Context, matchID uuid.UUID) (core.MatchDetails, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	match, ok := m.matches[matchID]
	if !ok {
		return core.MatchDetails{}, domain.ErrMatchNotFound
	}
	details := core.MatchDetails{
		ID:           match.id,
		MatchType:    match.matchType,
		Status:       match.status,
		StartTime:    match.startTime,
		EndTime:      match.endTime,
		WinnerTeamID: match.winner,
		Teams:        teamRecords(match),
	}
	switch {
	case match.startTime != nil && match.endTime != nil:
		details.Duration = match.endTime.Sub(*match.startTime)
	case match.startTime != nil:
		details.Duration = time.Since(*match.startTime)
	}
	return details, nil
}

func (m *Memory) ActiveMatchFor(_ context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, match := range m.matches {
		if match.status == domain.StatusFinished {
			continue
		}
		for _, t := range match.teams {
			for _, mb := range t.members {
				if mb.userID == userID {
					return match.id, true, nil
				}
			}
		}
	}
	return uuid.Nil, false, nil
}

func teamRecords(match *memMatch) []core.TeamRecord {
	out := make([]core.TeamRecord, 0, len(match.teams))
	for _, t := range match.teams {
		tr := core.TeamRecord{ID: t.id, TeamNumber: t.number, TotalScore: t.score}
		for _, mb := range t.members {
			tr.Members = append(tr.Members, core.MemberRecord{UserID: mb.userID, Score: mb.score})
		}
		out = append(out, tr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamNumber < out[j].TeamNumber })
	return out
}
