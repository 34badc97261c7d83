package signal

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dkeye/matchgate/internal/domain"
)

// handleMatchStart admits the user into a pool. Single-match membership is
// a delegated precondition checked here, against the store, before join.
// If the join fills the room the match is handed to the coordinator
// asynchronously; the reply never waits on persistence.
func (ctl *Controller) handleMatchStart(ctx context.Context, connID uuid.UUID, msg domain.ClientMessage) (any, error) {
	var p domain.StartPayload
	if err := domain.DecodePayload(msg.Data, &p); err != nil {
		return nil, err
	}
	mt, err := domain.ParseMatchType(p.MatchType)
	if err != nil {
		return nil, err
	}

	info, ok := ctl.Registry.Get(connID)
	if !ok {
		return nil, domain.ErrConnectionNotFound
	}
	if ctl.Joins != nil && !ctl.Joins.Allow(info.UserID) {
		return nil, domain.ErrRateLimited
	}
	if _, active, err := ctl.Store.ActiveMatchFor(ctx, info.UserID); err != nil {
		return nil, fmt.Errorf("active match lookup: %w", err)
	} else if active {
		return nil, domain.ErrUserAlreadyInMatch
	}

	snap, err := ctl.Pools.Join(info.UserID, mt)
	if err != nil {
		return nil, err
	}
	ctl.Registry.BindMatch(connID, snap.MatchID)

	if snap.Status == domain.StatusReady {
		ctl.Coord.Spawn(ctx, snap.MatchID)
	}
	return snap, nil
}

// handleMatchCancel leaves the bound match, if any. Acknowledged either
// way; leaving a room past Matching is the one rejected case.
func (ctl *Controller) handleMatchCancel(connID uuid.UUID) (any, error) {
	info, ok := ctl.Registry.Get(connID)
	if !ok {
		return nil, domain.ErrConnectionNotFound
	}
	if info.MatchID != uuid.Nil {
		if err := ctl.Pools.Leave(info.UserID, info.MatchID); err != nil {
			return nil, err
		}
		ctl.Registry.BindMatch(connID, uuid.Nil)
	}
	return map[string]any{"status": "cancelled"}, nil
}

func (ctl *Controller) handleMatchEnd(ctx context.Context, connID uuid.UUID) (any, error) {
	info, ok := ctl.Registry.Get(connID)
	if !ok {
		return nil, domain.ErrConnectionNotFound
	}
	if info.MatchID == uuid.Nil {
		return nil, domain.ErrMatchNotFound
	}
	winner, err := ctl.Coord.EndMatch(ctx, info.MatchID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"match_id":       info.MatchID,
		"winner_team_id": winner,
		"status":         domain.StatusFinished,
	}, nil
}

func (ctl *Controller) handleDiscovery(ctx context.Context, connID uuid.UUID, msg domain.ClientMessage) (any, error) {
	var p domain.DiscoveryPayload
	if err := domain.DecodePayload(msg.Data, &p); err != nil {
		return nil, err
	}
	info, ok := ctl.Registry.Get(connID)
	if !ok {
		return nil, domain.ErrConnectionNotFound
	}
	if info.MatchID == uuid.Nil {
		return nil, domain.ErrMatchNotFound
	}
	if err := ctl.Coord.RecordDiscovery(ctx, info.MatchID, p.TeamID, info.UserID, p.TreasureID, p.Score); err != nil {
		return nil, err
	}
	return map[string]any{"status": "recorded"}, nil
}

// handleDetails serves the durable read projection; finished matches are
// only visible here, never in the pools.
func (ctl *Controller) handleDetails(ctx context.Context, connID uuid.UUID, msg domain.ClientMessage) (any, error) {
	var p domain.DetailsPayload
	if len(msg.Data) > 0 {
		if err := domain.DecodePayload(msg.Data, &p); err != nil {
			return nil, err
		}
	}
	if p.MatchID == uuid.Nil {
		info, ok := ctl.Registry.Get(connID)
		if !ok {
			return nil, domain.ErrConnectionNotFound
		}
		p.MatchID = info.MatchID
	}
	if p.MatchID == uuid.Nil {
		return nil, domain.ErrMatchNotFound
	}
	details, err := ctl.Store.GetMatchDetails(ctx, p.MatchID)
	if err != nil {
		return nil, err
	}
	return details, nil
}
