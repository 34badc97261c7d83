package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/matchgate/internal/core"
)

const (
	activeKeyPrefix = "matchgate:active:"
	activeNone      = "-"
)

// ActiveMatchCache is a cache-aside decorator over a MatchStore. Only the
// single-match-membership lookup is cached, it sits on every join. Scores
// and projections stay pure write-through.
type ActiveMatchCache struct {
	core.MatchStore

	rdb *redis.Client
	ttl time.Duration
}

func NewActiveMatchCache(rdb *redis.Client, backend core.MatchStore, ttl time.Duration) *ActiveMatchCache {
	if ttl == 0 {
		ttl = 30 * time.Second
	}
	return &ActiveMatchCache{MatchStore: backend, rdb: rdb, ttl: ttl}
}

func (c *ActiveMatchCache) ActiveMatchFor(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	key := activeKeyPrefix + userID.String()

	val, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil && val == activeNone:
		return uuid.Nil, false, nil
	case err == nil:
		if matchID, perr := uuid.Parse(val); perr == nil {
			return matchID, true, nil
		}
	case !errors.Is(err, redis.Nil):
		// Cache trouble must not fail the join path.
		log.Warn().Err(err).Str("module", "store.redis").Msg("active match cache read")
	}

	matchID, active, err := c.MatchStore.ActiveMatchFor(ctx, userID)
	if err != nil {
		return uuid.Nil, false, err
	}
	cached := activeNone
	if active {
		cached = matchID.String()
	}
	if err := c.rdb.Set(ctx, key, cached, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("module", "store.redis").Msg("active match cache write")
	}
	return matchID, active, nil
}

// AddPlayerToTeam makes the user active; drop their cache entry.
func (c *ActiveMatchCache) AddPlayerToTeam(ctx context.Context, matchID, teamID, userID uuid.UUID) error {
	if err := c.MatchStore.AddPlayerToTeam(ctx, matchID, teamID, userID); err != nil {
		return err
	}
	c.invalidate(ctx, userID)
	return nil
}

// EndMatch deactivates every participant; their entries are dropped before
// the finish write is delegated so no stale "active" survives it.
func (c *ActiveMatchCache) EndMatch(ctx context.Context, matchID uuid.UUID) (uuid.UUID, error) {
	if teams, err := c.MatchStore.GetMatchTeams(ctx, matchID); err == nil {
		for _, t := range teams {
			for _, m := range t.Members {
				c.invalidate(ctx, m.UserID)
			}
		}
	}
	return c.MatchStore.EndMatch(ctx, matchID)
}

func (c *ActiveMatchCache) invalidate(ctx context.Context, userID uuid.UUID) {
	if err := c.rdb.Del(ctx, activeKeyPrefix+userID.String()).Err(); err != nil {
		log.Warn().Err(err).Str("module", "store.redis").Msg("active match cache invalidate")
	}
}
