package signal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/matchgate/internal/domain"
)

// handlePing replies with server time and, when the connection is bound,
// the match status. A match already evicted from memory (finish racing the
// durable write) falls back to the store.
func (ctl *Controller) handlePing(ctx context.Context, connID uuid.UUID) (any, error) {
	info, ok := ctl.Registry.Get(connID)
	if !ok {
		return nil, domain.ErrConnectionNotFound
	}

	data := map[string]any{"time": time.Now().UTC()}
	if info.MatchID != uuid.Nil {
		status, err := ctl.Pools.Status(info.MatchID)
		if errors.Is(err, domain.ErrMatchNotFound) {
			if rec, serr := ctl.Store.GetMatch(ctx, info.MatchID); serr == nil {
				status = rec.Status
			} else {
				log.Warn().Err(serr).Str("module", "signal").Str("match", info.MatchID.String()).Msg("ping status fallback")
			}
		}
		if status != "" {
			data["match_status"] = status
		}
	}
	return data, nil
}
