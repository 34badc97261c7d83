package signal

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/matchgate/internal/domain"
)

// The controller is the coordinator's Notifier: lifecycle transitions fan
// out to every connection bound to the match. Delivery is best-effort and
// per-recipient; a dropped frame never aborts the broadcast.

func (ctl *Controller) MatchStarted(matchID uuid.UUID, snap domain.RoomSnapshot) {
	push := domain.ServerMessage{
		MsgID: uuid.New(),
		Code:  domain.CodeOK,
		Data: map[string]any{
			"event":    "match.started",
			"match_id": matchID,
			"status":   snap.Status,
		},
	}
	conns := ctl.Registry.ConnectionsForMatch(matchID)
	for _, ci := range conns {
		ctl.sendJSON(ci.Sender, push)
	}
	log.Debug().Str("module", "signal").Str("match", matchID.String()).Int("recipients", len(conns)).Msg("match.started broadcast")
}

// MatchFinished unbinds every participant in the same critical section that
// snapshots them, then pushes the result.
func (ctl *Controller) MatchFinished(matchID, winnerTeamID uuid.UUID) {
	push := domain.ServerMessage{
		MsgID: uuid.New(),
		Code:  domain.CodeOK,
		Data: map[string]any{
			"event":          "match.finished",
			"match_id":       matchID,
			"winner_team_id": winnerTeamID,
			"status":         domain.StatusFinished,
		},
	}
	conns := ctl.Registry.UnbindMatch(matchID)
	for _, ci := range conns {
		ctl.sendJSON(ci.Sender, push)
	}
	log.Debug().Str("module", "signal").Str("match", matchID.String()).Int("recipients", len(conns)).Msg("match.finished broadcast")
}
