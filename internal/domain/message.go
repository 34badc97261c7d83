package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ClientMessage is the inbound envelope. Data stays raw until the command
// is known; each command has exactly one payload type, decoded once at the
// protocol boundary.
type ClientMessage struct {
	MsgID uuid.UUID       `json:"msg_id"`
	Cmd   string          `json:"cmd"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ServerMessage is the outbound envelope. MsgID echoes the request for
// replies and is freshly generated for unsolicited pushes.
type ServerMessage struct {
	MsgID uuid.UUID `json:"msg_id"`
	Code  int       `json:"code"`
	Data  any       `json:"data,omitempty"`
	Error string    `json:"error,omitempty"`
}

// Commands recognized by the gateway session.
const (
	CmdMatchStart     = "match.start"
	CmdMatchCancel    = "match.cancel"
	CmdMatchEnd       = "match.end"
	CmdMatchDiscovery = "match.discovery"
	CmdMatchDetails   = "match.details"
	CmdSysPing        = "sys.ping"
)

type StartPayload struct {
	MatchType string `json:"match_type"`
}

type DiscoveryPayload struct {
	TeamID     uuid.UUID `json:"team_id"`
	TreasureID uuid.UUID `json:"treasure_id"`
	Score      int       `json:"score"`
}

type DetailsPayload struct {
	MatchID uuid.UUID `json:"match_id"`
}

// DecodePayload unmarshals a command payload, folding any JSON error into
// ErrInvalidMessage so the session replies with the right code.
func DecodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return ErrInvalidMessage
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return ErrInvalidMessage
	}
	return nil
}
