package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/matchgate/internal/core"
	"github.com/dkeye/matchgate/internal/domain"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *WsConn) {
	pingPeriod := ctl.PingPeriod
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump runs the per-connection dispatch loop. On exit the connection is
// unregistered promptly so fan-out never targets a dead socket.
func (ctl *Controller) readPump(ctx context.Context, connID uuid.UUID, c *WsConn) {
	defer func() {
		ctl.Registry.Remove(connID)
		c.Close()
		log.Info().Str("module", "signal").Str("conn", connID.String()).Msg("readPump closing")
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", connID.String()).Msg("readPump read error")
			}
			return
		}
		ctl.handleMessage(ctx, connID, c, data)
	}
}

// handleMessage decodes one inbound envelope and dispatches it. A decode
// failure or unknown command is reported on the same connection; errors
// never close it.
func (ctl *Controller) handleMessage(ctx context.Context, connID uuid.UUID, sender core.Sender, data []byte) {
	var msg domain.ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		ctl.reply(sender, uuid.New(), nil, domain.ErrInvalidMessage)
		return
	}

	var (
		resp any
		err  error
	)
	switch msg.Cmd {
	case domain.CmdMatchStart:
		resp, err = ctl.handleMatchStart(ctx, connID, msg)
	case domain.CmdMatchCancel:
		resp, err = ctl.handleMatchCancel(connID)
	case domain.CmdMatchEnd:
		resp, err = ctl.handleMatchEnd(ctx, connID)
	case domain.CmdMatchDiscovery:
		resp, err = ctl.handleDiscovery(ctx, connID, msg)
	case domain.CmdMatchDetails:
		resp, err = ctl.handleDetails(ctx, connID, msg)
	case domain.CmdSysPing:
		resp, err = ctl.handlePing(ctx, connID)
	default:
		log.Warn().Str("module", "signal").Str("cmd", msg.Cmd).Msg("unknown command")
		err = domain.ErrInvalidMessage
	}
	ctl.reply(sender, msg.MsgID, resp, err)
}

func (ctl *Controller) reply(sender core.Sender, msgID uuid.UUID, data any, err error) {
	out := domain.ServerMessage{MsgID: msgID, Code: domain.CodeOf(err), Data: data}
	if err != nil {
		out.Error = err.Error()
	}
	ctl.sendJSON(sender, out)
}

func (ctl *Controller) sendJSON(sender core.Sender, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	if err := sender.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("sendJSON dropped")
	}
}

func welcomeMessage(connID, userID uuid.UUID) domain.ServerMessage {
	return domain.ServerMessage{
		MsgID: uuid.New(),
		Code:  domain.CodeOK,
		Data: map[string]any{
			"conn_id": connID,
			"user_id": userID,
			"message": "connected successfully",
		},
	}
}
