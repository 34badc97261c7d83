package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/matchgate/internal/app"
	"github.com/dkeye/matchgate/internal/app/coord"
	"github.com/dkeye/matchgate/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// Controller is the gateway session layer: one websocket per player, a
// dispatch loop per connection, and the sole producer of broadcast pushes
// for coordinator state changes.
type Controller struct {
	Registry *app.ConnectionRegistry
	Pools    *app.PoolRegistry
	Coord    *coord.Coordinator
	Store    core.MatchStore
	Joins    *JoinRateLimiter // nil disables join throttling

	ReadLimit  int64
	PingPeriod time.Duration
}

// WsConn wraps a websocket with a buffered outbound queue. TrySend never
// blocks; a full queue is reported as backpressure and the frame dropped.
type WsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades the connection, registers it, sends the welcome
// acknowledgment and starts the pumps. ctx is the server context; it
// outlives any one connection so spawned start jobs are not tied to the
// connection that triggered them.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		// Anonymous connections get a throwaway identity.
		userID = uuid.New()
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := &WsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	connID := uuid.New()
	ctl.Registry.Add(connID, userID, conn)
	log.Info().Str("module", "signal").Str("conn", connID.String()).Str("user", userID.String()).Msg("new WS connection")

	ctl.sendJSON(conn, welcomeMessage(connID, userID))

	connCtx, cancel := context.WithCancel(ctx)
	go ctl.writePump(connCtx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, connID, conn)
	}()
}
