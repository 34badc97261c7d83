package app

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/matchgate/internal/core"
)

type connEntry struct {
	userID  uuid.UUID
	matchID uuid.UUID // uuid.Nil when not bound
	sender  core.Sender
}

// ConnInfo is a copy of one connection's state, safe to use outside the
// registry lock.
type ConnInfo struct {
	ConnID  uuid.UUID
	UserID  uuid.UUID
	MatchID uuid.UUID
	Sender  core.Sender
}

// ConnectionRegistry is the sole writer of connection-to-match bindings.
// Bind, unbind and the fan-out read share one lock so a broadcast sees
// exactly the set of connections bound at call time.
type ConnectionRegistry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*connEntry
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{conns: make(map[uuid.UUID]*connEntry)}
}

func (r *ConnectionRegistry) Add(connID, userID uuid.UUID, sender core.Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = &connEntry{userID: userID, sender: sender}
	log.Info().Str("module", "app.registry").Str("conn", connID.String()).Str("user", userID.String()).Msg("connection registered")
}

func (r *ConnectionRegistry) Remove(connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connID)
	log.Info().Str("module", "app.registry").Str("conn", connID.String()).Msg("connection removed")
}

func (r *ConnectionRegistry) Get(connID uuid.UUID) (ConnInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[connID]
	if !ok {
		return ConnInfo{}, false
	}
	return ConnInfo{ConnID: connID, UserID: e.userID, MatchID: e.matchID, Sender: e.sender}, true
}

// BindMatch sets the connection's bound match; uuid.Nil clears it.
func (r *ConnectionRegistry) BindMatch(connID, matchID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[connID]
	if !ok {
		return false
	}
	e.matchID = matchID
	log.Debug().Str("module", "app.registry").Str("conn", connID.String()).Str("match", matchID.String()).Msg("match bound")
	return true
}

// ConnectionsForMatch snapshots every connection currently bound to a match.
func (r *ConnectionRegistry) ConnectionsForMatch(matchID uuid.UUID) []ConnInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ConnInfo
	for id, e := range r.conns {
		if e.matchID == matchID {
			out = append(out, ConnInfo{ConnID: id, UserID: e.userID, MatchID: e.matchID, Sender: e.sender})
		}
	}
	return out
}

// UnbindMatch clears every binding to the match and returns the connections
// that held one, in a single critical section.
func (r *ConnectionRegistry) UnbindMatch(matchID uuid.UUID) []ConnInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ConnInfo
	for id, e := range r.conns {
		if e.matchID == matchID {
			out = append(out, ConnInfo{ConnID: id, UserID: e.userID, MatchID: matchID, Sender: e.sender})
			e.matchID = uuid.Nil
		}
	}
	return out
}
