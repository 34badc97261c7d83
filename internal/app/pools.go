package app

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/matchgate/internal/domain"
)

// PoolRegistry owns every in-memory match pool. One RWMutex serializes all
// structural mutation; a join or leave is a single critical section from
// room lookup through status transition, which is what keeps capacity and
// the no-double-admission invariant intact under concurrent requests.
type PoolRegistry struct {
	mu      sync.RWMutex
	pools   map[domain.MatchType][]*domain.Room
	minIdle map[domain.MatchType]int
}

// NewPoolRegistry primes each configured pool up to its minimum idle room
// count. Priming is pure in-memory work, so it happens inline rather than
// in a background task.
func NewPoolRegistry(minIdle map[domain.MatchType]int) *PoolRegistry {
	p := &PoolRegistry{
		pools:   make(map[domain.MatchType][]*domain.Room),
		minIdle: make(map[domain.MatchType]int, len(minIdle)),
	}
	for mt, n := range minIdle {
		p.minIdle[mt] = n
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, mt := range domain.MatchTypes {
		p.topUpLocked(mt)
	}
	return p
}

// Join admits a user into the first room of the given type with spare
// capacity, creating one if none fits. Filling the last seat transitions
// the room to Ready; the caller hands Ready rooms to the coordinator, the
// join itself never blocks on persistence.
func (p *PoolRegistry) Join(userID uuid.UUID, mt domain.MatchType) (domain.RoomSnapshot, error) {
	required, err := mt.RequiredPlayers()
	if err != nil {
		return domain.RoomSnapshot{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var room *domain.Room
	for _, r := range p.pools[mt] {
		if r.Status == domain.StatusMatching && r.CurrentPlayers < r.RequiredPlayers && !r.HasPlayer(userID) {
			room = r
			break
		}
	}
	if room == nil {
		room = p.newRoomLocked(mt, required)
	}

	room.Players = append(room.Players, userID)
	room.CurrentPlayers++
	if room.CurrentPlayers == room.RequiredPlayers {
		room.Status = domain.StatusReady
	}
	p.topUpLocked(mt)

	log.Debug().Str("module", "app.pools").
		Str("user", userID.String()).Str("match", room.ID.String()).
		Str("status", string(room.Status)).Int("players", room.CurrentPlayers).
		Msg("user joined room")
	return room.Snapshot(), nil
}

// Leave removes a user from a room still in Matching. Rooms past Matching
// have begun team commitment and reject this path. An emptied room is
// evicted only while the pool keeps more idle rooms than its minimum.
func (p *PoolRegistry) Leave(userID, matchID uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	mt, idx, room := p.findLocked(matchID)
	if room == nil {
		return domain.ErrMatchNotFound
	}
	if room.Status != domain.StatusMatching {
		return domain.ErrMatchAlreadyStarted
	}
	for i, pl := range room.Players {
		if pl != userID {
			continue
		}
		room.Players = append(room.Players[:i], room.Players[i+1:]...)
		room.CurrentPlayers--
		break
	}
	if room.CurrentPlayers == 0 && p.idleCountLocked(mt) > p.minIdle[mt] {
		pool := p.pools[mt]
		p.pools[mt] = append(pool[:idx], pool[idx+1:]...)
		log.Debug().Str("module", "app.pools").Str("match", matchID.String()).Msg("evicted idle room")
	}
	return nil
}

// Status is a read-only lookup across all pools. Finished matches have left
// memory; callers wanting those consult the store.
func (p *PoolRegistry) Status(matchID uuid.UUID) (domain.Status, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, _, room := p.findLocked(matchID)
	if room == nil {
		return "", domain.ErrMatchNotFound
	}
	return room.Status, nil
}

func (p *PoolRegistry) Snapshot(matchID uuid.UUID) (domain.RoomSnapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, _, room := p.findLocked(matchID)
	if room == nil {
		return domain.RoomSnapshot{}, domain.ErrMatchNotFound
	}
	return room.Snapshot(), nil
}

// ReadyRoster returns a copy of a Ready room's roster for the start
// sequence. The copy is what the coordinator carries into its durable
// writes; the pool lock is never held across those.
func (p *PoolRegistry) ReadyRoster(matchID uuid.UUID) ([]uuid.UUID, domain.RoomSnapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, _, room := p.findLocked(matchID)
	if room == nil {
		return nil, domain.RoomSnapshot{}, domain.ErrMatchNotFound
	}
	if room.Status != domain.StatusReady {
		return nil, domain.RoomSnapshot{}, domain.ErrMatchNotReady
	}
	roster := make([]uuid.UUID, len(room.Players))
	copy(roster, room.Players)
	return roster, room.Snapshot(), nil
}

// MarkInProgress records a completed start sequence. Only valid from Ready.
func (p *PoolRegistry) MarkInProgress(matchID uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _, room := p.findLocked(matchID)
	if room == nil {
		return domain.ErrMatchNotFound
	}
	if room.Status != domain.StatusReady {
		return domain.ErrMatchNotReady
	}
	room.Status = domain.StatusInProgress
	return nil
}

// Remove drops a room from memory, reporting whether it was present. Used
// by endMatch before the durable finish write.
func (p *PoolRegistry) Remove(matchID uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	mt, idx, room := p.findLocked(matchID)
	if room == nil {
		return false
	}
	pool := p.pools[mt]
	p.pools[mt] = append(pool[:idx], pool[idx+1:]...)
	p.topUpLocked(mt)
	return true
}

// IdleRooms counts empty Matching rooms of a type.
func (p *PoolRegistry) IdleRooms(mt domain.MatchType) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.idleCountLocked(mt)
}

// Rooms reports the pool size for a type.
func (p *PoolRegistry) Rooms(mt domain.MatchType) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.pools[mt])
}

func (p *PoolRegistry) findLocked(matchID uuid.UUID) (domain.MatchType, int, *domain.Room) {
	for mt, pool := range p.pools {
		for i, r := range pool {
			if r.ID == matchID {
				return mt, i, r
			}
		}
	}
	return "", 0, nil
}

func (p *PoolRegistry) newRoomLocked(mt domain.MatchType, required int) *domain.Room {
	room := &domain.Room{
		ID:              uuid.New(),
		Type:            mt,
		RequiredPlayers: required,
		Status:          domain.StatusMatching,
	}
	p.pools[mt] = append(p.pools[mt], room)
	return room
}

func (p *PoolRegistry) idleCountLocked(mt domain.MatchType) int {
	n := 0
	for _, r := range p.pools[mt] {
		if r.Idle() {
			n++
		}
	}
	return n
}

// topUpLocked keeps the admission buffer: at least minIdle empty Matching
// rooms per configured type.
func (p *PoolRegistry) topUpLocked(mt domain.MatchType) {
	min, ok := p.minIdle[mt]
	if !ok {
		return
	}
	required, err := mt.RequiredPlayers()
	if err != nil {
		return
	}
	for n := p.idleCountLocked(mt); n < min; n++ {
		p.newRoomLocked(mt, required)
	}
}
