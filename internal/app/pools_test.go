package app_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/matchgate/internal/app"
	"github.com/dkeye/matchgate/internal/domain"
)

func TestNewPoolRegistry_Priming(t *testing.T) {
	pools := app.NewPoolRegistry(map[domain.MatchType]int{
		domain.OneVsOne:   5,
		domain.TwoVsTwo:   3,
		domain.FiveVsFive: 2,
	})

	assert.Equal(t, 5, pools.IdleRooms(domain.OneVsOne))
	assert.Equal(t, 3, pools.IdleRooms(domain.TwoVsTwo))
	assert.Equal(t, 2, pools.IdleRooms(domain.FiveVsFive))
}

func TestJoin_InvalidMatchType(t *testing.T) {
	pools := app.NewPoolRegistry(nil)

	_, err := pools.Join(uuid.New(), domain.MatchType("3v3"))
	assert.ErrorIs(t, err, domain.ErrInvalidMatchType)
}

func TestJoin_FirstFitFillsRoom(t *testing.T) {
	pools := app.NewPoolRegistry(nil)
	u1, u2 := uuid.New(), uuid.New()

	first, err := pools.Join(u1, domain.OneVsOne)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusMatching, first.Status)
	assert.Equal(t, 1, first.CurrentPlayers)
	assert.Equal(t, 2, first.RequiredPlayers)

	second, err := pools.Join(u2, domain.OneVsOne)
	require.NoError(t, err)
	assert.Equal(t, first.MatchID, second.MatchID, "second join should reuse the first room")
	assert.Equal(t, domain.StatusReady, second.Status)
	assert.Equal(t, 2, second.CurrentPlayers)
}

func TestJoin_SameUserNeverOccupiesTwoSeats(t *testing.T) {
	pools := app.NewPoolRegistry(nil)
	u := uuid.New()

	first, err := pools.Join(u, domain.OneVsOne)
	require.NoError(t, err)
	second, err := pools.Join(u, domain.OneVsOne)
	require.NoError(t, err)

	assert.NotEqual(t, first.MatchID, second.MatchID)
	assert.Equal(t, 1, second.CurrentPlayers)
}

func TestJoin_TopsUpIdleMinimum(t *testing.T) {
	pools := app.NewPoolRegistry(map[domain.MatchType]int{domain.OneVsOne: 2})

	_, err := pools.Join(uuid.New(), domain.OneVsOne)
	require.NoError(t, err)

	// The occupied room no longer counts as idle; the buffer is restored.
	assert.Equal(t, 2, pools.IdleRooms(domain.OneVsOne))
	assert.Equal(t, 3, pools.Rooms(domain.OneVsOne))
}

func TestLeave_PoolSettlesAtIdleMinimum(t *testing.T) {
	pools := app.NewPoolRegistry(map[domain.MatchType]int{domain.OneVsOne: 1})
	u := uuid.New()

	snap, err := pools.Join(u, domain.OneVsOne)
	require.NoError(t, err)
	require.NoError(t, pools.Leave(u, snap.MatchID))

	// The join topped the buffer back up, so the emptied room is surplus and
	// goes; the pool never dips below its minimum.
	_, err = pools.Status(snap.MatchID)
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)
	assert.Equal(t, 1, pools.IdleRooms(domain.OneVsOne))
	assert.Equal(t, 1, pools.Rooms(domain.OneVsOne))
}

func TestLeave_PartialRoomIsKept(t *testing.T) {
	pools := app.NewPoolRegistry(nil)
	u1, u2 := uuid.New(), uuid.New()

	snap1, err := pools.Join(u1, domain.TwoVsTwo)
	require.NoError(t, err)
	snap2, err := pools.Join(u2, domain.TwoVsTwo)
	require.NoError(t, err)
	require.Equal(t, snap1.MatchID, snap2.MatchID)

	require.NoError(t, pools.Leave(u1, snap1.MatchID))

	after, err := pools.Snapshot(snap1.MatchID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.CurrentPlayers)
	assert.Equal(t, domain.StatusMatching, after.Status)
}

func TestLeave_EvictsSurplusIdleRoom(t *testing.T) {
	pools := app.NewPoolRegistry(nil)
	u := uuid.New()

	snap, err := pools.Join(u, domain.OneVsOne)
	require.NoError(t, err)
	require.NoError(t, pools.Leave(u, snap.MatchID))

	_, err = pools.Status(snap.MatchID)
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)
	assert.Equal(t, 0, pools.Rooms(domain.OneVsOne))
}

func TestLeave_UnknownMatch(t *testing.T) {
	pools := app.NewPoolRegistry(nil)

	err := pools.Leave(uuid.New(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)
}

func TestLeave_RejectedPastMatching(t *testing.T) {
	pools := app.NewPoolRegistry(nil)
	u1, u2 := uuid.New(), uuid.New()

	_, err := pools.Join(u1, domain.OneVsOne)
	require.NoError(t, err)
	snap, err := pools.Join(u2, domain.OneVsOne)
	require.NoError(t, err)
	require.Equal(t, domain.StatusReady, snap.Status)

	err = pools.Leave(u1, snap.MatchID)
	assert.ErrorIs(t, err, domain.ErrMatchAlreadyStarted)

	// No mutation on the rejected path.
	after, err := pools.Snapshot(snap.MatchID)
	require.NoError(t, err)
	assert.Equal(t, 2, after.CurrentPlayers)
	assert.Equal(t, domain.StatusReady, after.Status)
}

func TestMarkInProgress(t *testing.T) {
	pools := app.NewPoolRegistry(nil)
	u1, u2 := uuid.New(), uuid.New()

	snap, err := pools.Join(u1, domain.OneVsOne)
	require.NoError(t, err)
	assert.ErrorIs(t, pools.MarkInProgress(snap.MatchID), domain.ErrMatchNotReady)

	snap, err = pools.Join(u2, domain.OneVsOne)
	require.NoError(t, err)
	require.NoError(t, pools.MarkInProgress(snap.MatchID))

	status, err := pools.Status(snap.MatchID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, status)
}

func TestReadyRoster_CopiesFullRoster(t *testing.T) {
	pools := app.NewPoolRegistry(nil)
	users := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}

	var matchID uuid.UUID
	for _, u := range users {
		snap, err := pools.Join(u, domain.TwoVsTwo)
		require.NoError(t, err)
		matchID = snap.MatchID
	}

	roster, snap, err := pools.ReadyRoster(matchID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, snap.Status)
	assert.ElementsMatch(t, users, roster)
}

func TestRemove(t *testing.T) {
	pools := app.NewPoolRegistry(nil)
	u := uuid.New()

	snap, err := pools.Join(u, domain.OneVsOne)
	require.NoError(t, err)

	assert.True(t, pools.Remove(snap.MatchID))
	assert.False(t, pools.Remove(snap.MatchID))
	_, err = pools.Status(snap.MatchID)
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)
}

// TestConcurrentJoins launches required_players joins at once against a
// fresh pool: exactly one room must reach Ready holding every user, with no
// overshoot and no duplicate admission.
func TestConcurrentJoins(t *testing.T) {
	pools := app.NewPoolRegistry(nil)
	required, err := domain.FiveVsFive.RequiredPlayers()
	require.NoError(t, err)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		snaps []domain.RoomSnapshot
	)
	for i := 0; i < required; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := pools.Join(uuid.New(), domain.FiveVsFive)
			require.NoError(t, err)
			mu.Lock()
			snaps = append(snaps, snap)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, snaps, required)
	ready := 0
	for _, s := range snaps {
		assert.Equal(t, snaps[0].MatchID, s.MatchID, "all joins should land in one room")
		if s.Status == domain.StatusReady {
			ready++
			assert.Equal(t, required, s.CurrentPlayers)
		}
	}
	assert.Equal(t, 1, ready, "exactly one join fills the room")

	roster, _, err := pools.ReadyRoster(snaps[0].MatchID)
	require.NoError(t, err)
	assert.Len(t, roster, required)
	seen := make(map[uuid.UUID]bool, required)
	for _, u := range roster {
		assert.False(t, seen[u], "duplicate user in roster")
		seen[u] = true
	}
}
