package store_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/matchgate/internal/adapters/store"
	"github.com/dkeye/matchgate/internal/domain"
)

func seedMatch(t *testing.T, mem *store.Memory) (matchID uuid.UUID, teamIDs [2]uuid.UUID, users [2]uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	matchID = uuid.New()
	require.NoError(t, mem.CreateMatch(ctx, matchID, domain.OneVsOne, 1))
	for i := range teamIDs {
		teamIDs[i] = uuid.New()
		users[i] = uuid.New()
		require.NoError(t, mem.CreateTeam(ctx, teamIDs[i], matchID, i+1, 1))
		require.NoError(t, mem.AddPlayerToTeam(ctx, matchID, teamIDs[i], users[i]))
	}
	require.NoError(t, mem.StartMatch(ctx, matchID))
	return matchID, teamIDs, users
}

func TestRecordDiscovery_IncrementsMemberAndTeam(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	matchID, teamIDs, users := seedMatch(t, mem)

	require.NoError(t, mem.RecordDiscovery(ctx, matchID, teamIDs[0], users[0], uuid.New(), 10))
	require.NoError(t, mem.RecordDiscovery(ctx, matchID, teamIDs[0], users[0], uuid.New(), 5))

	teams, err := mem.GetMatchTeams(ctx, matchID)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, 15, teams[0].TotalScore)
	assert.Equal(t, 15, teams[0].Members[0].Score)
	assert.Equal(t, 0, teams[1].TotalScore)
}

func TestEndMatch_HighestScoreWins(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	matchID, teamIDs, users := seedMatch(t, mem)

	require.NoError(t, mem.RecordDiscovery(ctx, matchID, teamIDs[1], users[1], uuid.New(), 30))

	winner, err := mem.EndMatch(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, teamIDs[1], winner)

	details, err := mem.GetMatchDetails(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFinished, details.Status)
	assert.Equal(t, teamIDs[1], details.WinnerTeamID)
	assert.NotNil(t, details.EndTime)
}

func TestEndMatch_TieBreaksOnLowestTeamID(t *testing.T) {
	mem := store.NewMemory()
	matchID, teamIDs, _ := seedMatch(t, mem)

	winner, err := mem.EndMatch(context.Background(), matchID)
	require.NoError(t, err)

	expected := teamIDs[0]
	if teamIDs[1].String() < teamIDs[0].String() {
		expected = teamIDs[1]
	}
	assert.Equal(t, expected, winner)
}

func TestEndMatch_UnknownMatch(t *testing.T) {
	mem := store.NewMemory()

	_, err := mem.EndMatch(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)
}

func TestActiveMatchFor(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	matchID, _, users := seedMatch(t, mem)

	active, ok, err := mem.ActiveMatchFor(ctx, users[0])
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, matchID, active)

	_, ok, err = mem.ActiveMatchFor(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = mem.EndMatch(ctx, matchID)
	require.NoError(t, err)

	_, ok, err = mem.ActiveMatchFor(ctx, users[0])
	require.NoError(t, err)
	assert.False(t, ok, "finished matches are not active")
}

func TestGetMatch(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	matchID, _, users := seedMatch(t, mem)

	rec, err := mem.GetMatch(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, domain.OneVsOne, rec.MatchType)
	assert.Equal(t, domain.StatusInProgress, rec.Status)
	assert.Equal(t, 2, rec.RequiredPlayers)
	assert.ElementsMatch(t, users[:], rec.Players)

	_, err = mem.GetMatch(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)
}
