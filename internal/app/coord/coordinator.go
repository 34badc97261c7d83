// Package coord orchestrates room lifecycle transitions that touch durable
// storage: the Ready -> InProgress start sequence and match finish.
package coord

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/matchgate/internal/app"
	"github.com/dkeye/matchgate/internal/core"
	"github.com/dkeye/matchgate/internal/domain"
)

// Notifier receives state changes worth pushing to participants. May be nil.
type Notifier interface {
	MatchStarted(matchID uuid.UUID, snap domain.RoomSnapshot)
	MatchFinished(matchID, winnerTeamID uuid.UUID)
}

// JobState tracks a spawned start sequence so a supervisor can tell a slow
// store apart from a failed one.
type JobState int

const (
	JobPending JobState = iota + 1
	JobFailed
	JobDone
)

type Job struct {
	State JobState
	Err   error
}

type Coordinator struct {
	Pools    *app.PoolRegistry
	Store    core.MatchStore
	Notifier Notifier

	mu   sync.Mutex
	jobs map[uuid.UUID]Job
	wg   conc.WaitGroup
}

func New(pools *app.PoolRegistry, store core.MatchStore, notifier Notifier) *Coordinator {
	return &Coordinator{
		Pools:    pools,
		Store:    store,
		Notifier: notifier,
		jobs:     make(map[uuid.UUID]Job),
	}
}

// Spawn launches the start sequence for a Ready room as an independent
// background job. A slow or failing store stalls only this job; the room
// stays Ready and join traffic to other rooms is unaffected.
func (c *Coordinator) Spawn(ctx context.Context, matchID uuid.UUID) {
	c.setJob(matchID, Job{State: JobPending})
	c.wg.Go(func() {
		if err := c.start(ctx, matchID); err != nil {
			c.setJob(matchID, Job{State: JobFailed, Err: err})
			log.Error().Err(err).Str("module", "coord").Str("match", matchID.String()).Msg("start sequence failed")
			return
		}
		c.setJob(matchID, Job{State: JobDone})
	})
}

// JobState reports the state of a spawned start sequence.
func (c *Coordinator) JobState(matchID uuid.UUID) (Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	j, ok := c.jobs[matchID]
	return j, ok
}

// Wait blocks until all spawned jobs have finished. Called on shutdown.
func (c *Coordinator) Wait() {
	if r := c.wg.WaitAndRecover(); r != nil {
		log.Error().Str("module", "coord").Str("panic", r.String()).Msg("start job panicked")
	}
}

// start runs the Ready -> InProgress sequence. Every durable write operates
// on a roster copy taken under the pool lock; no lock is held across store
// calls. There is no compensating rollback: a partial failure leaves the
// room Ready for a retry, never silently back in Matching.
func (c *Coordinator) start(ctx context.Context, matchID uuid.UUID) error {
	roster, snap, err := c.Pools.ReadyRoster(matchID)
	if err != nil {
		return err
	}
	perTeam := snap.RequiredPlayers / 2

	if err := c.Store.CreateMatch(ctx, matchID, snap.MatchType, perTeam); err != nil {
		return fmt.Errorf("create match: %w", err)
	}

	teamIDs := [2]uuid.UUID{uuid.New(), uuid.New()}
	for i, teamID := range teamIDs {
		if err := c.Store.CreateTeam(ctx, teamID, matchID, i+1, perTeam); err != nil {
			return fmt.Errorf("create team %d: %w", i+1, err)
		}
	}

	// Uniform shuffle, first half team 1, second half team 2.
	shuffled := make([]uuid.UUID, len(roster))
	copy(shuffled, roster)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, userID := range shuffled {
		teamID := teamIDs[0]
		if i >= perTeam {
			teamID = teamIDs[1]
		}
		g.Go(func() error {
			if err := c.Store.AddPlayerToTeam(gctx, matchID, teamID, userID); err != nil {
				return fmt.Errorf("add player %s: %w", userID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := c.Store.StartMatch(ctx, matchID); err != nil {
		return fmt.Errorf("start match: %w", err)
	}
	if err := c.Pools.MarkInProgress(matchID); err != nil {
		return err
	}

	log.Info().Str("module", "coord").Str("match", matchID.String()).
		Str("type", string(snap.MatchType)).Int("players", len(roster)).
		Msg("match started")

	if c.Notifier != nil {
		started := snap
		started.Status = domain.StatusInProgress
		c.Notifier.MatchStarted(matchID, started)
	}
	return nil
}

// EndMatch drops the room from memory first, then persists the finish. An
// observer racing the two may briefly see MatchNotFound in memory while the
// durable record is still settling; certainty about "finished" comes from
// the store.
func (c *Coordinator) EndMatch(ctx context.Context, matchID uuid.UUID) (uuid.UUID, error) {
	removed := c.Pools.Remove(matchID)
	winner, err := c.Store.EndMatch(ctx, matchID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("end match: %w", err)
	}
	log.Info().Str("module", "coord").Str("match", matchID.String()).
		Str("winner", winner.String()).Bool("was_in_memory", removed).
		Msg("match finished")
	if c.Notifier != nil {
		c.Notifier.MatchFinished(matchID, winner)
	}
	return winner, nil
}

// RecordDiscovery is a pure write-through; scores live only in the store.
func (c *Coordinator) RecordDiscovery(ctx context.Context, matchID, teamID, userID, treasureID uuid.UUID, score int) error {
	if err := c.Store.RecordDiscovery(ctx, matchID, teamID, userID, treasureID, score); err != nil {
		return fmt.Errorf("record discovery: %w", err)
	}
	return nil
}

func (c *Coordinator) setJob(matchID uuid.UUID, j Job) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs[matchID] = j
}
