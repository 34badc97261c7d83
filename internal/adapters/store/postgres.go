package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dkeye/matchgate/internal/core"
	"github.com/dkeye/matchgate/internal/domain"
)

// Postgres is the durable MatchStore. The connection pool is owned by the
// caller; see migrations for the schema.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) CreateMatch(ctx context.Context, matchID uuid.UUID, matchType domain.MatchType, playersPerTeam int) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO treasure_matches (id, match_type, status, required_players_per_team)
		VALUES ($1, $2, 'matching', $3)`,
		matchID.String(), string(matchType), playersPerTeam)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

func (p *Postgres) CreateTeam(ctx context.Context, teamID, matchID uuid.UUID, teamNumber, maxPlayers int) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO match_teams (id, match_id, team_number, max_players, current_players, total_score)
		VALUES ($1, $2, $3, $4, 0, 0)`,
		teamID.String(), matchID.String(), teamNumber, maxPlayers)
	if err != nil {
		return fmt.Errorf("insert team: %w", err)
	}
	return nil
}

func (p *Postgres) AddPlayerToTeam(ctx context.Context, matchID, teamID, userID uuid.UUID) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO match_members (id, match_id, team_id, user_id, individual_score)
		VALUES ($1, $2, $3, $4, 0)`,
		uuid.NewString(), matchID.String(), teamID.String(), userID.String()); err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE match_teams
		SET current_players = LEAST(current_players + 1, max_players)
		WHERE id = $1`,
		teamID.String()); err != nil {
		return fmt.Errorf("bump team count: %w", err)
	}
	return tx.Commit(ctx)
}

func (p *Postgres) StartMatch(ctx context.Context, matchID uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE treasure_matches
		SET status = 'in_progress', start_time = now()
		WHERE id = $1`,
		matchID.String())
	if err != nil {
		return fmt.Errorf("start match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMatchNotFound
	}
	return nil
}

func (p *Postgres) EndMatch(ctx context.Context, matchID uuid.UUID) (uuid.UUID, error) {
	// Lowest team id breaks score ties; keeps the winner deterministic.
	var winnerStr string
	err := p.pool.QueryRow(ctx, `
		SELECT id::text FROM match_teams
		WHERE match_id = $1
		ORDER BY total_score DESC, id ASC
		LIMIT 1`,
		matchID.String()).Scan(&winnerStr)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, domain.ErrMatchNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("winner lookup: %w", err)
	}
	winner, err := uuid.Parse(winnerStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("winner id: %w", err)
	}

	tag, err := p.pool.Exec(ctx, `
		UPDATE treasure_matches
		SET status = 'finished', end_time = now(), winner_team_id = $2
		WHERE id = $1`,
		matchID.String(), winner.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("finish match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return uuid.Nil, domain.ErrMatchNotFound
	}
	return winner, nil
}

func (p *Postgres) RecordDiscovery(ctx context.Context, matchID, teamID, userID, treasureID uuid.UUID, score int) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO match_discoveries (id, match_id, team_id, user_id, treasure_id, score)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), matchID.String(), teamID.String(), userID.String(), treasureID.String(), score); err != nil {
		return fmt.Errorf("insert discovery: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE match_members
		SET individual_score = individual_score + $3
		WHERE match_id = $1 AND user_id = $2`,
		matchID.String(), userID.String(), score); err != nil {
		return fmt.Errorf("bump member score: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE match_teams
		SET total_score = total_score + $2
		WHERE id = $1`,
		teamID.String(), score); err != nil {
		return fmt.Errorf("bump team score: %w", err)
	}
	return tx.Commit(ctx)
}

func (p *Postgres) GetMatch(ctx context.Context, matchID uuid.UUID) (core.MatchRecord, error) {
	var (
		rec     core.MatchRecord
		idStr   string
		mt      string
		status  string
		perTeam int
	)
	err := p.pool.QueryRow(ctx, `
		SELECT id::text, match_type, status, required_players_per_team
		FROM treasure_matches
		WHERE id = $1`,
		matchID.String()).Scan(&idStr, &mt, &status, &perTeam)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.MatchRecord{}, domain.ErrMatchNotFound
	}
	if err != nil {
		return core.MatchRecord{}, fmt.Errorf("select match: %w", err)
	}
	rec.ID, _ = uuid.Parse(idStr)
	rec.MatchType = domain.MatchType(mt)
	rec.Status = domain.Status(status)
	rec.RequiredPlayers = perTeam * 2

	rows, err := p.pool.Query(ctx, `
		SELECT user_id::text FROM match_members WHERE match_id = $1`,
		matchID.String())
	if err != nil {
		return core.MatchRecord{}, fmt.Errorf("select members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var userStr string
		if err := rows.Scan(&userStr); err != nil {
			return core.MatchRecord{}, fmt.Errorf("scan member: %w", err)
		}
		userID, err := uuid.Parse(userStr)
		if err != nil {
			return core.MatchRecord{}, fmt.Errorf("member id: %w", err)
		}
		rec.Players = append(rec.Players, userID)
	}
	return rec, rows.Err()
}

func (p *Postgres) GetMatchTeams(ctx context.Context, matchID uuid.UUID) ([]core.TeamRecord, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT t.id::text, t.team_number, t.total_score, m.user_id::text, m.individual_score
		FROM match_teams t
		LEFT JOIN match_members m ON m.team_id = t.id
		WHERE t.match_id = $1
		ORDER BY t.team_number ASC`,
		matchID.String())
	if err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}
	defer rows.Close()

	var teams []core.TeamRecord
	byID := make(map[string]int)
	for rows.Next() {
		var (
			teamStr string
			number  int
			score   int
			userStr *string
			indiv   *int
		)
		if err := rows.Scan(&teamStr, &number, &score, &userStr, &indiv); err != nil {
			return nil, fmt.Errorf("scan team row: %w", err)
		}
		idx, ok := byID[teamStr]
		if !ok {
			teamID, err := uuid.Parse(teamStr)
			if err != nil {
				return nil, fmt.Errorf("team id: %w", err)
			}
			teams = append(teams, core.TeamRecord{ID: teamID, TeamNumber: number, TotalScore: score})
			idx = len(teams) - 1
			byID[teamStr] = idx
		}
		if userStr != nil {
			userID, err := uuid.Parse(*userStr)
			if err != nil {
				return nil, fmt.Errorf("member id: %w", err)
			}
			member := core.MemberRecord{UserID: userID}
			if indiv != nil {
				member.Score = *indiv
			}
			teams[idx].Members = append(teams[idx].Members, member)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if teams == nil {
		return nil, domain.ErrMatchNotFound
	}
	return teams, nil
}

func (p *Postgres) GetMatchDetails(ctx context.Context, matchID uuid.UUID) (core.MatchDetails, error) {
	var (
		details   core.MatchDetails
		idStr     string
		mt        string
		status    string
		startTime *time.Time
		endTime   *time.Time
		winner    *string
	)
	err := p.pool.QueryRow(ctx, `
		SELECT id::text, match_type, status, start_time, end_time, winner_team_id::text
		FROM treasure_matches
		WHERE id = $1`,
		matchID.String()).Scan(&idStr, &mt, &status, &startTime, &endTime, &winner)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.MatchDetails{}, domain.ErrMatchNotFound
	}
	if err != nil {
		return core.MatchDetails{}, fmt.Errorf("select match: %w", err)
	}
	details.ID, _ = uuid.Parse(idStr)
	details.MatchType = domain.MatchType(mt)
	details.Status = domain.Status(status)
	details.StartTime = startTime
	details.EndTime = endTime
	if winner != nil {
		details.WinnerTeamID, _ = uuid.Parse(*winner)
	}
	switch {
	case startTime != nil && endTime != nil:
		details.Duration = endTime.Sub(*startTime)
	case startTime != nil:
		details.Duration = time.Since(*startTime)
	}

	teams, err := p.GetMatchTeams(ctx, matchID)
	if err != nil && !errors.Is(err, domain.ErrMatchNotFound) {
		return core.MatchDetails{}, err
	}
	details.Teams = teams
	return details, nil
}

func (p *Postgres) ActiveMatchFor(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	var idStr string
	err := p.pool.QueryRow(ctx, `
		SELECT m.id::text
		FROM treasure_matches m
		JOIN match_members mm ON mm.match_id = m.id
		WHERE mm.user_id = $1 AND m.status IN ('matching', 'in_progress')
		LIMIT 1`,
		userID.String()).Scan(&idStr)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("active match lookup: %w", err)
	}
	matchID, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("match id: %w", err)
	}
	return matchID, true, nil
}
