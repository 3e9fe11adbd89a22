package refdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/radieske/tournament-bets/internal/bet-service/betting"
)

// ReadRepo lê times e partidas do banco.
// Implementa betting.TeamProvider e betting.MatchProvider.
type ReadRepo struct {
	DB *sql.DB
}

func NewReadRepo(db *sql.DB) *ReadRepo { return &ReadRepo{DB: db} }

func (r *ReadRepo) GetTeam(ctx context.Context, id uuid.UUID) (betting.Team, error) {
	var t betting.Team
	err := r.DB.QueryRowContext(ctx, `SELECT id, name, flag_url FROM teams WHERE id=$1`, id).
		Scan(&t.ID, &t.Name, &t.FlagURL)
	if errors.Is(err, sql.ErrNoRows) {
		return betting.Team{}, fmt.Errorf("team %s: %w", id, betting.ErrNotFound)
	}
	return t, err
}

// ListTeams devolve todos os times ordenados por nome
func (r *ReadRepo) ListTeams(ctx context.Context) ([]betting.Team, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name, flag_url FROM teams ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []betting.Team
	for rows.Next() {
		var t betting.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.FlagURL); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const matchSelect = `
	SELECT m.id, m.begin_at,
	       h.id, h.name, h.flag_url,
	       a.id, a.name, a.flag_url
	FROM matches m
	LEFT JOIN teams h ON h.id = m.home_team_id
	LEFT JOIN teams a ON a.id = m.away_team_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(r rowScanner) (betting.Match, error) {
	var (
		m                betting.Match
		homeID, awayID   uuid.NullUUID
		homeName, awayNm sql.NullString
		homeFlag, awayFl sql.NullString
	)
	if err := r.Scan(&m.ID, &m.BeginAt, &homeID, &homeName, &homeFlag, &awayID, &awayNm, &awayFl); err != nil {
		return betting.Match{}, err
	}
	if homeID.Valid {
		m.HomeTeam = &betting.Team{ID: homeID.UUID, Name: homeName.String, FlagURL: homeFlag.String}
	}
	if awayID.Valid {
		m.AwayTeam = &betting.Team{ID: awayID.UUID, Name: awayNm.String, FlagURL: awayFl.String}
	}
	return m, nil
}

func (r *ReadRepo) GetMatch(ctx context.Context, id uuid.UUID) (betting.Match, error) {
	m, err := scanMatch(r.DB.QueryRowContext(ctx, matchSelect+` WHERE m.id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return betting.Match{}, fmt.Errorf("match %s: %w", id, betting.ErrNotFound)
	}
	return m, err
}

// ListBettableMatches devolve, numa única consulta, as partidas com os dois
// times definidos, em ordem de início (empate por id), com os times preenchidos
func (r *ReadRepo) ListBettableMatches(ctx context.Context) ([]betting.Match, error) {
	rows, err := r.DB.QueryContext(ctx, matchSelect+`
		WHERE m.home_team_id IS NOT NULL AND m.away_team_id IS NOT NULL
		ORDER BY m.begin_at, m.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []betting.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
