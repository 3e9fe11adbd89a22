package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/radieske/tournament-bets/pkg/contracts/events"
)

// PostgresRepo grava o histórico de apostas (bet_history)
type PostgresRepo struct {
	DB *sql.DB
}

// NewPostgresRepo retorna uma instância de repositório Postgres
func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// InsertHistory acrescenta uma linha por evento; o histórico nunca é alterado
func (r *PostgresRepo) InsertHistory(ctx context.Context, e events.BetChanged) error {
	const q = `
		INSERT INTO bet_history
		  (bet_id, user_id, kind, action, match_id, team_id, score_home, score_away, ts)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`
	_, err := r.DB.ExecContext(ctx, q,
		e.BetID, e.UserID, e.Kind, e.Action,
		nullable(e.MatchID), nullable(e.TeamID),
		nullInt(e.ScoreHome), nullInt(e.ScoreAway),
		e.Ts.UTC(),
	)
	return err
}

// HistoryEntry é uma linha de bet_history
type HistoryEntry struct {
	BetID  string
	Kind   string
	Action string
	Home   sql.NullInt64
	Away   sql.NullInt64
}

// ListHistory devolve o histórico de uma aposta em ordem de gravação
func (r *PostgresRepo) ListHistory(ctx context.Context, betID string) ([]HistoryEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT bet_id, kind, action, score_home, score_away
		FROM bet_history WHERE bet_id=$1 ORDER BY id`, betID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.BetID, &h.Kind, &h.Action, &h.Home, &h.Away); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func nullable(id string) uuid.NullUUID {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: u, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
