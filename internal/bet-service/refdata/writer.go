package refdata

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/radieske/tournament-bets/internal/bet-service/betting"
)

// Writer grava times e partidas (carga do torneio). O Manager nunca usa.
type Writer struct {
	DB *sql.DB
}

func NewWriter(db *sql.DB) *Writer { return &Writer{DB: db} }

// Upsert grava times e partidas numa transação; ids existentes são atualizados
func (w *Writer) Upsert(ctx context.Context, teams []betting.Team, matches []betting.Match) error {
	tx, err := w.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, t := range teams {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO teams (id, name, flag_url) VALUES ($1,$2,$3)
			ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, flag_url=EXCLUDED.flag_url`,
			t.ID, t.Name, t.FlagURL); err != nil {
			return err
		}
	}

	for _, m := range matches {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO matches (id, begin_at, home_team_id, away_team_id) VALUES ($1,$2,$3,$4)
			ON CONFLICT (id) DO UPDATE SET
			  begin_at=EXCLUDED.begin_at,
			  home_team_id=EXCLUDED.home_team_id,
			  away_team_id=EXCLUDED.away_team_id`,
			m.ID, m.BeginAt.UTC(), teamRef(m.HomeTeam), teamRef(m.AwayTeam)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func teamRef(t *betting.Team) uuid.NullUUID {
	if t == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: t.ID, Valid: true}
}
