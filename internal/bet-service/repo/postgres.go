package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/radieske/tournament-bets/internal/bet-service/betting"
	"github.com/radieske/tournament-bets/internal/shared/db"
)

// Postgres implementa betting.Store sobre database/sql.
// Funciona com lib/pq, pgx e sqlite; só o lock por apostador depende do Postgres.
type Postgres struct {
	db      *sql.DB
	dialect db.Dialect
}

// NewPostgres retorna uma instância do repositório de apostas
func NewPostgres(conn *sql.DB, d db.Dialect) *Postgres { return &Postgres{db: conn, dialect: d} }

const scoreBetCols = `id, match_id, placer_id, score_home, score_away, created_at`

const winnerBetCols = `id, team_id, placer_id, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScoreBet(r rowScanner) (betting.ScoreBet, error) {
	var b betting.ScoreBet
	err := r.Scan(&b.ID, &b.MatchID, &b.PlacerID, &b.ScoreHome, &b.ScoreAway, &b.CreatedAt)
	return b, err
}

func scanWinnerBet(r rowScanner) (betting.WinnerBet, error) {
	var b betting.WinnerBet
	err := r.Scan(&b.ID, &b.TeamID, &b.PlacerID, &b.CreatedAt)
	return b, err
}

// lockPlacer serializa as escritas de um mesmo apostador até o fim da transação
func (p *Postgres) lockPlacer(ctx context.Context, tx *sql.Tx, placerID uuid.UUID) error {
	if !p.dialect.AdvisoryLocks() {
		return nil // sqlite: uma única conexão de escrita
	}
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, placerID.String())
	return err
}

// InsertScoreBet insere um novo palpite de placar
func (p *Postgres) InsertScoreBet(ctx context.Context, b betting.ScoreBet) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO score_bets (`+scoreBetCols+`)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		b.ID, b.MatchID, b.PlacerID, b.ScoreHome, b.ScoreAway, b.CreatedAt,
	)
	return err
}

// UpsertScoreBet atualiza o palpite mais antigo de (partida, apostador) ou insere b.
// Usa transação com lock por apostador para não criar duplicatas em chamadas concorrentes.
func (p *Postgres) UpsertScoreBet(ctx context.Context, b betting.ScoreBet) (betting.ScoreBet, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return betting.ScoreBet{}, err
	}
	defer tx.Rollback()

	if err = p.lockPlacer(ctx, tx, b.PlacerID); err != nil {
		return betting.ScoreBet{}, err
	}

	existing, err := scanScoreBet(tx.QueryRowContext(ctx, `
		SELECT `+scoreBetCols+`
		FROM score_bets
		WHERE match_id=$1 AND placer_id=$2
		ORDER BY created_at, id
		LIMIT 1`, b.MatchID, b.PlacerID))

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO score_bets (`+scoreBetCols+`)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			b.ID, b.MatchID, b.PlacerID, b.ScoreHome, b.ScoreAway, b.CreatedAt); err != nil {
			return betting.ScoreBet{}, err
		}
	case err != nil:
		return betting.ScoreBet{}, err
	default:
		if _, err = tx.ExecContext(ctx,
			`UPDATE score_bets SET score_home=$1, score_away=$2 WHERE id=$3`,
			b.ScoreHome, b.ScoreAway, existing.ID); err != nil {
			return betting.ScoreBet{}, err
		}
		existing.ScoreHome, existing.ScoreAway = b.ScoreHome, b.ScoreAway
		b = existing
	}

	if err = tx.Commit(); err != nil {
		return betting.ScoreBet{}, err
	}
	return b, nil
}

// UpdateScoreBetScores sobrescreve o placar; o palpite precisa pertencer ao apostador
func (p *Postgres) UpdateScoreBetScores(ctx context.Context, id, placerID uuid.UUID, home, away int) (betting.ScoreBet, error) {
	b, err := scanScoreBet(p.db.QueryRowContext(ctx, `
		UPDATE score_bets SET score_home=$1, score_away=$2
		WHERE id=$3 AND placer_id=$4
		RETURNING `+scoreBetCols,
		home, away, id, placerID))
	if errors.Is(err, sql.ErrNoRows) {
		return betting.ScoreBet{}, fmt.Errorf("score bet %s: %w", id, betting.ErrNotFound)
	}
	return b, err
}

// FindScoreBet devolve o palpite mais antigo de (partida, apostador) ou nil
func (p *Postgres) FindScoreBet(ctx context.Context, matchID, placerID uuid.UUID) (*betting.ScoreBet, error) {
	b, err := scanScoreBet(p.db.QueryRowContext(ctx, `
		SELECT `+scoreBetCols+`
		FROM score_bets
		WHERE match_id=$1 AND placer_id=$2
		ORDER BY created_at, id
		LIMIT 1`, matchID, placerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListScoreBetsByPlacer devolve todos os palpites do apostador numa única consulta
func (p *Postgres) ListScoreBetsByPlacer(ctx context.Context, placerID uuid.UUID) ([]betting.ScoreBet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+scoreBetCols+`
		FROM score_bets
		WHERE placer_id=$1
		ORDER BY created_at, id`, placerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []betting.ScoreBet
	for rows.Next() {
		b, err := scanScoreBet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// FindWinnerBet devolve a aposta de campeão do apostador nesse time, ou nil
func (p *Postgres) FindWinnerBet(ctx context.Context, teamID, placerID uuid.UUID) (*betting.WinnerBet, error) {
	b, err := scanWinnerBet(p.db.QueryRowContext(ctx, `
		SELECT `+winnerBetCols+`
		FROM winner_bets
		WHERE team_id=$1 AND placer_id=$2
		ORDER BY created_at, id
		LIMIT 1`, teamID, placerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (p *Postgres) ListWinnerBetsByPlacer(ctx context.Context, placerID uuid.UUID) ([]betting.WinnerBet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+winnerBetCols+`
		FROM winner_bets
		WHERE placer_id=$1
		ORDER BY created_at, id`, placerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []betting.WinnerBet
	for rows.Next() {
		b, err := scanWinnerBet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ReplaceWinnerBet remove as apostas de campeão do apostador e insere a nova.
// As duas escritas são uma transação só, serializada por apostador; o índice
// único em winner_bets(placer_id) barra qualquer sobra.
func (p *Postgres) ReplaceWinnerBet(ctx context.Context, b betting.WinnerBet) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err = p.lockPlacer(ctx, tx, b.PlacerID); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM winner_bets WHERE placer_id=$1`, b.PlacerID); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO winner_bets (`+winnerBetCols+`)
		VALUES ($1,$2,$3,$4)`,
		b.ID, b.TeamID, b.PlacerID, b.CreatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateWinnerBetTeam troca o time de uma aposta existente do apostador
func (p *Postgres) UpdateWinnerBetTeam(ctx context.Context, id, placerID, teamID uuid.UUID) (betting.WinnerBet, error) {
	b, err := scanWinnerBet(p.db.QueryRowContext(ctx, `
		UPDATE winner_bets SET team_id=$1
		WHERE id=$2 AND placer_id=$3
		RETURNING `+winnerBetCols,
		teamID, id, placerID))
	if errors.Is(err, sql.ErrNoRows) {
		return betting.WinnerBet{}, fmt.Errorf("winner bet %s: %w", id, betting.ErrNotFound)
	}
	return b, err
}
