package db

import (
	"context"
	"database/sql"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS teams (
		id       UUID PRIMARY KEY,
		name     TEXT NOT NULL,
		flag_url TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id           UUID PRIMARY KEY,
		begin_at     TIMESTAMPTZ NOT NULL,
		home_team_id UUID NULL REFERENCES teams(id),
		away_team_id UUID NULL REFERENCES teams(id)
	)`,
	`CREATE INDEX IF NOT EXISTS matches_begin_at_idx ON matches (begin_at, id)`,
	`CREATE TABLE IF NOT EXISTS score_bets (
		id         UUID PRIMARY KEY,
		match_id   UUID NOT NULL REFERENCES matches(id),
		placer_id  UUID NOT NULL,
		score_home INT  NOT NULL CHECK (score_home >= 0),
		score_away INT  NOT NULL CHECK (score_away >= 0),
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS score_bets_placer_idx ON score_bets (placer_id, match_id)`,
	`CREATE TABLE IF NOT EXISTS winner_bets (
		id         UUID PRIMARY KEY,
		team_id    UUID NOT NULL REFERENCES teams(id),
		placer_id  UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS winner_bets_placer_uq ON winner_bets (placer_id)`,
	`CREATE TABLE IF NOT EXISTS bet_history (
		id         BIGSERIAL PRIMARY KEY,
		bet_id     UUID NOT NULL,
		user_id    UUID NOT NULL,
		kind       TEXT NOT NULL,
		action     TEXT NOT NULL,
		match_id   UUID NULL,
		team_id    UUID NULL,
		score_home INT  NULL,
		score_away INT  NULL,
		ts         TIMESTAMPTZ NOT NULL
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS teams (
		id       TEXT PRIMARY KEY,
		name     TEXT NOT NULL,
		flag_url TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id           TEXT PRIMARY KEY,
		begin_at     TIMESTAMP NOT NULL,
		home_team_id TEXT NULL REFERENCES teams(id),
		away_team_id TEXT NULL REFERENCES teams(id)
	)`,
	`CREATE INDEX IF NOT EXISTS matches_begin_at_idx ON matches (begin_at, id)`,
	`CREATE TABLE IF NOT EXISTS score_bets (
		id         TEXT PRIMARY KEY,
		match_id   TEXT NOT NULL REFERENCES matches(id),
		placer_id  TEXT NOT NULL,
		score_home INTEGER NOT NULL CHECK (score_home >= 0),
		score_away INTEGER NOT NULL CHECK (score_away >= 0),
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS score_bets_placer_idx ON score_bets (placer_id, match_id)`,
	`CREATE TABLE IF NOT EXISTS winner_bets (
		id         TEXT PRIMARY KEY,
		team_id    TEXT NOT NULL REFERENCES teams(id),
		placer_id  TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS winner_bets_placer_uq ON winner_bets (placer_id)`,
	`CREATE TABLE IF NOT EXISTS bet_history (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		bet_id     TEXT NOT NULL,
		user_id    TEXT NOT NULL,
		kind       TEXT NOT NULL,
		action     TEXT NOT NULL,
		match_id   TEXT NULL,
		team_id    TEXT NULL,
		score_home INTEGER NULL,
		score_away INTEGER NULL,
		ts         TIMESTAMP NOT NULL
	)`,
}

// Migrate cria as tabelas necessárias caso ainda não existam
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	queries := sqliteSchema
	if d.Postgres() {
		queries = postgresSchema
	}
	for _, q := range queries {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}
