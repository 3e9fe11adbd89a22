package refdata

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/tournament-bets/internal/bet-service/betting"
	"github.com/radieske/tournament-bets/internal/shared/db"
)

var (
	_ Source = (*ReadRepo)(nil)
	_ Source = (*Cached)(nil)
)

var (
	kickoff = time.Date(2026, 6, 11, 16, 0, 0, 0, time.UTC)

	brazil    = betting.Team{ID: uuid.MustParse("00000000-0000-0000-0000-0000000000b1"), Name: "Brazil", FlagURL: "br.png"}
	argentina = betting.Team{ID: uuid.MustParse("00000000-0000-0000-0000-0000000000a1"), Name: "Argentina", FlagURL: "ar.png"}
	denmark   = betting.Team{ID: uuid.MustParse("00000000-0000-0000-0000-0000000000d1"), Name: "Denmark"}
)

func newTestDB(t *testing.T) (*ReadRepo, *Writer) {
	t.Helper()
	conn, d, err := db.Connect(db.DriverSQLite, filepath.Join(t.TempDir(), "refdata.db"))
	if err != nil {
		t.Skipf("sqlite indisponível: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Migrate(context.Background(), conn, d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewReadRepo(conn), NewWriter(conn)
}

func TestReadRepo(t *testing.T) {
	r, w := newTestDB(t)
	ctx := context.Background()

	late := betting.Match{ID: uuid.MustParse("00000000-0000-0000-0000-000000000002"), BeginAt: kickoff.Add(2 * time.Hour), HomeTeam: &brazil, AwayTeam: &denmark}
	early2 := betting.Match{ID: uuid.MustParse("00000000-0000-0000-0000-000000000004"), BeginAt: kickoff, HomeTeam: &argentina, AwayTeam: &brazil}
	early1 := betting.Match{ID: uuid.MustParse("00000000-0000-0000-0000-000000000003"), BeginAt: kickoff, HomeTeam: &denmark, AwayTeam: &argentina}
	final := betting.Match{ID: uuid.MustParse("00000000-0000-0000-0000-000000000009"), BeginAt: kickoff.Add(24 * time.Hour), HomeTeam: &brazil}

	if err := w.Upsert(ctx, []betting.Team{brazil, argentina, denmark}, []betting.Match{late, early2, early1, final}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	teams, err := r.ListTeams(ctx)
	if err != nil {
		t.Fatalf("list teams: %v", err)
	}
	wantNames := []string{"Argentina", "Brazil", "Denmark"}
	if len(teams) != len(wantNames) {
		t.Fatalf("expected %d teams, got %d", len(wantNames), len(teams))
	}
	for i, name := range wantNames {
		if teams[i].Name != name {
			t.Fatalf("team %d: expected %s, got %s", i, name, teams[i].Name)
		}
	}

	matches, err := r.ListBettableMatches(ctx)
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	wantIDs := []uuid.UUID{early1.ID, early2.ID, late.ID}
	if len(matches) != len(wantIDs) {
		t.Fatalf("expected %d bettable matches, got %d", len(wantIDs), len(matches))
	}
	for i, id := range wantIDs {
		if matches[i].ID != id {
			t.Fatalf("match %d: expected %s, got %s", i, id, matches[i].ID)
		}
		if !matches[i].Bettable() {
			t.Fatalf("match %s missing teams", id)
		}
	}
	if matches[2].HomeTeam.Name != "Brazil" || matches[2].AwayTeam.FlagURL != "" {
		t.Fatalf("teams not joined: %+v %+v", matches[2].HomeTeam, matches[2].AwayTeam)
	}

	got, err := r.GetMatch(ctx, final.ID)
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	if got.HomeTeam == nil || got.HomeTeam.ID != brazil.ID || got.AwayTeam != nil {
		t.Fatalf("unexpected sides: %+v", got)
	}
	if !got.BeginAt.Equal(final.BeginAt) {
		t.Fatalf("begin_at: expected %v, got %v", final.BeginAt, got.BeginAt)
	}
}

func TestReadRepo_NotFound(t *testing.T) {
	r, _ := newTestDB(t)
	ctx := context.Background()

	if _, err := r.GetTeam(ctx, uuid.New()); !errors.Is(err, betting.ErrNotFound) {
		t.Fatalf("team: expected ErrNotFound, got %v", err)
	}
	if _, err := r.GetMatch(ctx, uuid.New()); !errors.Is(err, betting.ErrNotFound) {
		t.Fatalf("match: expected ErrNotFound, got %v", err)
	}
}

func TestWriter_UpsertUpdatesExisting(t *testing.T) {
	r, w := newTestDB(t)
	ctx := context.Background()

	m := betting.Match{ID: uuid.New(), BeginAt: kickoff, HomeTeam: &brazil}
	if err := w.Upsert(ctx, []betting.Team{brazil, denmark}, []betting.Match{m}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	renamed := brazil
	renamed.Name = "Brasil"
	m.AwayTeam = &denmark
	if err := w.Upsert(ctx, []betting.Team{renamed}, []betting.Match{m}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	team, err := r.GetTeam(ctx, brazil.ID)
	if err != nil || team.Name != "Brasil" {
		t.Fatalf("team not updated: %+v, %v", team, err)
	}
	got, err := r.GetMatch(ctx, m.ID)
	if err != nil || !got.Bettable() {
		t.Fatalf("match not updated: %+v, %v", got, err)
	}
}

// countingSource conta idas à origem
type countingSource struct {
	teams []betting.Team
	calls int
}

func (s *countingSource) GetTeam(_ context.Context, id uuid.UUID) (betting.Team, error) {
	s.calls++
	for _, t := range s.teams {
		if t.ID == id {
			return t, nil
		}
	}
	return betting.Team{}, betting.ErrNotFound
}

func (s *countingSource) ListTeams(context.Context) ([]betting.Team, error) {
	s.calls++
	return s.teams, nil
}

func (s *countingSource) GetMatch(context.Context, uuid.UUID) (betting.Match, error) {
	s.calls++
	return betting.Match{}, betting.ErrNotFound
}

func (s *countingSource) ListBettableMatches(context.Context) ([]betting.Match, error) {
	s.calls++
	return nil, nil
}

func TestCached_FallsThroughWhenRedisDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })

	src := &countingSource{teams: []betting.Team{brazil}}
	c := NewCached(src, rdb, time.Minute, zap.NewNop())
	ctx := context.Background()

	team, err := c.GetTeam(ctx, brazil.ID)
	if err != nil || team.ID != brazil.ID {
		t.Fatalf("get team: %+v, %v", team, err)
	}
	if _, err := c.GetMatch(ctx, uuid.New()); !errors.Is(err, betting.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	teams, err := c.ListTeams(ctx)
	if err != nil || len(teams) != 1 {
		t.Fatalf("list teams: %+v, %v", teams, err)
	}
	if src.calls != 3 {
		t.Fatalf("expected 3 source calls, got %d", src.calls)
	}
}
