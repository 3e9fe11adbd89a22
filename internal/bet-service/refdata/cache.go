package refdata

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/tournament-bets/internal/bet-service/betting"
)

// Source é o que o cache decora (normalmente *ReadRepo)
type Source interface {
	betting.TeamProvider
	betting.MatchProvider
}

// Cached faz read-through no Redis antes de ir ao banco.
// Falhas do Redis só geram log; a consulta segue para a Source.
// NotFound não é cacheado.
type Cached struct {
	next Source
	rdb  *redis.Client
	ttl  time.Duration
	log  *zap.Logger
}

func NewCached(next Source, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *Cached {
	return &Cached{next: next, rdb: rdb, ttl: ttl, log: log}
}

func keyTeam(id uuid.UUID) string  { return "refdata:team:" + id.String() }
func keyMatch(id uuid.UUID) string { return "refdata:match:" + id.String() }

const (
	keyTeams    = "refdata:teams"
	keyBettable = "refdata:matches:bettable"
)

func (c *Cached) GetTeam(ctx context.Context, id uuid.UUID) (betting.Team, error) {
	return readThrough(ctx, c, keyTeam(id), func() (betting.Team, error) { return c.next.GetTeam(ctx, id) })
}

func (c *Cached) ListTeams(ctx context.Context) ([]betting.Team, error) {
	return readThrough(ctx, c, keyTeams, func() ([]betting.Team, error) { return c.next.ListTeams(ctx) })
}

func (c *Cached) GetMatch(ctx context.Context, id uuid.UUID) (betting.Match, error) {
	return readThrough(ctx, c, keyMatch(id), func() (betting.Match, error) { return c.next.GetMatch(ctx, id) })
}

func (c *Cached) ListBettableMatches(ctx context.Context) ([]betting.Match, error) {
	return readThrough(ctx, c, keyBettable, func() ([]betting.Match, error) { return c.next.ListBettableMatches(ctx) })
}

// Invalidate remove as listagens e as chaves dos ids informados (após a carga do torneio)
func (c *Cached) Invalidate(ctx context.Context, teams, matches []uuid.UUID) error {
	keys := []string{keyTeams, keyBettable}
	for _, id := range teams {
		keys = append(keys, keyTeam(id))
	}
	for _, id := range matches {
		keys = append(keys, keyMatch(id))
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func readThrough[T any](ctx context.Context, c *Cached, key string, load func() (T, error)) (T, error) {
	var v T
	b, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jerr := json.Unmarshal(b, &v); jerr == nil {
			return v, nil
		}
		c.log.Warn("refdata cache decode", zap.String("key", key))
	case err != redis.Nil:
		c.log.Warn("refdata cache get", zap.String("key", key), zap.Error(err))
	}

	v, err = load()
	if err != nil {
		return v, err
	}

	if b, err := json.Marshal(v); err == nil {
		if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
			c.log.Warn("refdata cache set", zap.String("key", key), zap.Error(err))
		}
	}
	return v, nil
}
