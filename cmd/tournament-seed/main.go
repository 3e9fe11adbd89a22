package main

import (
	"context"
	"flag"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/tournament-bets/internal/bet-service/refdata"
	sharedcache "github.com/radieske/tournament-bets/internal/shared/cache"
	"github.com/radieske/tournament-bets/internal/shared/config"
	"github.com/radieske/tournament-bets/internal/shared/db"
	"github.com/radieske/tournament-bets/internal/shared/logger"
	"github.com/radieske/tournament-bets/internal/tournament-seed/loader"
)

func main() {
	cfg := config.LoadFor("tournament-seed")
	file := flag.String("file", cfg.TournamentFile, "arquivo YAML com times e partidas")
	noCache := flag.Bool("no-cache", false, "não invalida o cache de times/partidas no Redis")
	flag.Parse()

	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	tour, err := loader.LoadFile(*file)
	if err != nil {
		log.Fatal("load tournament", zap.String("file", *file), zap.Error(err))
	}

	sqlDB, dialect, err := db.Connect(cfg.DBDriver, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := db.Migrate(ctx, sqlDB, dialect); err != nil {
		log.Fatal("db migrate", zap.Error(err))
	}

	if err := refdata.NewWriter(sqlDB).Upsert(ctx, tour.Teams, tour.Matches); err != nil {
		log.Fatal("upsert tournament", zap.Error(err))
	}

	// o bet-service lê times/partidas pelo cache; remove as chaves antigas
	if !*noCache {
		rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
		if err != nil {
			log.Warn("redis unavailable, cache not invalidated", zap.Error(err))
		} else {
			defer rdb.Close()
			c := refdata.NewCached(refdata.NewReadRepo(sqlDB), rdb, cfg.RefDataCacheTTL, log)
			if err := c.Invalidate(ctx, teamIDs(tour), matchIDs(tour)); err != nil {
				log.Warn("cache invalidation failed", zap.Error(err))
			}
		}
	}

	log.Info("tournament loaded",
		zap.String("file", *file),
		zap.Int("teams", len(tour.Teams)),
		zap.Int("matches", len(tour.Matches)),
	)
}

func teamIDs(t loader.Tournament) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.Teams))
	for _, team := range t.Teams {
		ids = append(ids, team.ID)
	}
	return ids
}

func matchIDs(t loader.Tournament) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.Matches))
	for _, m := range t.Matches {
		ids = append(ids, m.ID)
	}
	return ids
}
