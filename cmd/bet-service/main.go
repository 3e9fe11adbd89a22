package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/tournament-bets/internal/bet-service/betting"
	bhttp "github.com/radieske/tournament-bets/internal/bet-service/http"
	"github.com/radieske/tournament-bets/internal/bet-service/identity"
	kpub "github.com/radieske/tournament-bets/internal/bet-service/producer"
	"github.com/radieske/tournament-bets/internal/bet-service/refdata"
	"github.com/radieske/tournament-bets/internal/bet-service/repo"
	"github.com/radieske/tournament-bets/internal/bet-service/ws"
	sharedcache "github.com/radieske/tournament-bets/internal/shared/cache"
	"github.com/radieske/tournament-bets/internal/shared/config"
	"github.com/radieske/tournament-bets/internal/shared/db"
	"github.com/radieske/tournament-bets/internal/shared/kafka"
	"github.com/radieske/tournament-bets/internal/shared/logger"
	"github.com/radieske/tournament-bets/internal/shared/metrics"
)

func main() {
	cfg := config.LoadFor("bet-service")
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	policy, err := betting.ParsePolicy(cfg.ScoreBetPolicy)
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Banco (postgres, pgx ou sqlite3) + schema
	sqlDB, dialect, err := db.Connect(cfg.DBDriver, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := db.Migrate(ctx, sqlDB, dialect); err != nil {
		log.Fatal("db migrate", zap.Error(err))
	}

	// Redis: cache de times/partidas e Pub/Sub das atualizações
	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writer (topic bet_events)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetEvents)
	defer writer.Close()

	// deps
	refs := refdata.NewCached(refdata.NewReadRepo(sqlDB), rdb, cfg.RefDataCacheTTL, log)
	store := repo.NewPostgres(sqlDB, dialect)

	// Métricas das operações de aposta
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bet_operations_total",
		Help: "operações de aposta por tipo e resultado",
	}, []string{"op", "outcome"})
	prometheus.MustRegister(ops)

	manager := betting.NewManager(log, identity.ContextProvider{}, refs, refs, store)
	manager.Policy = policy
	manager.Events = kpub.NewKafkaPublisher(writer, cfg.TopicBetEvents)
	manager.OnOperation = func(op string, err error) {
		ops.WithLabelValues(op, outcome(err)).Inc()
	}

	// WebSocket por usuário, alimentado pelo bet-audit-worker via Redis
	hub := ws.NewHub(log, func(r *http.Request) bool { return true })
	ws.StartRedisSubscriber(ctx, log, rdb, cfg.RedisPubSubChannel, hub)

	// HTTP público
	api := bhttp.NewServer(log, manager, refs, cfg.UserHeader)
	api.WS = hub
	apiSrv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// metrics/health
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, func(ctx context.Context) error {
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("db: %w", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})

	go func() {
		log.Info("bet-service listening",
			zap.String("addr", apiSrv.Addr),
			zap.String("db_driver", cfg.DBDriver),
			zap.String("score_bet_policy", string(policy)),
		)
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("api", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("bet-service stopped")
}

// outcome classifica o erro para o label da métrica
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, betting.ErrNotFound):
		return "not_found"
	case errors.Is(err, betting.ErrInvalidScore), errors.Is(err, betting.ErrNotBettable):
		return "rejected"
	default:
		return "error"
	}
}
