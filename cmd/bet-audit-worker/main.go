package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/tournament-bets/internal/bet-audit/consumer"
	"github.com/radieske/tournament-bets/internal/bet-audit/pubsub"
	"github.com/radieske/tournament-bets/internal/bet-audit/repository"
	sharedcache "github.com/radieske/tournament-bets/internal/shared/cache"
	"github.com/radieske/tournament-bets/internal/shared/config"
	"github.com/radieske/tournament-bets/internal/shared/db"
	"github.com/radieske/tournament-bets/internal/shared/kafka"
	"github.com/radieske/tournament-bets/internal/shared/logger"
	"github.com/radieske/tournament-bets/internal/shared/metrics"
)

func main() {
	cfg := config.LoadFor("bet-audit-worker")
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Inicializa dependências: banco e Redis
	sqlDB, dialect, err := db.Connect(cfg.DBDriver, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := db.Migrate(ctx, sqlDB, dialect); err != nil {
		log.Fatal("db migrate", zap.Error(err))
	}

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Consumer Kafka (consumer group bet-audit) e DLQ para mensagens inválidas
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetEvents, "bet-audit")
	defer reader.Close()
	dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetEventsDLQ)
	defer dlq.Close()

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "bet_audit_messages_consumed_total", Help: "mensagens consumidas"})
	persist := prometheus.NewCounter(prometheus.CounterOpts{Name: "bet_audit_history_writes_total", Help: "linhas gravadas em bet_history"})
	broadcast := prometheus.NewCounter(prometheus.CounterOpts{Name: "bet_audit_broadcasts_total", Help: "atualizações publicadas no Redis"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "bet_audit_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, persist, broadcast, errorsBy)

	proc := &consumer.Processor{
		Log:         log,
		Reader:      reader,
		Repo:        repository.NewPostgresRepo(sqlDB),
		Broadcast:   pubsub.NewRedisBroadcaster(redisClient, cfg.RedisPubSubChannel),
		DLQ:         dlq,
		OnConsumed:  func() { consumed.Inc() },
		OnPersist:   func() { persist.Inc() },
		OnBroadcast: func() { broadcast.Inc() },
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// Servidor HTTP para métricas e health check
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, func(ctx context.Context) error {
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("db: %w", err)
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})

	log.Info("bet-audit-worker started", zap.String("topic", cfg.TopicBetEvents))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("bet-audit-worker stopped")
}
