package consumer

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/tournament-bets/internal/shared/kafka"
	"github.com/radieske/tournament-bets/pkg/contracts/events"
)

// MessageReader é o subconjunto de *kafka.Reader usado pelo Processor
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// HistoryRepo grava o histórico de alterações de apostas
type HistoryRepo interface {
	InsertHistory(ctx context.Context, e events.BetChanged) error
}

// MessageWriter é o subconjunto de *kafka.Writer usado para a DLQ
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Broadcaster repassa a alteração para o bet-service (Redis Pub/Sub)
type Broadcaster interface {
	PublishBetChanged(ctx context.Context, e events.BetChanged) error
}

// Processor consome bet_events do Kafka, grava em bet_history e avisa o bet-service
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Processor struct {
	Log       *zap.Logger
	Reader    MessageReader
	Repo      HistoryRepo
	Broadcast Broadcaster
	DLQ       MessageWriter // opcional: recebe mensagens que não decodificam

	OnConsumed  func()       // métricas (counter++)
	OnPersist   func()       // métricas
	OnBroadcast func()       // métricas
	OnError     func(string) // métricas por fase

	// RetryDelay é a espera após falha de leitura (padrão 500ms)
	RetryDelay time.Duration
}

// Run inicia o loop de consumo; retorna quando ctx é cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			p.wait(ctx)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}
		p.Handle(ctx, m)
	}
}

// Handle processa uma mensagem. Mensagens inválidas são descartadas;
// falha no broadcast não desfaz o histórico.
func (p *Processor) Handle(ctx context.Context, m kafka.Message) {
	var ev events.BetChanged
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		p.Log.Warn("invalid message", zap.Int64("offset", m.Offset), zap.Error(err))
		p.reject(ctx, m)
		return
	}
	if ev.BetID == "" || ev.UserID == "" {
		p.Log.Warn("bet event without ids", zap.Int64("offset", m.Offset))
		p.reject(ctx, m)
		return
	}

	if err := p.Repo.InsertHistory(ctx, ev); err != nil {
		p.Log.Warn("db insert history failed", zap.String("bet_id", ev.BetID), zap.Error(err))
		p.fail("db_history")
		return
	}
	if p.OnPersist != nil {
		p.OnPersist()
	}

	if p.Broadcast == nil {
		return
	}
	if err := p.Broadcast.PublishBetChanged(ctx, ev); err != nil {
		p.Log.Warn("redis publish failed", zap.String("bet_id", ev.BetID), zap.Error(err))
		p.fail("broadcast")
		return
	}
	if p.OnBroadcast != nil {
		p.OnBroadcast()
	}
}

// reject conta o erro de decode e manda a mensagem original para a DLQ
func (p *Processor) reject(ctx context.Context, m kafka.Message) {
	p.fail("decode")
	if p.DLQ == nil {
		return
	}
	if err := p.DLQ.WriteMessages(ctx, kafka.Message{Key: m.Key, Value: m.Value}); err != nil {
		p.Log.Warn("dlq write failed", zap.Int64("offset", m.Offset), zap.Error(err))
		p.fail("dlq")
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

func (p *Processor) wait(ctx context.Context) {
	d := p.RetryDelay
	if d == 0 {
		d = 500 * time.Millisecond
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
