package producer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/radieske/tournament-bets/internal/shared/kafka"
	"github.com/radieske/tournament-bets/pkg/contracts/events"
)

// MessageWriter é o subconjunto de *kafka.Writer usado aqui
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher publica alterações de apostas no tópico bet_events.
// A chave é o usuário: eventos do mesmo usuário caem na mesma partição, em ordem.
type KafkaPublisher struct {
	Writer MessageWriter
	Topic  string
}

func NewKafkaPublisher(w MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Topic: topic}
}

func (p *KafkaPublisher) PublishBetChanged(ctx context.Context, e events.BetChanged) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode bet event: %w", err)
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.UserID),
		Value: b,
		Time:  e.Ts,
	})
}
