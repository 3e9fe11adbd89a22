package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/tournament-bets/internal/shared/kafka"
	"github.com/radieske/tournament-bets/pkg/contracts/events"
)

// sliceReader entrega as mensagens em ordem e depois bloqueia até ctx ser cancelado
type sliceReader struct {
	msgs []kafka.Message
	errs []error
	idle chan struct{} // fechado quando não há mais mensagens
}

func (r *sliceReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return kafka.Message{}, err
	}
	if len(r.msgs) == 0 {
		if r.idle != nil {
			close(r.idle)
			r.idle = nil
		}
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

type memRepo struct {
	mu   sync.Mutex
	rows []events.BetChanged
	err  error
}

func (r *memRepo) InsertHistory(_ context.Context, e events.BetChanged) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, e)
	return nil
}

type memBroadcaster struct {
	sent []events.BetChanged
	err  error
}

func (b *memBroadcaster) PublishBetChanged(_ context.Context, e events.BetChanged) error {
	b.sent = append(b.sent, e)
	return b.err
}

func message(t *testing.T, e events.BetChanged) kafka.Message {
	t.Helper()
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	return kafka.Message{Key: []byte(e.UserID), Value: b}
}

type memWriter struct {
	msgs []kafka.Message
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

type counters struct {
	consumed, persisted, broadcast int
	errors                         map[string]int
}

func newProcessor(r MessageReader, repo HistoryRepo, b Broadcaster, c *counters) *Processor {
	c.errors = map[string]int{}
	return &Processor{
		Log:         zap.NewNop(),
		Reader:      r,
		Repo:        repo,
		Broadcast:   b,
		OnConsumed:  func() { c.consumed++ },
		OnPersist:   func() { c.persisted++ },
		OnBroadcast: func() { c.broadcast++ },
		OnError:     func(stage string) { c.errors[stage]++ },
		RetryDelay:  time.Millisecond,
	}
}

func TestProcessor_Run(t *testing.T) {
	ok := events.BetChanged{BetID: "b1", UserID: "u1", Kind: events.KindWinner, Action: events.ActionPlaced, TeamID: "t1"}
	reader := &sliceReader{
		errs: []error{errors.New("rebalance")},
		msgs: []kafka.Message{
			message(t, ok),
			{Value: []byte("not json")},
			message(t, events.BetChanged{Kind: events.KindScore}),
		},
		idle: make(chan struct{}),
	}
	idle := reader.idle
	repo := &memRepo{}
	bc := &memBroadcaster{}
	dlq := &memWriter{}
	var c counters
	p := newProcessor(reader, repo, bc, &c)
	p.DLQ = dlq

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case <-idle:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for messages")
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected 1 history row, got %d", len(repo.rows))
	}
	if c.consumed != 3 {
		t.Fatalf("expected 3 consumed, got %d", c.consumed)
	}
	if c.errors["read"] != 1 || c.errors["decode"] != 2 {
		t.Fatalf("unexpected error counters: %v", c.errors)
	}
	if len(bc.sent) != 1 || bc.sent[0].BetID != "b1" {
		t.Fatalf("unexpected broadcast: %+v", bc.sent)
	}
	if len(dlq.msgs) != 2 || string(dlq.msgs[0].Value) != "not json" {
		t.Fatalf("expected 2 dead letters, got %+v", dlq.msgs)
	}
}

func TestProcessor_Handle(t *testing.T) {
	ev := events.BetChanged{BetID: "b1", UserID: "u1", Kind: events.KindScore, Action: events.ActionUpdated}

	tests := []struct {
		name          string
		repoErr       error
		broadcastErr  error
		wantPersisted int
		wantBroadcast int
		wantErrStage  string
	}{
		{"ok", nil, nil, 1, 1, ""},
		{"db failure skips broadcast", errors.New("db"), nil, 0, 0, "db_history"},
		{"broadcast failure keeps history", nil, errors.New("redis"), 1, 0, "broadcast"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &memRepo{err: tt.repoErr}
			bc := &memBroadcaster{err: tt.broadcastErr}
			var c counters
			p := newProcessor(&sliceReader{}, repo, bc, &c)

			p.Handle(context.Background(), message(t, ev))

			if c.persisted != tt.wantPersisted || c.broadcast != tt.wantBroadcast {
				t.Fatalf("persisted=%d broadcast=%d", c.persisted, c.broadcast)
			}
			if tt.wantErrStage != "" && c.errors[tt.wantErrStage] != 1 {
				t.Fatalf("expected error at %s, got %v", tt.wantErrStage, c.errors)
			}
			if tt.repoErr != nil && len(bc.sent) != 0 {
				t.Fatal("broadcast sent after db failure")
			}
		})
	}
}
