package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/tournament-bets/internal/bet-service/identity"
	"github.com/radieske/tournament-bets/pkg/contracts/events"
)

func dial(t *testing.T, srv *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"X-User-ID": {user}})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// o pong garante que a conexão já foi registrada no hub
	if err := conn.WriteJSON(ClientMsg{Type: "ping"}); err != nil {
		t.Fatalf("ping: %v", err)
	}
	var pong map[string]string
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&pong); err != nil || pong["type"] != "pong" {
		t.Fatalf("pong: %v %v", pong, err)
	}
	return conn
}

func TestHub_BroadcastOnlyToOwner(t *testing.T) {
	hub := NewHub(zap.NewNop(), func(*http.Request) bool { return true })
	srv := httptest.NewServer(identity.Middleware("X-User-ID")(hub))
	defer srv.Close()

	alice, bob := uuid.NewString(), uuid.NewString()
	aliceConn := dial(t, srv, alice)
	bobConn := dial(t, srv, bob)

	if n := hub.Connections(alice); n != 1 {
		t.Fatalf("expected 1 connection for alice, got %d", n)
	}

	hub.Broadcast(events.BetChanged{BetID: "b1", UserID: alice, Kind: events.KindWinner, Action: events.ActionPlaced})

	var upd BetUpdate
	_ = aliceConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := aliceConn.ReadJSON(&upd); err != nil {
		t.Fatalf("alice read: %v", err)
	}
	if upd.Type != "bet_changed" || upd.Payload.BetID != "b1" {
		t.Fatalf("unexpected update: %+v", upd)
	}

	_ = bobConn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if err := bobConn.ReadJSON(&upd); err == nil {
		t.Fatalf("bob received alice's update: %+v", upd)
	}
}

func TestHub_RejectsWithoutUser(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ws", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
