package ws

import "github.com/radieske/tournament-bets/pkg/contracts/events"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
type ClientMsg struct {
	Type string `json:"type"` // ping
}

// BetUpdate é o que o cliente recebe quando uma aposta sua muda
type BetUpdate struct {
	Type    string            `json:"type"` // bet_changed
	Payload events.BetChanged `json:"payload"`
}
