package events

import "time"

// Tipos de aposta
const (
	KindScore  = "score"
	KindWinner = "winner"
)

// Ações sobre uma aposta
const (
	ActionPlaced  = "placed"
	ActionUpdated = "updated"
)

// BetChanged é publicado no tópico "bet_events" sempre que uma aposta
// de placar ou de campeão é criada ou alterada.
type BetChanged struct {
	BetID     string    `json:"bet_id"`
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`   // "score" | "winner"
	Action    string    `json:"action"` // "placed" | "updated"
	MatchID   string    `json:"match_id,omitempty"`
	TeamID    string    `json:"team_id,omitempty"`
	ScoreHome *int      `json:"score_home,omitempty"`
	ScoreAway *int      `json:"score_away,omitempty"`
	Ts        time.Time `json:"ts"`
}
