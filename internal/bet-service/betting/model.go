package betting

import (
	"time"

	"github.com/google/uuid"
)

// User é a identidade de quem está apostando.
type User struct {
	ID uuid.UUID
}

// Team é um dado de referência, nunca alterado pelo Manager.
type Team struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	FlagURL string    `json:"flag_url"`
}

// Match é uma partida do torneio. Enquanto um dos lados não estiver definido
// a partida não aceita apostas.
type Match struct {
	ID       uuid.UUID `json:"id"`
	BeginAt  time.Time `json:"begin_at"`
	HomeTeam *Team     `json:"home_team,omitempty"`
	AwayTeam *Team     `json:"away_team,omitempty"`
}

// Bettable informa se os dois times da partida já são conhecidos
func (m Match) Bettable() bool {
	return m.HomeTeam != nil && m.AwayTeam != nil
}

// ScoreBet é o palpite de placar exato de um usuário para uma partida.
type ScoreBet struct {
	ID        uuid.UUID
	MatchID   uuid.UUID
	PlacerID  uuid.UUID
	ScoreHome int
	ScoreAway int
	CreatedAt time.Time
}

// WinnerBet é o palpite de campeão do torneio. No máximo um por usuário.
type WinnerBet struct {
	ID        uuid.UUID
	TeamID    uuid.UUID
	PlacerID  uuid.UUID
	CreatedAt time.Time
}

// WinnerBetView é a projeção de WinnerBet para um time.
// ID == uuid.Nil significa que o usuário não apostou nesse time.
type WinnerBetView struct {
	ID     uuid.UUID
	TeamID uuid.UUID
}

// Placed informa se a projeção representa uma aposta existente
func (v WinnerBetView) Placed() bool { return v.ID != uuid.Nil }

type ScoreBetView struct {
	ID        uuid.UUID
	ScoreHome int
	ScoreAway int
}

type TeamView struct {
	ID      uuid.UUID
	Name    string
	FlagURL string
}

type MatchView struct {
	ID      uuid.UUID
	BeginAt time.Time
	Home    TeamView
	Away    TeamView
}

// TeamWithBet é um item da listagem de apostas de campeão.
type TeamWithBet struct {
	Team      TeamView
	WinnerBet WinnerBetView
}

// MatchWithBet é um item do painel de palpites; ScoreBet é nil quando não há palpite.
type MatchWithBet struct {
	Match    MatchView
	ScoreBet *ScoreBetView
}

func teamView(t Team) TeamView {
	return TeamView{ID: t.ID, Name: t.Name, FlagURL: t.FlagURL}
}

func matchView(m Match) MatchView {
	v := MatchView{ID: m.ID, BeginAt: m.BeginAt}
	if m.HomeTeam != nil {
		v.Home = teamView(*m.HomeTeam)
	}
	if m.AwayTeam != nil {
		v.Away = teamView(*m.AwayTeam)
	}
	return v
}

func scoreBetView(b ScoreBet) *ScoreBetView {
	return &ScoreBetView{ID: b.ID, ScoreHome: b.ScoreHome, ScoreAway: b.ScoreAway}
}
