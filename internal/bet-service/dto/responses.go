package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/radieske/tournament-bets/internal/bet-service/betting"
)

type TeamResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	FlagURL string `json:"flagUrl,omitempty"`
}

// WinnerBetResponse: ID vazio quando o usuário não apostou no time
type WinnerBetResponse struct {
	ID     *string `json:"id"`
	TeamID string  `json:"teamId"`
}

type TeamWithBetResponse struct {
	Team      TeamResponse      `json:"team"`
	WinnerBet WinnerBetResponse `json:"winnerBet"`
}

type ScoreBetResponse struct {
	ID        string `json:"id"`
	ScoreHome int    `json:"scoreHome"`
	ScoreAway int    `json:"scoreAway"`
}

type MatchResponse struct {
	ID      string       `json:"id"`
	BeginAt time.Time    `json:"beginAt"`
	Home    TeamResponse `json:"home"`
	Away    TeamResponse `json:"away"`
}

type MatchWithBetResponse struct {
	Match    MatchResponse     `json:"match"`
	ScoreBet *ScoreBetResponse `json:"scoreBet"`
}

// PlacedScoreBetResponse é devolvido pelo POST /v1/score-bets
type PlacedScoreBetResponse struct {
	ID        string    `json:"id"`
	MatchID   string    `json:"matchId"`
	ScoreHome int       `json:"scoreHome"`
	ScoreAway int       `json:"scoreAway"`
	CreatedAt time.Time `json:"createdAt"`
}

// PlacedWinnerBetResponse é devolvido pelo POST /v1/winner-bets
type PlacedWinnerBetResponse struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"teamId"`
	CreatedAt time.Time `json:"createdAt"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func Team(v betting.TeamView) TeamResponse {
	return TeamResponse{ID: v.ID.String(), Name: v.Name, FlagURL: v.FlagURL}
}

func WinnerBet(v betting.WinnerBetView) WinnerBetResponse {
	out := WinnerBetResponse{TeamID: v.TeamID.String()}
	if v.ID != uuid.Nil {
		id := v.ID.String()
		out.ID = &id
	}
	return out
}

func ScoreBet(v *betting.ScoreBetView) *ScoreBetResponse {
	if v == nil {
		return nil
	}
	return &ScoreBetResponse{ID: v.ID.String(), ScoreHome: v.ScoreHome, ScoreAway: v.ScoreAway}
}

func TeamsWithBets(items []betting.TeamWithBet) []TeamWithBetResponse {
	out := make([]TeamWithBetResponse, 0, len(items))
	for _, it := range items {
		out = append(out, TeamWithBetResponse{Team: Team(it.Team), WinnerBet: WinnerBet(it.WinnerBet)})
	}
	return out
}

func MatchesWithBets(items []betting.MatchWithBet) []MatchWithBetResponse {
	out := make([]MatchWithBetResponse, 0, len(items))
	for _, it := range items {
		out = append(out, MatchWithBetResponse{
			Match: MatchResponse{
				ID:      it.Match.ID.String(),
				BeginAt: it.Match.BeginAt,
				Home:    Team(it.Match.Home),
				Away:    Team(it.Match.Away),
			},
			ScoreBet: ScoreBet(it.ScoreBet),
		})
	}
	return out
}

func PlacedScoreBet(b betting.ScoreBet) PlacedScoreBetResponse {
	return PlacedScoreBetResponse{
		ID:        b.ID.String(),
		MatchID:   b.MatchID.String(),
		ScoreHome: b.ScoreHome,
		ScoreAway: b.ScoreAway,
		CreatedAt: b.CreatedAt,
	}
}

func PlacedWinnerBet(b betting.WinnerBet) PlacedWinnerBetResponse {
	return PlacedWinnerBetResponse{ID: b.ID.String(), TeamID: b.TeamID.String(), CreatedAt: b.CreatedAt}
}
