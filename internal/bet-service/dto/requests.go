package dto

import "github.com/go-playground/validator/v10"

// Validate é compartilhado pelos handlers; validator.Validate é seguro para uso concorrente
var Validate = validator.New(validator.WithRequiredStructEnabled())

// PlaceScoreBetRequest: POST /v1/score-bets
type PlaceScoreBetRequest struct {
	MatchID   string `json:"matchId" validate:"required,uuid"`
	ScoreHome *int   `json:"scoreHome" validate:"required,gte=0"`
	ScoreAway *int   `json:"scoreAway" validate:"required,gte=0"`
}

// UpdateScoreBetRequest: PUT /v1/score-bets/{id}
type UpdateScoreBetRequest struct {
	ScoreHome *int `json:"scoreHome" validate:"required,gte=0"`
	ScoreAway *int `json:"scoreAway" validate:"required,gte=0"`
}

// WinnerBetRequest: POST /v1/winner-bets e PUT /v1/winner-bets/{id}
type WinnerBetRequest struct {
	TeamID string `json:"teamId" validate:"required,uuid"`
}
