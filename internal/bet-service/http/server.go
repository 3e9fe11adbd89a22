package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/tournament-bets/internal/bet-service/betting"
	"github.com/radieske/tournament-bets/internal/bet-service/dto"
	"github.com/radieske/tournament-bets/internal/bet-service/identity"
)

// Bets são as operações do betting.Manager usadas pelos handlers
type Bets interface {
	WinnerBetForTeam(ctx context.Context, team betting.Team) (betting.WinnerBetView, error)
	ListTeamsWithBets(ctx context.Context) ([]betting.TeamWithBet, error)
	PlaceScoreBet(ctx context.Context, matchID uuid.UUID, scoreHome, scoreAway int) (betting.ScoreBet, error)
	UpdateScoreBet(ctx context.Context, betID uuid.UUID, scoreHome, scoreAway int) error
	PlaceWinnerBet(ctx context.Context, teamID uuid.UUID) (betting.WinnerBet, error)
	UpdateWinnerBet(ctx context.Context, betID, teamID uuid.UUID) error
	ScoreBetView(ctx context.Context, match betting.Match) (*betting.ScoreBetView, error)
	ListMatchesWithBets(ctx context.Context) ([]betting.MatchWithBet, error)
}

// RefData resolve os times e partidas citados na URL
type RefData interface {
	GetTeam(ctx context.Context, id uuid.UUID) (betting.Team, error)
	GetMatch(ctx context.Context, id uuid.UUID) (betting.Match, error)
}

// Server expõe a API de apostas do usuário corrente
type Server struct {
	log        *zap.Logger
	bets       Bets
	refs       RefData
	userHeader string

	// WS atende GET /v1/ws quando definido
	WS http.Handler
}

// NewServer instancia o servidor HTTP de apostas
func NewServer(log *zap.Logger, bets Bets, refs RefData, userHeader string) *Server {
	return &Server{log: log, bets: bets, refs: refs, userHeader: userHeader}
}

// Router retorna o roteador com as rotas da API; todas exigem o header de usuário
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Use(identity.Middleware(s.userHeader))

		r.Get("/winner-bets", s.listTeamsWithBets)          // Times com a aposta de campeão
		r.Post("/winner-bets", s.placeWinnerBet)            // Aposta de campeão (substitui a anterior)
		r.Put("/winner-bets/{id}", s.updateWinnerBet)       // Troca o time da aposta
		r.Get("/teams/{id}/winner-bet", s.winnerBetForTeam) // Aposta de campeão num time

		r.Get("/score-bets", s.listMatchesWithBets)          // Painel de palpites
		r.Post("/score-bets", s.placeScoreBet)               // Novo palpite de placar
		r.Put("/score-bets/{id}", s.updateScoreBet)          // Altera o placar
		r.Get("/matches/{id}/score-bet", s.scoreBetForMatch) // Palpite numa partida

		if s.WS != nil {
			r.Handle("/ws", s.WS)
		}
	})
	return r
}

func (s *Server) listTeamsWithBets(w http.ResponseWriter, r *http.Request) {
	items, err := s.bets.ListTeamsWithBets(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.TeamsWithBets(items))
}

func (s *Server) winnerBetForTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	team, err := s.refs.GetTeam(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.bets.WinnerBetForTeam(r.Context(), team)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.WinnerBet(v))
}

func (s *Server) placeWinnerBet(w http.ResponseWriter, r *http.Request) {
	var req dto.WinnerBetRequest
	if !decode(w, r, &req) {
		return
	}
	bet, err := s.bets.PlaceWinnerBet(r.Context(), uuid.MustParse(req.TeamID))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.PlacedWinnerBet(bet))
}

func (s *Server) updateWinnerBet(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req dto.WinnerBetRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.bets.UpdateWinnerBet(r.Context(), id, uuid.MustParse(req.TeamID)); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listMatchesWithBets(w http.ResponseWriter, r *http.Request) {
	items, err := s.bets.ListMatchesWithBets(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MatchesWithBets(items))
}

func (s *Server) scoreBetForMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	match, err := s.refs.GetMatch(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.bets.ScoreBetView(r.Context(), match)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if v == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, dto.ScoreBet(v))
}

func (s *Server) placeScoreBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceScoreBetRequest
	if !decode(w, r, &req) {
		return
	}
	bet, err := s.bets.PlaceScoreBet(r.Context(), uuid.MustParse(req.MatchID), *req.ScoreHome, *req.ScoreAway)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.PlacedScoreBet(bet))
}

func (s *Server) updateScoreBet(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req dto.UpdateScoreBetRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.bets.UpdateScoreBet(r.Context(), id, *req.ScoreHome, *req.ScoreAway); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeError traduz os erros de domínio para status HTTP
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, betting.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, betting.ErrInvalidScore):
		status = http.StatusBadRequest
	case errors.Is(err, betting.ErrNotBettable):
		status = http.StatusConflict
	case errors.Is(err, identity.ErrNoUser):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		s.log.Error("bet request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, status, dto.ErrorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, dto.ErrorResponse{Error: err.Error()})
}

// decode lê o corpo JSON e valida as tags; responde 400 em caso de erro
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return false
	}
	if err := dto.Validate.Struct(v); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return false
	}
	return true
}

func urlID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
