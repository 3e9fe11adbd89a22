package betting

import (
	"context"

	"github.com/google/uuid"

	"github.com/radieske/tournament-bets/pkg/contracts/events"
)

// IdentityProvider resolve o usuário da requisição corrente
type IdentityProvider interface {
	CurrentUser(ctx context.Context) (User, error)
}

// TeamProvider resolve times por id; GetTeam retorna erro com ErrNotFound quando não existe
type TeamProvider interface {
	GetTeam(ctx context.Context, id uuid.UUID) (Team, error)
	ListTeams(ctx context.Context) ([]Team, error)
}

// MatchProvider resolve partidas por id.
// ListBettableMatches devolve só partidas com os dois times definidos,
// ordenadas por início (empate por id) e com os times preenchidos.
type MatchProvider interface {
	GetMatch(ctx context.Context, id uuid.UUID) (Match, error)
	ListBettableMatches(ctx context.Context) ([]Match, error)
}

// Store persiste apostas. Cada método é uma unidade atômica.
// Buscas por relação (Find*) devolvem nil, nil quando não há aposta;
// Update* devolvem erro com ErrNotFound quando o id não existe para o apostador.
type Store interface {
	InsertScoreBet(ctx context.Context, b ScoreBet) error
	// UpsertScoreBet atualiza o palpite existente de (partida, apostador) ou insere b
	UpsertScoreBet(ctx context.Context, b ScoreBet) (ScoreBet, error)
	UpdateScoreBetScores(ctx context.Context, id, placerID uuid.UUID, home, away int) (ScoreBet, error)
	FindScoreBet(ctx context.Context, matchID, placerID uuid.UUID) (*ScoreBet, error)
	// ListScoreBetsByPlacer ordena por created_at, id
	ListScoreBetsByPlacer(ctx context.Context, placerID uuid.UUID) ([]ScoreBet, error)

	FindWinnerBet(ctx context.Context, teamID, placerID uuid.UUID) (*WinnerBet, error)
	ListWinnerBetsByPlacer(ctx context.Context, placerID uuid.UUID) ([]WinnerBet, error)
	// ReplaceWinnerBet apaga todas as apostas de campeão do apostador e insere b na mesma transação
	ReplaceWinnerBet(ctx context.Context, b WinnerBet) error
	UpdateWinnerBetTeam(ctx context.Context, id, placerID, teamID uuid.UUID) (WinnerBet, error)
}

// EventPublisher recebe as alterações de apostas (ex.: Kafka)
type EventPublisher interface {
	PublishBetChanged(ctx context.Context, e events.BetChanged) error
}
