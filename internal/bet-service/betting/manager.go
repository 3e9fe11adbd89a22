package betting

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/tournament-bets/pkg/contracts/events"
)

// ScoreBetPolicy define o que PlaceScoreBet faz quando o usuário já tem
// palpite para a partida.
type ScoreBetPolicy string

const (
	// AllowDuplicates sempre insere um novo palpite; a alteração deve passar por UpdateScoreBet
	AllowDuplicates ScoreBetPolicy = "allow-duplicates"
	// Upsert atualiza o palpite existente de (partida, usuário) e só insere se não houver
	Upsert ScoreBetPolicy = "upsert"
)

func ParsePolicy(s string) (ScoreBetPolicy, error) {
	switch p := ScoreBetPolicy(s); p {
	case AllowDuplicates, Upsert:
		return p, nil
	case "":
		return AllowDuplicates, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Nomes das operações, usados em logs e métricas
const (
	OpWinnerBetForTeam    = "winner_bet_for_team"
	OpListTeamsWithBets   = "list_teams_with_bets"
	OpPlaceScoreBet       = "place_score_bet"
	OpUpdateScoreBet      = "update_score_bet"
	OpPlaceWinnerBet      = "place_winner_bet"
	OpUpdateWinnerBet     = "update_winner_bet"
	OpScoreBetForMatch    = "score_bet_for_match"
	OpListMatchesWithBets = "list_matches_with_bets"
)

// Manager aplica as regras de apostas de placar e de campeão do usuário corrente
// e monta as projeções usadas pela camada HTTP.
//
// O usuário é resolvido uma única vez por operação e repassado às etapas internas.
type Manager struct {
	log     *zap.Logger
	users   IdentityProvider
	teams   TeamProvider
	matches MatchProvider
	store   Store

	Policy ScoreBetPolicy
	Events EventPublisher // opcional

	// OnOperation é chamado ao fim de cada operação (métricas)
	OnOperation func(op string, err error)

	now   func() time.Time
	newID func() uuid.UUID
}

func NewManager(log *zap.Logger, users IdentityProvider, teams TeamProvider, matches MatchProvider, store Store) *Manager {
	return &Manager{
		log:     log,
		users:   users,
		teams:   teams,
		matches: matches,
		store:   store,
		Policy:  AllowDuplicates,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.New,
	}
}

// WinnerBetForTeam informa se o usuário corrente apostou no time como campeão.
// Sem aposta, devolve a projeção com ID uuid.Nil e o id do time.
func (m *Manager) WinnerBetForTeam(ctx context.Context, team Team) (v WinnerBetView, err error) {
	defer func() { m.observe(OpWinnerBetForTeam, err) }()

	user, err := m.currentUser(ctx)
	if err != nil {
		return WinnerBetView{}, err
	}
	return m.winnerBetForTeam(ctx, user, team)
}

func (m *Manager) winnerBetForTeam(ctx context.Context, user User, team Team) (WinnerBetView, error) {
	bet, err := m.store.FindWinnerBet(ctx, team.ID, user.ID)
	if err != nil {
		return WinnerBetView{}, err
	}
	if bet == nil {
		return WinnerBetView{ID: uuid.Nil, TeamID: team.ID}, nil
	}
	return WinnerBetView{ID: bet.ID, TeamID: team.ID}, nil
}

// ListTeamsWithBets devolve um item por time, na ordem do TeamProvider,
// com a aposta de campeão do usuário (ou a projeção vazia).
func (m *Manager) ListTeamsWithBets(ctx context.Context) (out []TeamWithBet, err error) {
	defer func() { m.observe(OpListTeamsWithBets, err) }()

	user, err := m.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	teams, err := m.teams.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	bets, err := m.store.ListWinnerBetsByPlacer(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list winner bets: %w", err)
	}

	byTeam := make(map[uuid.UUID]uuid.UUID, len(bets))
	for _, b := range bets {
		if _, ok := byTeam[b.TeamID]; !ok {
			byTeam[b.TeamID] = b.ID
		}
	}

	out = make([]TeamWithBet, 0, len(teams))
	for _, t := range teams {
		out = append(out, TeamWithBet{
			Team:      teamView(t),
			WinnerBet: WinnerBetView{ID: byTeam[t.ID], TeamID: t.ID},
		})
	}
	return out, nil
}

// PlaceScoreBet registra o palpite de placar do usuário para a partida.
// Com AllowDuplicates sempre insere; com Upsert reaproveita o palpite existente.
func (m *Manager) PlaceScoreBet(ctx context.Context, matchID uuid.UUID, scoreHome, scoreAway int) (bet ScoreBet, err error) {
	defer func() { m.observe(OpPlaceScoreBet, err) }()

	if err := validateScore(scoreHome, scoreAway); err != nil {
		return ScoreBet{}, err
	}

	user, err := m.currentUser(ctx)
	if err != nil {
		return ScoreBet{}, err
	}

	match, err := m.matches.GetMatch(ctx, matchID)
	if err != nil {
		return ScoreBet{}, err
	}
	if !match.Bettable() {
		return ScoreBet{}, fmt.Errorf("match %s: %w", match.ID, ErrNotBettable)
	}

	bet = ScoreBet{
		ID:        m.newID(),
		MatchID:   match.ID,
		PlacerID:  user.ID,
		ScoreHome: scoreHome,
		ScoreAway: scoreAway,
		CreatedAt: m.now(),
	}

	action := events.ActionPlaced
	switch m.Policy {
	case Upsert:
		stored, err := m.store.UpsertScoreBet(ctx, bet)
		if err != nil {
			return ScoreBet{}, err
		}
		if stored.ID != bet.ID {
			action = events.ActionUpdated
		}
		bet = stored
	case AllowDuplicates, "":
		if err := m.store.InsertScoreBet(ctx, bet); err != nil {
			return ScoreBet{}, err
		}
	default:
		return ScoreBet{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, m.Policy)
	}

	m.publishScoreBet(ctx, bet, action)
	return bet, nil
}

// UpdateScoreBet sobrescreve o placar de um palpite existente do usuário
func (m *Manager) UpdateScoreBet(ctx context.Context, betID uuid.UUID, scoreHome, scoreAway int) (err error) {
	defer func() { m.observe(OpUpdateScoreBet, err) }()

	if err := validateScore(scoreHome, scoreAway); err != nil {
		return err
	}

	user, err := m.currentUser(ctx)
	if err != nil {
		return err
	}

	bet, err := m.store.UpdateScoreBetScores(ctx, betID, user.ID, scoreHome, scoreAway)
	if err != nil {
		return err
	}

	m.publishScoreBet(ctx, bet, events.ActionUpdated)
	return nil
}

// PlaceWinnerBet substitui a aposta de campeão do usuário por uma nova no time indicado.
// O time é resolvido antes de qualquer escrita; a troca acontece numa única transação.
func (m *Manager) PlaceWinnerBet(ctx context.Context, teamID uuid.UUID) (bet WinnerBet, err error) {
	defer func() { m.observe(OpPlaceWinnerBet, err) }()

	user, err := m.currentUser(ctx)
	if err != nil {
		return WinnerBet{}, err
	}

	team, err := m.teams.GetTeam(ctx, teamID)
	if err != nil {
		return WinnerBet{}, err
	}

	bet = WinnerBet{
		ID:        m.newID(),
		TeamID:    team.ID,
		PlacerID:  user.ID,
		CreatedAt: m.now(),
	}
	if err := m.store.ReplaceWinnerBet(ctx, bet); err != nil {
		return WinnerBet{}, err
	}

	m.publishWinnerBet(ctx, bet, events.ActionPlaced)
	return bet, nil
}

// UpdateWinnerBet troca o time de uma aposta de campeão já existente do usuário
func (m *Manager) UpdateWinnerBet(ctx context.Context, betID, teamID uuid.UUID) (err error) {
	defer func() { m.observe(OpUpdateWinnerBet, err) }()

	user, err := m.currentUser(ctx)
	if err != nil {
		return err
	}

	team, err := m.teams.GetTeam(ctx, teamID)
	if err != nil {
		return err
	}

	bet, err := m.store.UpdateWinnerBetTeam(ctx, betID, user.ID, team.ID)
	if err != nil {
		return err
	}

	m.publishWinnerBet(ctx, bet, events.ActionUpdated)
	return nil
}

// ScoreBetForMatch devolve o palpite do usuário para a partida, ou nil se não houver
func (m *Manager) ScoreBetForMatch(ctx context.Context, match Match) (bet *ScoreBet, err error) {
	defer func() { m.observe(OpScoreBetForMatch, err) }()

	user, err := m.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return m.store.FindScoreBet(ctx, match.ID, user.ID)
}

// ScoreBetView projeta ScoreBetForMatch; nil significa "sem palpite"
func (m *Manager) ScoreBetView(ctx context.Context, match Match) (*ScoreBetView, error) {
	bet, err := m.ScoreBetForMatch(ctx, match)
	if err != nil || bet == nil {
		return nil, err
	}
	return scoreBetView(*bet), nil
}

// ListMatchesWithBets monta o painel de palpites: partidas com os dois times
// definidos, em ordem crescente de início, cada uma com o palpite do usuário.
func (m *Manager) ListMatchesWithBets(ctx context.Context) (out []MatchWithBet, err error) {
	defer func() { m.observe(OpListMatchesWithBets, err) }()

	user, err := m.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	matches, err := m.matches.ListBettableMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	bets, err := m.store.ListScoreBetsByPlacer(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list score bets: %w", err)
	}

	// com duplicatas vale o palpite mais antigo, o mesmo que FindScoreBet devolve
	byMatch := make(map[uuid.UUID]ScoreBet, len(bets))
	for _, b := range bets {
		if _, ok := byMatch[b.MatchID]; !ok {
			byMatch[b.MatchID] = b
		}
	}

	matches = slices.DeleteFunc(matches, func(mt Match) bool { return !mt.Bettable() })
	slices.SortStableFunc(matches, func(a, b Match) int { return a.BeginAt.Compare(b.BeginAt) })

	out = make([]MatchWithBet, 0, len(matches))
	for _, mt := range matches {
		item := MatchWithBet{Match: matchView(mt)}
		if b, ok := byMatch[mt.ID]; ok {
			item.ScoreBet = scoreBetView(b)
		}
		out = append(out, item)
	}
	return out, nil
}

func (m *Manager) currentUser(ctx context.Context) (User, error) {
	u, err := m.users.CurrentUser(ctx)
	if err != nil {
		return User{}, fmt.Errorf("current user: %w", err)
	}
	return u, nil
}

func (m *Manager) observe(op string, err error) {
	if err != nil {
		m.log.Debug("bet operation failed", zap.String("op", op), zap.Error(err))
	}
	if m.OnOperation != nil {
		m.OnOperation(op, err)
	}
}

func (m *Manager) publishScoreBet(ctx context.Context, b ScoreBet, action string) {
	home, away := b.ScoreHome, b.ScoreAway
	m.publish(ctx, events.BetChanged{
		BetID:     b.ID.String(),
		UserID:    b.PlacerID.String(),
		Kind:      events.KindScore,
		Action:    action,
		MatchID:   b.MatchID.String(),
		ScoreHome: &home,
		ScoreAway: &away,
	})
}

func (m *Manager) publishWinnerBet(ctx context.Context, b WinnerBet, action string) {
	m.publish(ctx, events.BetChanged{
		BetID:  b.ID.String(),
		UserID: b.PlacerID.String(),
		Kind:   events.KindWinner,
		Action: action,
		TeamID: b.TeamID.String(),
	})
}

// publish não falha a operação: a aposta já foi persistida
func (m *Manager) publish(ctx context.Context, e events.BetChanged) {
	if m.Events == nil {
		return
	}
	e.Ts = m.now()
	if err := m.Events.PublishBetChanged(ctx, e); err != nil {
		m.log.Warn("publish bet event failed",
			zap.String("bet_id", e.BetID),
			zap.String("kind", e.Kind),
			zap.Error(err),
		)
	}
}

func validateScore(home, away int) error {
	if home < 0 || away < 0 {
		return ErrInvalidScore
	}
	return nil
}
