package betting

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/radieske/tournament-bets/pkg/contracts/events"
)

// fixedUser devolve sempre o mesmo usuário; conta quantas vezes foi consultado
type fixedUser struct {
	mu    sync.Mutex
	user  User
	err   error
	calls int
}

func (f *fixedUser) CurrentUser(context.Context) (User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.user, f.err
}

// ctxUser lê o usuário do contexto, para testes com vários usuários
type ctxUser struct{}

type userKey struct{}

func asUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func (ctxUser) CurrentUser(ctx context.Context) (User, error) {
	u, ok := ctx.Value(userKey{}).(User)
	if !ok {
		return User{}, errors.New("no user")
	}
	return u, nil
}

type refData struct {
	teams   []Team
	matches []Match
	err     error
}

func (r *refData) GetTeam(_ context.Context, id uuid.UUID) (Team, error) {
	for _, t := range r.teams {
		if t.ID == id {
			return t, nil
		}
	}
	return Team{}, fmt.Errorf("team %s: %w", id, ErrNotFound)
}

func (r *refData) ListTeams(context.Context) ([]Team, error) {
	if r.err != nil {
		return nil, r.err
	}
	return slices.Clone(r.teams), nil
}

func (r *refData) GetMatch(_ context.Context, id uuid.UUID) (Match, error) {
	for _, m := range r.matches {
		if m.ID == id {
			return m, nil
		}
	}
	return Match{}, fmt.Errorf("match %s: %w", id, ErrNotFound)
}

// ListBettableMatches devolve na ordem cadastrada; o Manager garante a ordenação
func (r *refData) ListBettableMatches(context.Context) ([]Match, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []Match
	for _, m := range r.matches {
		if m.Bettable() {
			out = append(out, m)
		}
	}
	return out, nil
}

// memStore imita as garantias do repositório Postgres: cada método roda
// sob o mutex, como uma transação serializada.
type memStore struct {
	mu         sync.Mutex
	scoreBets  []ScoreBet
	winnerBets []WinnerBet

	failNext error
	writes   int
}

func (s *memStore) fail() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func (s *memStore) InsertScoreBet(_ context.Context, b ScoreBet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	s.writes++
	s.scoreBets = append(s.scoreBets, b)
	return nil
}

func (s *memStore) UpsertScoreBet(_ context.Context, b ScoreBet) (ScoreBet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return ScoreBet{}, err
	}
	s.writes++
	if i := s.firstScoreBet(b.MatchID, b.PlacerID); i >= 0 {
		s.scoreBets[i].ScoreHome = b.ScoreHome
		s.scoreBets[i].ScoreAway = b.ScoreAway
		return s.scoreBets[i], nil
	}
	s.scoreBets = append(s.scoreBets, b)
	return b, nil
}

func (s *memStore) UpdateScoreBetScores(_ context.Context, id, placerID uuid.UUID, home, away int) (ScoreBet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.scoreBets {
		if b.ID == id && b.PlacerID == placerID {
			s.writes++
			s.scoreBets[i].ScoreHome = home
			s.scoreBets[i].ScoreAway = away
			return s.scoreBets[i], nil
		}
	}
	return ScoreBet{}, fmt.Errorf("score bet %s: %w", id, ErrNotFound)
}

func (s *memStore) firstScoreBet(matchID, placerID uuid.UUID) int {
	for i, b := range s.scoreBets {
		if b.MatchID == matchID && b.PlacerID == placerID {
			return i
		}
	}
	return -1
}

func (s *memStore) FindScoreBet(_ context.Context, matchID, placerID uuid.UUID) (*ScoreBet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.firstScoreBet(matchID, placerID); i >= 0 {
		b := s.scoreBets[i]
		return &b, nil
	}
	return nil, nil
}

func (s *memStore) ListScoreBetsByPlacer(_ context.Context, placerID uuid.UUID) ([]ScoreBet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ScoreBet
	for _, b := range s.scoreBets {
		if b.PlacerID == placerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memStore) FindWinnerBet(_ context.Context, teamID, placerID uuid.UUID) (*WinnerBet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.winnerBets {
		if b.TeamID == teamID && b.PlacerID == placerID {
			return &b, nil
		}
	}
	return nil, nil
}

func (s *memStore) ListWinnerBetsByPlacer(_ context.Context, placerID uuid.UUID) ([]WinnerBet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []WinnerBet
	for _, b := range s.winnerBets {
		if b.PlacerID == placerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memStore) ReplaceWinnerBet(_ context.Context, b WinnerBet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	s.writes++
	s.winnerBets = slices.DeleteFunc(s.winnerBets, func(w WinnerBet) bool { return w.PlacerID == b.PlacerID })
	s.winnerBets = append(s.winnerBets, b)
	return nil
}

func (s *memStore) UpdateWinnerBetTeam(_ context.Context, id, placerID, teamID uuid.UUID) (WinnerBet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.winnerBets {
		if b.ID == id && b.PlacerID == placerID {
			s.writes++
			s.winnerBets[i].TeamID = teamID
			return s.winnerBets[i], nil
		}
	}
	return WinnerBet{}, fmt.Errorf("winner bet %s: %w", id, ErrNotFound)
}

func (s *memStore) winnerBetsOf(placerID uuid.UUID) []WinnerBet {
	out, _ := s.ListWinnerBetsByPlacer(context.Background(), placerID)
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.BetChanged
	err    error
}

func (p *recordingPublisher) PublishBetChanged(_ context.Context, e events.BetChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}
