package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/radieske/tournament-bets/internal/bet-service/betting"
)

// ErrInvalidTournament agrupa os erros de validação do arquivo
var ErrInvalidTournament = errors.New("invalid tournament file")

// File é o formato YAML do torneio
type File struct {
	Teams   []TeamEntry  `yaml:"teams"`
	Matches []MatchEntry `yaml:"matches"`
}

type TeamEntry struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	FlagURL string `yaml:"flag_url"`
}

// MatchEntry: home/away vazios enquanto o confronto não está definido (mata-mata)
type MatchEntry struct {
	ID      string `yaml:"id"`
	BeginAt string `yaml:"begin_at"` // RFC3339
	Home    string `yaml:"home"`
	Away    string `yaml:"away"`
}

// Tournament é o resultado validado, pronto para o refdata.Writer
type Tournament struct {
	Teams   []betting.Team
	Matches []betting.Match
}

// LoadFile lê e valida o arquivo do torneio
func LoadFile(path string) (Tournament, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tournament{}, err
	}
	defer f.Close()
	return Load(f)
}

// Load decodifica o YAML e valida ids, referências e horários
func Load(r io.Reader) (Tournament, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return Tournament{}, fmt.Errorf("decode tournament: %w", err)
	}
	return file.Resolve()
}

// Resolve converte as entradas em entidades, checando duplicidades e referências
func (f File) Resolve() (Tournament, error) {
	var out Tournament
	teams := make(map[uuid.UUID]betting.Team, len(f.Teams))

	for i, e := range f.Teams {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return Tournament{}, fmt.Errorf("%w: team #%d: id %q", ErrInvalidTournament, i+1, e.ID)
		}
		if e.Name == "" {
			return Tournament{}, fmt.Errorf("%w: team %s: empty name", ErrInvalidTournament, id)
		}
		if _, dup := teams[id]; dup {
			return Tournament{}, fmt.Errorf("%w: team %s: duplicated id", ErrInvalidTournament, id)
		}
		t := betting.Team{ID: id, Name: e.Name, FlagURL: e.FlagURL}
		out.Teams = append(out.Teams, t)
		teams[id] = t
	}

	seen := make(map[uuid.UUID]struct{}, len(f.Matches))
	for i, e := range f.Matches {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return Tournament{}, fmt.Errorf("%w: match #%d: id %q", ErrInvalidTournament, i+1, e.ID)
		}
		if _, dup := seen[id]; dup {
			return Tournament{}, fmt.Errorf("%w: match %s: duplicated id", ErrInvalidTournament, id)
		}
		seen[id] = struct{}{}

		beginAt, err := time.Parse(time.RFC3339, e.BeginAt)
		if err != nil {
			return Tournament{}, fmt.Errorf("%w: match %s: begin_at %q", ErrInvalidTournament, id, e.BeginAt)
		}

		home, err := teamRef(teams, e.Home)
		if err != nil {
			return Tournament{}, fmt.Errorf("%w: match %s: home: %v", ErrInvalidTournament, id, err)
		}
		away, err := teamRef(teams, e.Away)
		if err != nil {
			return Tournament{}, fmt.Errorf("%w: match %s: away: %v", ErrInvalidTournament, id, err)
		}
		if home != nil && away != nil && home.ID == away.ID {
			return Tournament{}, fmt.Errorf("%w: match %s: team plays itself", ErrInvalidTournament, id)
		}

		out.Matches = append(out.Matches, betting.Match{ID: id, BeginAt: beginAt.UTC(), HomeTeam: home, AwayTeam: away})
	}

	return out, nil
}

// teamRef resolve o lado da partida; vazio significa "a definir"
func teamRef(teams map[uuid.UUID]betting.Team, raw string) (*betting.Team, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("id %q", raw)
	}
	t, ok := teams[id]
	if !ok {
		return nil, fmt.Errorf("unknown team %s", id)
	}
	return &t, nil
}
