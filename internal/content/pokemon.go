package content

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/DoyleJ11/pixeliz-backend/internal/engine"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPokeAPIURL   = "https://pokeapi.co/api/v2"
	DefaultPokemonCount = 151
	pokemonParallelism  = 15
)

// PokemonSource builds one round per Pokémon from its official artwork.
type PokemonSource struct {
	client *CatalogClient
	count  int
	log    *zap.Logger
}

func NewPokemonSource(baseURL string, count int, log *zap.Logger) *PokemonSource {
	if baseURL == "" {
		baseURL = DefaultPokeAPIURL
	}
	if count <= 0 {
		count = DefaultPokemonCount
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PokemonSource{client: NewCatalogClient(baseURL), count: count, log: log}
}

func (s *PokemonSource) Name() string { return "pokemon" }

type pokemon struct {
	Name    string `json:"name"`
	Sprites struct {
		Other struct {
			OfficialArtwork struct {
				FrontDefault string `json:"front_default"`
			} `json:"official-artwork"`
		} `json:"other"`
	} `json:"sprites"`
	Types []struct {
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"types"`
}

type pokemonSpecies struct {
	Names []struct {
		Name     string `json:"name"`
		Language struct {
			Name string `json:"name"`
		} `json:"language"`
	} `json:"names"`
}

func (s *PokemonSource) Load(ctx context.Context) ([]engine.RoundDefinition, error) {
	slots := make([]*engine.RoundDefinition, s.count)
	failed := make([]bool, s.count)

	var g errgroup.Group
	g.SetLimit(pokemonParallelism)
	for i := range s.count {
		id := i + 1
		g.Go(func() error {
			def, err := s.loadOne(ctx, id)
			if err != nil {
				s.log.Debug("pokemon skipped", zap.Int("id", id), zap.Error(err))
				failed[i] = true
				return nil
			}
			slots[i] = def
			return nil
		})
	}
	_ = g.Wait()

	var rounds []engine.RoundDefinition
	misses := 0
	for i, def := range slots {
		if failed[i] {
			misses++
		}
		if def != nil {
			rounds = append(rounds, *def)
		}
	}
	if len(rounds) == 0 && misses > 0 {
		return nil, fmt.Errorf("all %d pokémon lookups failed", misses)
	}
	return rounds, nil
}

func (s *PokemonSource) loadOne(ctx context.Context, id int) (*engine.RoundDefinition, error) {
	var (
		poke    pokemon
		species pokemonSpecies
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.client.GetJSON(gctx, fmt.Sprintf("/pokemon/%d", id), &poke) })
	g.Go(func() error { return s.client.GetJSON(gctx, fmt.Sprintf("/pokemon-species/%d", id), &species) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	img := poke.Sprites.Other.OfficialArtwork.FrontDefault
	if img == "" {
		return nil, nil
	}

	var nameFr string
	for _, n := range species.Names {
		if n.Language.Name == "fr" {
			nameFr = n.Name
			break
		}
	}

	hints := []string{"pokémon"}
	for _, t := range poke.Types {
		hints = append(hints, t.Type.Name)
	}

	label := nameFr
	if label == "" {
		label = capitalize(poke.Name)
	}
	return &engine.RoundDefinition{
		ImageSource: img,
		Answers:     uniqueStrings(nameFr, strings.ToLower(nameFr), capitalize(poke.Name), poke.Name),
		Hints:       hints,
		Label:       label,
	}, nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
