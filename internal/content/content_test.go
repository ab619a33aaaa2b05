package content

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DoyleJ11/pixeliz-backend/internal/engine"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	name   string
	rounds []engine.RoundDefinition
	err    error
	calls  atomic.Int32
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Load(context.Context) ([]engine.RoundDefinition, error) {
	f.calls.Add(1)
	return append([]engine.RoundDefinition(nil), f.rounds...), f.err
}

func round(img string, answers ...string) engine.RoundDefinition {
	return engine.RoundDefinition{ImageSource: img, Answers: answers}
}

func TestMoviesSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		switch r.URL.Path {
		case "/comedy":
			fmt.Fprint(w, `[
				{"title": "Monty Python: Holy Grail", "posterURL": "https://img/holy.jpg"},
				{"title": "Airplane", "posterURL": "https://img/airplane.jpg"},
				{"title": "No Poster", "posterURL": "N/A"},
				{"title": "  ", "posterURL": "https://img/blank.jpg"}
			]`)
		default:
			http.Error(w, "nope", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	src := NewMoviesSource(srv.URL, []string{"comedy", "horror"})
	rounds, err := src.Load(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "horror")
	require.Len(t, rounds, 2)

	assert.Equal(t, "https://img/holy.jpg", rounds[0].ImageSource)
	assert.Equal(t, []string{"Monty Python: Holy Grail", "Monty Python Holy Grail"}, rounds[0].Answers)
	assert.Equal(t, []string{"film", "cinéma", "comedy"}, rounds[0].Hints)
	assert.Equal(t, []string{"Airplane"}, rounds[1].Answers)
}

func TestPokemonSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pokemon/1":
			fmt.Fprint(w, `{"name":"bulbasaur",
				"sprites":{"other":{"official-artwork":{"front_default":"https://img/1.png"}}},
				"types":[{"type":{"name":"grass"}},{"type":{"name":"poison"}}]}`)
		case "/pokemon-species/1":
			fmt.Fprint(w, `{"names":[{"name":"Bulbizarre","language":{"name":"fr"}},{"name":"Bulbasaur","language":{"name":"en"}}]}`)
		case "/pokemon/2":
			fmt.Fprint(w, `{"name":"ivysaur","sprites":{"other":{"official-artwork":{"front_default":""}}},"types":[]}`)
		case "/pokemon-species/2":
			fmt.Fprint(w, `{"names":[]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	rounds, err := NewPokemonSource(srv.URL, 3, nil).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rounds, 1)

	r := rounds[0]
	assert.Equal(t, "https://img/1.png", r.ImageSource)
	assert.Equal(t, []string{"Bulbizarre", "bulbizarre", "Bulbasaur", "bulbasaur"}, r.Answers)
	assert.Equal(t, []string{"pokémon", "grass", "poison"}, r.Hints)
	assert.Equal(t, "Bulbizarre", r.DisplayAnswer())
}

func TestPokemonSource_AllFail(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	rounds, err := NewPokemonSource(srv.URL, 2, nil).Load(context.Background())
	assert.Error(t, err)
	assert.Empty(t, rounds)
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Mew", capitalize("mew"))
	assert.Equal(t, "Évoli", capitalize("évoli"))
	assert.Equal(t, "", capitalize(""))
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rounds.yaml")
	doc := strings.Join([]string{
		"rounds:",
		"  - image: https://img/rook.jpg",
		"    answers: [corbeau, corneille]",
		"    hints: [oiseau]",
		"    label: Corbeau",
		"  - image: ./local/cat.png",
		"    answers: [chat]",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	rounds, err := NewFileSource(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, "https://img/rook.jpg", rounds[0].ImageSource)
	assert.Equal(t, []string{"corbeau", "corneille"}, rounds[0].Answers)
	assert.Equal(t, "Corbeau", rounds[0].Label)
	assert.Equal(t, "./local/cat.png", rounds[1].ImageSource)
}

func TestFileSource_Missing(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "nope.yaml")).Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestImageRounds_SkipsRowsWithoutAnswers(t *testing.T) {
	rounds := imageRounds([]GameImage{
		{URL: "a.png", Answers: []string{"a"}, Hints: []string{"h"}},
		{URL: "b.png"},
	})
	require.Len(t, rounds, 1)
	assert.Equal(t, "a.png", rounds[0].ImageSource)
	assert.Equal(t, []string{"h"}, rounds[0].Hints)
}

func TestIsUndefinedTable(t *testing.T) {
	err := fmt.Errorf("query: %w", &pgconn.PgError{Code: "42P01"})
	assert.True(t, isUndefinedTable(err))
	assert.False(t, isUndefinedTable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUndefinedTable(errors.New("boom")))
}

func TestLoader_UsesFirstTierWithRounds(t *testing.T) {
	db := &fakeSource{name: "db"}
	movies := &fakeSource{name: "movies", rounds: []engine.RoundDefinition{round("m.png", "film")}}
	broken := &fakeSource{name: "pokemon", err: errors.New("down")}
	never := &fakeSource{name: "file", rounds: []engine.RoundDefinition{round("f.png", "x")}}

	l := NewLoader(nil, rand.New(rand.NewPCG(1, 2)), []Source{db}, []Source{movies, broken}, []Source{never})
	rounds, err := l.NextBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, "m.png", rounds[0].ImageSource)
	assert.EqualValues(t, 1, db.calls.Load())
	assert.EqualValues(t, 0, never.calls.Load())
}

func TestLoader_DropsInvalidRounds(t *testing.T) {
	src := &fakeSource{name: "file", rounds: []engine.RoundDefinition{
		round("ok.png", " Chat ", "chat"),
		round("", "no image"),
		round("no-answers.png", "  "),
	}}
	rounds, err := NewLoader(nil, nil, []Source{src}).NextBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, []string{"Chat"}, rounds[0].Answers)
}

func TestLoader_FallsBackToBuiltin(t *testing.T) {
	l := NewLoader(nil, nil,
		[]Source{&fakeSource{name: "db", err: ErrMissingTable}},
		[]Source{&fakeSource{name: "movies"}},
	)
	rounds, err := l.NextBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.FallbackRounds(), rounds)
}

func TestLoader_Shuffles(t *testing.T) {
	var defs []engine.RoundDefinition
	for i := range 20 {
		defs = append(defs, round(fmt.Sprintf("%d.png", i), fmt.Sprintf("a%d", i)))
	}
	src := &fakeSource{name: "file", rounds: defs}
	rounds, err := NewLoader(nil, rand.New(rand.NewPCG(7, 7)), []Source{src}).NextBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, rounds, 20)

	var want, got []string
	for i := range defs {
		want = append(want, defs[i].ImageSource)
		got = append(got, rounds[i].ImageSource)
	}
	assert.NotEqual(t, want, got)
	assert.ElementsMatch(t, want, got)
}

func TestCached_FallsThroughWhenRedisIsDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	inner := &fakeSource{name: "movies", rounds: []engine.RoundDefinition{round("m.png", "film")}}
	c := NewCached(inner, rdb, time.Minute, nil)

	assert.Equal(t, "movies", c.Name())
	rounds, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, rounds, 1)
	assert.EqualValues(t, 1, inner.calls.Load())
}
