package content

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/DoyleJ11/pixeliz-backend/internal/engine"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const DefaultMoviesURL = "https://api.sampleapis.com/movies"

var DefaultMovieCategories = []string{"comedy", "animation", "adventure"}

var titlePunctuation = regexp.MustCompile(`[^a-zA-Z0-9À-ÿ\s]`)

// MoviesSource turns movie posters into rounds, one catalog call per category.
type MoviesSource struct {
	client     *CatalogClient
	categories []string
}

func NewMoviesSource(baseURL string, categories []string) *MoviesSource {
	if baseURL == "" {
		baseURL = DefaultMoviesURL
	}
	if len(categories) == 0 {
		categories = DefaultMovieCategories
	}
	return &MoviesSource{client: NewCatalogClient(baseURL), categories: categories}
}

func (s *MoviesSource) Name() string { return "movies" }

type movie struct {
	Title     string `json:"title"`
	PosterURL string `json:"posterURL"`
}

func (s *MoviesSource) Load(ctx context.Context) ([]engine.RoundDefinition, error) {
	perCategory := make([][]engine.RoundDefinition, len(s.categories))
	errs := make([]error, len(s.categories))

	var g errgroup.Group
	for i, cat := range s.categories {
		g.Go(func() error {
			var movies []movie
			if err := s.client.GetJSON(ctx, "/"+cat, &movies); err != nil {
				errs[i] = fmt.Errorf("category %s: %w", cat, err)
				return nil
			}
			perCategory[i] = movieRounds(cat, movies)
			return nil
		})
	}
	_ = g.Wait()

	var rounds []engine.RoundDefinition
	for _, rs := range perCategory {
		rounds = append(rounds, rs...)
	}
	return rounds, multierr.Combine(errs...)
}

func movieRounds(category string, movies []movie) []engine.RoundDefinition {
	rounds := make([]engine.RoundDefinition, 0, len(movies))
	for _, m := range movies {
		if m.PosterURL == "" || m.PosterURL == "N/A" {
			continue
		}
		title := strings.TrimSpace(m.Title)
		if title == "" {
			continue
		}
		simple := strings.TrimSpace(titlePunctuation.ReplaceAllString(title, ""))
		rounds = append(rounds, engine.RoundDefinition{
			ImageSource: m.PosterURL,
			Answers:     uniqueStrings(title, simple),
			Hints:       []string{"film", "cinéma", category},
			Label:       title,
		})
	}
	return rounds
}
