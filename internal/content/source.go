// Package content supplies the rounds a session plays through: remote
// catalogs, the game_images table, or a YAML file, with a built-in fallback.
package content

import (
	"context"

	"github.com/DoyleJ11/pixeliz-backend/internal/engine"
)

// Source loads candidate rounds. A source may return partial results along
// with an error describing what it could not load.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]engine.RoundDefinition, error)
}

func uniqueStrings(in ...string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
