package content

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/DoyleJ11/pixeliz-backend/internal/engine"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Loader hands the lobby a shuffled batch of rounds. Sources are grouped in
// tiers: every source of a tier loads in parallel, and the next tier is only
// tried when the previous one produced nothing usable.
type Loader struct {
	tiers [][]Source
	log   *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewLoader(log *zap.Logger, rng *rand.Rand, tiers ...[]Source) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Loader{tiers: tiers, log: log.With(zap.String("component", "content")), rng: rng}
}

// NextBatch never fails: when every tier comes back empty the built-in
// rounds are used.
func (l *Loader) NextBatch(ctx context.Context) ([]engine.RoundDefinition, error) {
	for i, tier := range l.tiers {
		rounds, err := loadTier(ctx, tier)
		if err != nil {
			l.log.Warn("some round sources failed", zap.Int("tier", i), zap.Error(err))
		}

		valid := rounds[:0]
		for j := range rounds {
			if verr := rounds[j].Validate(); verr != nil {
				l.log.Debug("round dropped", zap.Error(verr))
				continue
			}
			valid = append(valid, rounds[j])
		}
		if len(valid) == 0 {
			continue
		}

		l.mu.Lock()
		l.rng.Shuffle(len(valid), func(a, b int) { valid[a], valid[b] = valid[b], valid[a] })
		l.mu.Unlock()

		l.log.Info("rounds loaded", zap.Int("tier", i), zap.Int("count", len(valid)))
		return valid, nil
	}

	l.log.Warn("no rounds from any source, using builtin rounds")
	return engine.FallbackRounds(), nil
}

func loadTier(ctx context.Context, tier []Source) ([]engine.RoundDefinition, error) {
	results := make([][]engine.RoundDefinition, len(tier))
	errs := make([]error, len(tier))

	var g errgroup.Group
	for i, src := range tier {
		g.Go(func() error {
			rounds, err := src.Load(ctx)
			results[i] = rounds
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", src.Name(), err)
			}
			return nil
		})
	}
	_ = g.Wait()

	var all []engine.RoundDefinition
	for _, rs := range results {
		all = append(all, rs...)
	}
	return all, multierr.Combine(errs...)
}
