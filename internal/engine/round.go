package engine

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidRound = errors.New("invalid round definition")

// RoundDefinition is one image to guess. ImageSource is opaque to the engine
// and never sent to players before the round ends.
type RoundDefinition struct {
	ImageSource string   `json:"imageSource" yaml:"image"`
	Answers     []string `json:"answers" yaml:"answers"`
	Hints       []string `json:"hints" yaml:"hints"`
	Label       string   `json:"label,omitempty" yaml:"label,omitempty"`
}

// DisplayAnswer is what players see once the round is over.
func (r RoundDefinition) DisplayAnswer() string {
	if r.Label != "" {
		return r.Label
	}
	if len(r.Answers) > 0 {
		return r.Answers[0]
	}
	return ""
}

// Validate cleans the definition in place: blank answers and hints are dropped
// and answers that normalize to the same text are collapsed.
func (r *RoundDefinition) Validate() error {
	r.ImageSource = strings.TrimSpace(r.ImageSource)
	if r.ImageSource == "" {
		return fmt.Errorf("%w: empty image source", ErrInvalidRound)
	}

	seen := make(map[string]bool, len(r.Answers))
	answers := make([]string, 0, len(r.Answers))
	for _, a := range r.Answers {
		a = strings.TrimSpace(a)
		key := Normalize(a)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		answers = append(answers, a)
	}
	if len(answers) == 0 {
		return fmt.Errorf("%w: no answers for %s", ErrInvalidRound, r.ImageSource)
	}
	r.Answers = answers

	hints := make([]string, 0, len(r.Hints))
	for _, h := range r.Hints {
		if h = strings.TrimSpace(h); h != "" {
			hints = append(hints, h)
		}
	}
	r.Hints = hints
	r.Label = strings.TrimSpace(r.Label)
	return nil
}

// FallbackRounds are used when every content source comes back empty.
func FallbackRounds() []RoundDefinition {
	return []RoundDefinition{
		{
			ImageSource: "https://i0.wp.com/dawtonasarl.com/wp-content/uploads/2025/03/unnamed.jpg?fit=900,900&ssl=1",
			Answers:     []string{"nutella", "pâte à tartiner", "noisette", "ferrero"},
			Hints:       []string{"à tartiner", "chocolat", "pot"},
		},
		{
			ImageSource: "https://upload.wikimedia.org/wikipedia/commons/b/b5/Rook-Corvus_frugilegus.jpg",
			Answers:     []string{"corbeau", "corbeaux", "rook", "corvus", "freux", "corneille"},
			Hints:       []string{"oiseau", "noir", "passereau"},
		},
	}
}
