package types

import (
	"github.com/DoyleJ11/pixeliz-backend/internal/engine"
	"github.com/DoyleJ11/pixeliz-backend/internal/session"
)

// Snapshot lets a late joiner rebuild the round clock locally:
// remaining = TotalRemainingAtStepStart - (now - StepStartedAt).
type Snapshot struct {
	Phase                     string                `json:"phase"`
	RoundNumber               int                   `json:"roundNumber"`
	StepIndex                 int                   `json:"stepIndex"`
	Solved                    bool                  `json:"solved"`
	StepStartedAt             int64                 `json:"stepStartedAt"` // unix ms, 0 before the first step
	TotalRemainingAtStepStart int                   `json:"totalRemainingAtStepStart"`
	SkipVoterIDs              []string              `json:"skipVoterIds"`
	Quorum                    int                   `json:"quorum"`
	HintsRevealed             []string              `json:"hintsRevealed"`
	Participants              []session.Participant `json:"participants"`
	Schedule                  engine.Schedule       `json:"schedule"`
	Started                   bool                  `json:"started"`
}
