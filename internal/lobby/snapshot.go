package lobby

import "github.com/DoyleJ11/pixeliz-backend/pkg/types"

// snapshot is what a late joiner needs to catch up with the round.
func (l *Lobby) snapshot() types.Snapshot {
	snap := types.Snapshot{
		Phase:                     string(l.phase),
		RoundNumber:               l.roundNumber,
		StepIndex:                 l.stepIndex,
		Solved:                    l.solved,
		TotalRemainingAtStepStart: l.totalRemaining,
		SkipVoterIDs:              l.registry.Voters(),
		Quorum:                    l.registry.Quorum(),
		HintsRevealed:             append([]string{}, l.hintsRevealed...),
		Participants:              l.registry.List(),
		Schedule:                  l.schedule.Clone(),
		Started:                   l.phase != PhaseIdle,
	}
	if !l.stepStartedAt.IsZero() {
		snap.StepStartedAt = l.stepStartedAt.UnixMilli()
	}
	return snap
}
