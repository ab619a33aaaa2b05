package lobby

import (
	"context"
	"errors"
	"time"

	"github.com/DoyleJ11/pixeliz-backend/internal/engine"
	"github.com/DoyleJ11/pixeliz-backend/pkg/types"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

var errNoDecoder = errors.New("no image decoder configured")

const (
	ReasonGuess   = "guess"
	ReasonTimeout = "timeout"
	ReasonSkip    = "skip"
)

// Internal messages. Every one carries the round generation it was armed
// for; handlers drop anything from an older round.
type roundsLoaded struct {
	gen    uint64
	rounds []engine.RoundDefinition
	err    error
}

func (roundsLoaded) isLobbyMsg() {}

type imageLoaded struct {
	gen uint64
	img *engine.NativeImage
	err error
}

func (imageLoaded) isLobbyMsg() {}

type stepElapsed struct {
	gen  uint64
	step int
}

func (stepElapsed) isLobbyMsg() {}

type shimmerDue struct {
	gen  uint64
	step int
}

func (shimmerDue) isLobbyMsg() {}

type hintDue struct{ gen uint64 }

func (hintDue) isLobbyMsg() {}

type cooldownElapsed struct{ gen uint64 }

func (cooldownElapsed) isLobbyMsg() {}

// startSession loads a fresh batch of rounds when the first participant
// arrives in an idle lobby.
func (l *Lobby) startSession() {
	l.gen++
	gen := l.gen
	l.phase = PhaseLoading
	l.roundNumber = 1
	l.roundIndex = 0

	l.log.Info("session starting")

	if l.provider == nil {
		l.post0(roundsLoaded{gen: gen})
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(l.ctx, l.timing.LoadTimeout)
		defer cancel()
		rounds, err := l.provider.NextBatch(ctx)
		l.post(roundsLoaded{gen: gen, rounds: rounds, err: err})
	}()
}

// post0 queues a message from inside the loop without blocking it.
func (l *Lobby) post0(m Msg) {
	go l.post(m)
}

func (l *Lobby) handleRoundsLoaded(msg roundsLoaded) {
	if msg.gen != l.gen || l.phase != PhaseLoading {
		return
	}
	rounds := msg.rounds
	if msg.err != nil {
		l.log.Warn("round batch failed, using builtin rounds", zap.Error(msg.err))
		rounds = nil
	}
	if len(rounds) == 0 {
		rounds = engine.FallbackRounds()
	}
	l.rounds = rounds
	l.log.Info("rounds loaded", zap.Int("count", len(rounds)))
	l.beginRound()
}

func (l *Lobby) current() engine.RoundDefinition {
	return l.rounds[l.roundIndex]
}

func (l *Lobby) beginRound() {
	l.stopTimers()
	l.gen++
	gen := l.gen

	l.phase = PhaseLoading
	l.solved = false
	l.winnerID = ""
	l.stepIndex = 0
	l.stepStartedAt = time.Time{}
	l.totalRemaining = l.schedule.Total()
	l.hintsRevealed = nil
	l.img = nil
	l.grid = nil
	l.registry.ClearVotes()

	def := l.current()
	l.log.Info("round loading",
		zap.Int("round", l.roundNumber),
		zap.String("image", def.ImageSource),
	)

	if l.decoder == nil {
		l.post0(imageLoaded{gen: gen, err: errNoDecoder})
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(l.ctx, l.timing.LoadTimeout)
		defer cancel()
		img, err := l.decoder.Decode(ctx, def.ImageSource)
		l.post(imageLoaded{gen: gen, img: img, err: err})
	}()
}

func (l *Lobby) handleImageLoaded(msg imageLoaded) {
	if msg.gen != l.gen || l.phase != PhaseLoading {
		return
	}
	img := msg.img
	err := msg.err
	if err == nil {
		err = img.Validate()
	}
	if err != nil {
		l.log.Warn("image decode failed, using fallback",
			zap.Int("round", l.roundNumber),
			zap.String("image", l.current().ImageSource),
			zap.Error(err),
		)
		img = engine.FallbackImage()
	}
	l.img = img

	l.out.Broadcast(types.Event{
		Name:    types.EventRoundStarted,
		Payload: types.RoundStarted{RoundNumber: l.roundNumber, Schedule: l.schedule.Clone()},
	})
	l.enterStep(0)

	if len(l.current().Hints) > 0 {
		l.hintTimer = l.after(l.timing.HintDelay, hintDue{gen: l.gen})
	}
}

// enterStep moves the round to step i: new grid, its frame, then the clocks.
func (l *Lobby) enterStep(i int) {
	step := l.schedule[i]
	l.stepIndex = i
	if i == 0 || l.grid == nil {
		l.grid = engine.Sample(l.img, step.Resolution, l.rng)
	} else {
		l.grid = l.grid.Inherit(step.Resolution)
	}
	l.phase = PhaseActive
	l.broadcastFrame()

	l.stepStartedAt = l.clock.Now()
	l.totalRemaining = l.schedule.RemainingFrom(i)
	l.out.Broadcast(types.Event{
		Name: types.EventStepStarted,
		Payload: types.StepStarted{
			StepIndex:             i,
			DurationSeconds:       step.DurationSeconds,
			TotalRemainingSeconds: l.totalRemaining,
		},
	})

	stop(&l.shimmerTimer)
	stop(&l.stepTimer)
	l.shimmerTimer = l.after(l.timing.Shimmer, shimmerDue{gen: l.gen, step: i})
	l.stepTimer = l.after(step.Duration(), stepElapsed{gen: l.gen, step: i})
}

func (l *Lobby) live(gen uint64, step int) bool {
	return gen == l.gen && step == l.stepIndex && l.phase == PhaseActive && !l.solved
}

func (l *Lobby) handleShimmer(msg shimmerDue) {
	if !l.live(msg.gen, msg.step) {
		return
	}
	if l.grid.Shimmer(l.img, l.stepIndex, l.rng) > 0 {
		l.broadcastFrame()
	}
	l.shimmerTimer = l.after(l.timing.Shimmer, shimmerDue{gen: l.gen, step: l.stepIndex})
}

func (l *Lobby) handleStepElapsed(msg stepElapsed) {
	if !l.live(msg.gen, msg.step) {
		return
	}
	stop(&l.shimmerTimer)
	if l.schedule.IsLast(msg.step) {
		l.resolve(ReasonTimeout, "")
		return
	}
	l.enterStep(msg.step + 1)
}

func (l *Lobby) handleHint(msg hintDue) {
	if msg.gen != l.gen || l.phase != PhaseActive || l.solved {
		return
	}
	hints := l.current().Hints
	if len(l.hintsRevealed) >= len(hints) {
		return
	}
	hint := hints[len(l.hintsRevealed)]
	l.hintsRevealed = append(l.hintsRevealed, hint)
	l.out.Broadcast(types.Event{
		Name:    types.EventHintRevealed,
		Payload: types.HintRevealed{Hint: hint},
	})
}

// resolve ends the current round exactly once.
func (l *Lobby) resolve(reason, winnerID string) {
	if l.solved || l.phase != PhaseActive {
		return
	}
	l.solved = true
	l.phase = PhaseSolved
	l.stopTimers()

	def := l.current()
	ended := types.RoundEnded{
		RoundNumber:  l.roundNumber,
		Reason:       reason,
		AnswerLabel:  def.DisplayAnswer(),
		ImageLocator: def.ImageSource,
	}

	won := false
	if p, ok := l.registry.Get(winnerID); ok && reason == ReasonGuess {
		won = true
		points := engine.Points(l.stepIndex, len(l.schedule))
		if _, err := l.registry.Award(p.ID, points); err != nil {
			l.log.Warn("award failed", zap.String("clientID", p.ID), zap.Error(err))
		}
		l.winnerID = p.ID
		ended.Won = true
		ended.WinnerID = p.ID
		ended.WinnerPseudo = p.Pseudo
		ended.Points = points
	}

	l.log.Info("round ended",
		zap.Int("round", l.roundNumber),
		zap.String("reason", reason),
		zap.Bool("won", won),
		zap.String("winner", l.winnerID),
		zap.Int("step", l.stepIndex),
	)

	l.out.Broadcast(types.Event{Name: types.EventRoundEnded, Payload: ended})
	if won {
		l.broadcastParticipants()
	}

	cooldown := l.timing.CooldownLost
	if won {
		cooldown = l.timing.CooldownWon
	}
	l.phase = PhaseCooldown
	l.cooldownTimer = l.after(cooldown, cooldownElapsed{gen: l.gen})
}

func (l *Lobby) handleCooldown(msg cooldownElapsed) {
	if msg.gen != l.gen || l.phase != PhaseCooldown {
		return
	}
	if l.registry.Len() == 0 {
		l.pause()
		return
	}
	l.roundIndex = (l.roundIndex + 1) % len(l.rounds)
	l.roundNumber++
	l.beginRound()
}

// pause returns to idle so the next join starts a fresh session.
func (l *Lobby) pause() {
	l.stopTimers()
	l.gen++
	l.phase = PhaseIdle
	l.rounds = nil
	l.roundIndex = 0
	l.roundNumber = 1
	l.stepIndex = 0
	l.solved = false
	l.winnerID = ""
	l.stepStartedAt = time.Time{}
	l.totalRemaining = 0
	l.hintsRevealed = nil
	l.img = nil
	l.grid = nil
	l.registry.ClearVotes()
	l.log.Info("lobby empty, paused")
}

func (l *Lobby) broadcastFrame() {
	l.out.Broadcast(l.frameEvent())
}

func (l *Lobby) frameEvent() types.Event {
	return types.Event{
		Name: types.EventFrame,
		Payload: types.Frame{
			BlocksX:   l.grid.Res,
			BlocksY:   l.grid.Res,
			StepIndex: l.stepIndex,
		},
		Binary: l.grid.Bytes(),
	}
}

func (l *Lobby) after(d time.Duration, m Msg) clockwork.Timer {
	return l.clock.AfterFunc(d, func() { l.post(m) })
}

func (l *Lobby) stopTimers() {
	stop(&l.stepTimer)
	stop(&l.shimmerTimer)
	stop(&l.hintTimer)
	stop(&l.cooldownTimer)
}

func stop(t *clockwork.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
