package lobby

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/DoyleJ11/pixeliz-backend/internal/engine"
	"github.com/DoyleJ11/pixeliz-backend/internal/session"
	"github.com/DoyleJ11/pixeliz-backend/pkg/types"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type Msg interface{ isLobbyMsg() }

// Join adds a participant. Invalid pseudos are dropped without a reply.
type Join struct {
	ClientID string
	Pseudo   string
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Guess struct {
	ClientID string
	Text     string
}

func (Guess) isLobbyMsg() {}

type Skip struct{ ClientID string }

func (Skip) isLobbyMsg() {}

type GetSnapshot struct {
	Reply chan types.Snapshot
}

func (GetSnapshot) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// View is a read-only copy of the lobby internals, mostly for tests.
type View struct {
	Phase         Phase
	Gen           uint64
	RoundNumber   int
	RoundIndex    int
	Rounds        int
	StepIndex     int
	Solved        bool
	WinnerID      string
	GridRes       int
	Participants  []session.Participant
	Voters        []string
	HintsRevealed []string
}

type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseLoading  Phase = "loading"
	PhaseActive   Phase = "active"
	PhaseSolved   Phase = "solved"
	PhaseCooldown Phase = "cooldown"
)

// Provider supplies the rounds for a session.
type Provider interface {
	NextBatch(ctx context.Context) ([]engine.RoundDefinition, error)
}

// Decoder turns an image locator into pixels.
type Decoder interface {
	Decode(ctx context.Context, locator string) (*engine.NativeImage, error)
}

// Broadcaster delivers events to connected clients in the order given.
type Broadcaster interface {
	Broadcast(ev types.Event)
	SendTo(clientID string, ev types.Event)
}

type Timing struct {
	Shimmer      time.Duration
	HintDelay    time.Duration
	CooldownWon  time.Duration
	CooldownLost time.Duration
	LoadTimeout  time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		Shimmer:      150 * time.Millisecond,
		HintDelay:    10 * time.Second,
		CooldownWon:  3 * time.Second,
		CooldownLost: 4 * time.Second,
		LoadTimeout:  30 * time.Second,
	}
}

func (t Timing) withDefaults() Timing {
	d := DefaultTiming()
	if t.Shimmer <= 0 {
		t.Shimmer = d.Shimmer
	}
	if t.HintDelay <= 0 {
		t.HintDelay = d.HintDelay
	}
	if t.CooldownWon <= 0 {
		t.CooldownWon = d.CooldownWon
	}
	if t.CooldownLost <= 0 {
		t.CooldownLost = d.CooldownLost
	}
	if t.LoadTimeout <= 0 {
		t.LoadTimeout = d.LoadTimeout
	}
	return t
}

type Config struct {
	Schedule    engine.Schedule
	Timing      Timing
	Provider    Provider
	Decoder     Decoder
	Broadcaster Broadcaster
	Clock       clockwork.Clock
	Logger      *zap.Logger
	Rand        *rand.Rand
}

type Lobby struct {
	inbox chan Msg
	ctx   context.Context

	cancel context.CancelFunc

	schedule engine.Schedule
	timing   Timing
	provider Provider
	decoder  Decoder
	out      Broadcaster
	clock    clockwork.Clock
	log      *zap.Logger
	rng      *rand.Rand

	registry *session.Registry

	phase       Phase
	gen         uint64
	rounds      []engine.RoundDefinition
	roundIndex  int
	roundNumber int

	stepIndex      int
	solved         bool
	winnerID       string
	stepStartedAt  time.Time
	totalRemaining int
	hintsRevealed  []string

	img  *engine.NativeImage
	grid *engine.Grid

	stepTimer     clockwork.Timer
	shimmerTimer  clockwork.Timer
	hintTimer     clockwork.Timer
	cooldownTimer clockwork.Timer
}

func NewLobby(parent context.Context, cfg Config) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	cfg.Timing = cfg.Timing.withDefaults()
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if err := cfg.Schedule.Validate(); err != nil {
		if cfg.Schedule != nil {
			cfg.Logger.Warn("schedule rejected, using default", zap.Error(err))
		}
		cfg.Schedule = engine.DefaultSchedule
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	l := &Lobby{
		inbox:       make(chan Msg, 64), // Small buffer
		ctx:         ctx,
		cancel:      cancel,
		schedule:    cfg.Schedule.Clone(),
		timing:      cfg.Timing,
		provider:    cfg.Provider,
		decoder:     cfg.Decoder,
		out:         cfg.Broadcaster,
		clock:       cfg.Clock,
		log:         cfg.Logger.With(zap.String("component", "lobby")),
		rng:         cfg.Rand,
		registry:    session.NewRegistry(),
		phase:       PhaseIdle,
		roundNumber: 1,
	}

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.handleJoin(msg)
			case Leave:
				l.handleLeave(msg)
			case Guess:
				l.handleGuess(msg)
			case Skip:
				l.handleSkip(msg)

			case roundsLoaded:
				l.handleRoundsLoaded(msg)
			case imageLoaded:
				l.handleImageLoaded(msg)
			case stepElapsed:
				l.handleStepElapsed(msg)
			case shimmerDue:
				l.handleShimmer(msg)
			case hintDue:
				l.handleHint(msg)
			case cooldownElapsed:
				l.handleCooldown(msg)

			case GetSnapshot:
				msg.Reply <- l.snapshot()

			case GetState:
				// test-only: reflect internal state without data races
				msg.Reply <- l.view()

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) shutdown() {
	l.stopTimers()
	l.cancel()
}

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Send delivers m unless ctx or the lobby itself is done first.
func (l *Lobby) Send(ctx context.Context, m Msg) bool {
	select {
	case l.inbox <- m:
		return true
	case <-ctx.Done():
		return false
	case <-l.ctx.Done():
		return false
	}
}

// Snapshot asks the lobby goroutine for the current late-join snapshot.
func (l *Lobby) Snapshot(ctx context.Context) (types.Snapshot, error) {
	reply := make(chan types.Snapshot, 1)
	if !l.Send(ctx, GetSnapshot{Reply: reply}) {
		if err := ctx.Err(); err != nil {
			return types.Snapshot{}, err
		}
		return types.Snapshot{}, context.Canceled
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return types.Snapshot{}, ctx.Err()
	case <-l.ctx.Done():
		return types.Snapshot{}, context.Canceled
	}
}

// post is used by timers and loader goroutines to feed results back in.
func (l *Lobby) post(m Msg) {
	select {
	case l.inbox <- m:
	case <-l.ctx.Done():
	}
}

func (l *Lobby) view() View {
	v := View{
		Phase:         l.phase,
		Gen:           l.gen,
		RoundNumber:   l.roundNumber,
		RoundIndex:    l.roundIndex,
		Rounds:        len(l.rounds),
		StepIndex:     l.stepIndex,
		Solved:        l.solved,
		WinnerID:      l.winnerID,
		Participants:  l.registry.List(),
		Voters:        l.registry.Voters(),
		HintsRevealed: append([]string(nil), l.hintsRevealed...),
	}
	if l.grid != nil {
		v.GridRes = l.grid.Res
	}
	return v
}
