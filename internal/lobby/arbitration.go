package lobby

import (
	"strings"
	"unicode/utf8"

	"github.com/DoyleJ11/pixeliz-backend/internal/engine"
	"github.com/DoyleJ11/pixeliz-backend/pkg/types"
	"go.uber.org/zap"
)

// MaxGuessLength caps a guess in runes; longer ones are dropped.
const MaxGuessLength = 200

func (l *Lobby) handleJoin(msg Join) {
	p, err := l.registry.Add(msg.ClientID, msg.Pseudo)
	if err != nil {
		l.log.Debug("join rejected", zap.String("clientID", msg.ClientID), zap.Error(err))
		return
	}
	l.log.Info("participant joined",
		zap.String("clientID", p.ID),
		zap.String("pseudo", p.Pseudo),
		zap.Int("participants", l.registry.Len()),
	)

	if l.phase == PhaseIdle {
		l.startSession()
	}

	l.out.SendTo(p.ID, types.Event{Name: types.EventSnapshot, Payload: l.snapshot()})
	if l.grid != nil {
		l.out.SendTo(p.ID, l.frameEvent())
	}
	l.broadcastParticipants()
}

func (l *Lobby) handleLeave(msg Leave) {
	hadVoted, ok := l.registry.Remove(msg.ClientID)
	if !ok {
		return
	}
	l.log.Info("participant left",
		zap.String("clientID", msg.ClientID),
		zap.Int("participants", l.registry.Len()),
	)
	l.broadcastParticipants()

	if l.registry.Len() == 0 {
		l.log.Info("no participants left, lobby will pause after this round")
		return
	}

	if l.phase != PhaseActive || l.solved {
		return
	}
	// The quorum shrinks with the lobby, so a departure can finish a vote.
	if l.registry.QuorumMet() {
		l.resolve(ReasonSkip, "")
		return
	}
	if hadVoted || l.registry.VoteCount() > 0 {
		l.broadcastSkipVotes()
	}
}

func (l *Lobby) handleGuess(msg Guess) {
	if l.phase != PhaseActive || l.solved {
		return
	}
	p, ok := l.registry.Get(msg.ClientID)
	if !ok {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" || utf8.RuneCountInString(text) > MaxGuessLength {
		return
	}

	matched := l.isCorrect(text)
	l.out.Broadcast(types.Event{
		Name: types.EventGuessAttempt,
		Payload: types.GuessAttempt{
			Pseudo:        p.Pseudo,
			Text:          text,
			Matched:       matched,
			ParticipantID: p.ID,
		},
	})
	if matched {
		l.resolve(ReasonGuess, p.ID)
	}
}

func (l *Lobby) handleSkip(msg Skip) {
	if l.phase != PhaseActive || l.solved {
		return
	}
	added, err := l.registry.Vote(msg.ClientID)
	if err != nil || !added {
		return
	}
	l.broadcastSkipVotes()
	if l.registry.QuorumMet() {
		l.resolve(ReasonSkip, "")
	}
}

func (l *Lobby) isCorrect(text string) bool {
	return engine.IsCorrect(text, l.current().Answers)
}

func (l *Lobby) broadcastParticipants() {
	l.out.Broadcast(types.Event{
		Name:    types.EventParticipantsUpdated,
		Payload: types.ParticipantsUpdated{Participants: l.registry.List()},
	})
}

func (l *Lobby) broadcastSkipVotes() {
	l.out.Broadcast(types.Event{
		Name: types.EventSkipVoteUpdated,
		Payload: types.SkipVoteUpdated{
			VoterIDs:         l.registry.Voters(),
			Quorum:           l.registry.Quorum(),
			ParticipantCount: l.registry.Len(),
		},
	})
}
