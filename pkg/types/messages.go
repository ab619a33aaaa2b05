package types

import (
	"github.com/DoyleJ11/pixeliz-backend/internal/engine"
	"github.com/DoyleJ11/pixeliz-backend/internal/session"
)

// Server -> Client event names. Every event except EventFrame travels as a
// JSON text message: {"type": <name>, "data": <payload>}.
const (
	EventRoundStarted        = "roundStarted"
	EventFrame               = "frame"
	EventStepStarted         = "stepStarted"
	EventHintRevealed        = "hintRevealed"
	EventGuessAttempt        = "guessAttempt"
	EventRoundEnded          = "roundEnded"
	EventParticipantsUpdated = "participantsUpdated"
	EventSkipVoteUpdated     = "skipVoteUpdated"
	EventSnapshot            = "snapshot"
)

// Event is one outbound message. Binary is only set for frames.
type Event struct {
	Name    string
	Payload any
	Binary  []byte
}

type RoundStarted struct {
	RoundNumber int             `json:"roundNumber"`
	Schedule    engine.Schedule `json:"schedule"`
}

type Frame struct {
	BlocksX   int `json:"blocksX"`
	BlocksY   int `json:"blocksY"`
	StepIndex int `json:"stepIndex"`
}

type StepStarted struct {
	StepIndex             int `json:"stepIndex"`
	DurationSeconds       int `json:"durationSeconds"`
	TotalRemainingSeconds int `json:"totalRemainingSeconds"`
}

type HintRevealed struct {
	Hint string `json:"hint"`
}

type GuessAttempt struct {
	Pseudo        string `json:"pseudo"`
	Text          string `json:"text"`
	Matched       bool   `json:"matched"`
	ParticipantID string `json:"participantId"`
}

type RoundEnded struct {
	RoundNumber  int    `json:"roundNumber"`
	Won          bool   `json:"won"`
	Reason       string `json:"reason"` // "guess" | "timeout" | "skip"
	AnswerLabel  string `json:"answerLabel"`
	WinnerPseudo string `json:"winnerPseudo,omitempty"`
	WinnerID     string `json:"winnerId,omitempty"`
	Points       int    `json:"points,omitempty"`
	ImageLocator string `json:"imageLocator"`
}

type ParticipantsUpdated struct {
	Participants []session.Participant `json:"participants"`
}

type SkipVoteUpdated struct {
	VoterIDs         []string `json:"voterIds"`
	Quorum           int      `json:"quorum"`
	ParticipantCount int      `json:"participantCount"`
}
