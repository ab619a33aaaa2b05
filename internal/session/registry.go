package session

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const MaxPseudoLength = 20

var ErrInvalidPseudo = errors.New("invalid pseudo")
var ErrUnknownParticipant = errors.New("unknown participant")
var ErrDuplicateParticipant = errors.New("participant already joined")

type Participant struct {
	ID     string `json:"id"`
	Pseudo string `json:"pseudo"`
	Score  int    `json:"score"`
}

// Registry tracks who is connected, their scores and the current round's
// skip votes. It is owned by a single goroutine and does no locking.
type Registry struct {
	participants map[string]*Participant
	order        []string
	votes        map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{
		participants: make(map[string]*Participant),
		votes:        make(map[string]bool),
	}
}

// CleanPseudo trims raw and cuts it to MaxPseudoLength runes.
func CleanPseudo(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	if utf8.RuneCountInString(clean) > MaxPseudoLength {
		clean = strings.TrimSpace(string([]rune(clean)[:MaxPseudoLength]))
	}
	if clean == "" {
		return "", ErrInvalidPseudo
	}
	return clean, nil
}

func (r *Registry) Add(id, pseudo string) (Participant, error) {
	if _, ok := r.participants[id]; ok {
		return Participant{}, ErrDuplicateParticipant
	}
	clean, err := CleanPseudo(pseudo)
	if err != nil {
		return Participant{}, err
	}
	p := &Participant{ID: id, Pseudo: clean}
	r.participants[id] = p
	r.order = append(r.order, id)
	return *p, nil
}

// Remove drops the participant and any vote they cast.
func (r *Registry) Remove(id string) (hadVoted bool, ok bool) {
	if _, ok = r.participants[id]; !ok {
		return false, false
	}
	delete(r.participants, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	hadVoted = r.votes[id]
	delete(r.votes, id)
	return hadVoted, true
}

func (r *Registry) Get(id string) (Participant, bool) {
	p, ok := r.participants[id]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

func (r *Registry) Len() int { return len(r.participants) }

// List returns participants in join order.
func (r *Registry) List() []Participant {
	out := make([]Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.participants[id])
	}
	return out
}

// Award adds points to a participant's score and returns the new total.
func (r *Registry) Award(id string, points int) (int, error) {
	p, ok := r.participants[id]
	if !ok {
		return 0, ErrUnknownParticipant
	}
	if points > 0 {
		p.Score += points
	}
	return p.Score, nil
}

// Vote records a skip vote. Voting twice is a no-op.
func (r *Registry) Vote(id string) (added bool, err error) {
	if _, ok := r.participants[id]; !ok {
		return false, ErrUnknownParticipant
	}
	if r.votes[id] {
		return false, nil
	}
	r.votes[id] = true
	return true, nil
}

func (r *Registry) ClearVotes() {
	clear(r.votes)
}

func (r *Registry) VoteCount() int { return len(r.votes) }

// Voters returns voter ids in join order.
func (r *Registry) Voters() []string {
	out := make([]string, 0, len(r.votes))
	for _, id := range r.order {
		if r.votes[id] {
			out = append(out, id)
		}
	}
	return out
}

// Quorum is a strict majority of the participants connected right now.
func (r *Registry) Quorum() int {
	return len(r.participants)/2 + 1
}

func (r *Registry) QuorumMet() bool {
	return len(r.votes) > 0 && len(r.votes) >= r.Quorum()
}
