package relay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/DoyleJ11/pixeliz-backend/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	p := &Publisher{prefix: prefixOrDefault("")}
	assert.Equal(t, "pixeliz.events.roundEnded", p.Subject(types.EventRoundEnded))

	p = &Publisher{prefix: prefixOrDefault("party.room1")}
	assert.Equal(t, "party.room1.guessAttempt", p.Subject(types.EventGuessAttempt))
}

func TestEncode(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	data, err := encode(types.Event{
		Name:    types.EventHintRevealed,
		Payload: types.HintRevealed{Hint: "oiseau"},
	}, at)
	require.NoError(t, err)

	var got struct {
		Type string          `json:"type"`
		At   time.Time       `json:"at"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, types.EventHintRevealed, got.Type)
	assert.True(t, at.Equal(got.At))
	assert.JSONEq(t, `{"hint":"oiseau"}`, string(got.Data))
}

func TestMirror_SkipsFrames(t *testing.T) {
	// a nil connection would panic if the frame were published
	p := &Publisher{prefix: DefaultSubjectPrefix, now: time.Now}
	assert.NoError(t, p.Mirror(types.Event{Name: types.EventFrame, Binary: []byte{1}}))
}
