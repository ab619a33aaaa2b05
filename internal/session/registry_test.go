package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPseudo(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "trimmed", in: "  alice  ", want: "alice"},
		{name: "empty", in: "", wantErr: true},
		{name: "blank", in: "   ", wantErr: true},
		{name: "cut to 20 runes", in: strings.Repeat("é", 25), want: strings.Repeat("é", 20)},
		{name: "cut then trimmed", in: strings.Repeat("a", 19) + "   bob", want: strings.Repeat("a", 19)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CleanPseudo(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidPseudo)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRegistry_AddRemoveOrder(t *testing.T) {
	r := NewRegistry()
	_, err := r.Add("a", "Alice")
	require.NoError(t, err)
	_, err = r.Add("b", "Bob")
	require.NoError(t, err)
	_, err = r.Add("c", "Carol")
	require.NoError(t, err)

	_, err = r.Add("a", "Again")
	require.ErrorIs(t, err, ErrDuplicateParticipant)

	_, err = r.Add("d", "  ")
	require.ErrorIs(t, err, ErrInvalidPseudo)

	_, ok := r.Remove("b")
	require.True(t, ok)
	_, ok = r.Remove("b")
	require.False(t, ok)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "c", list[1].ID)
}

func TestRegistry_AwardIsMonotonic(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Add("a", "Alice")

	score, err := r.Award("a", 40)
	require.NoError(t, err)
	assert.Equal(t, 40, score)

	score, err = r.Award("a", -100)
	require.NoError(t, err)
	assert.Equal(t, 40, score)

	_, err = r.Award("zzz", 10)
	require.ErrorIs(t, err, ErrUnknownParticipant)
}

func TestRegistry_SkipQuorum(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Add("A", "A")
	_, _ = r.Add("B", "B")

	added, err := r.Vote("A")
	require.NoError(t, err)
	require.True(t, added)
	assert.Equal(t, 2, r.Quorum())
	assert.False(t, r.QuorumMet())

	added, err = r.Vote("A")
	require.NoError(t, err)
	assert.False(t, added, "second vote from the same participant is ignored")

	_, err = r.Vote("ghost")
	require.ErrorIs(t, err, ErrUnknownParticipant)

	_, _ = r.Vote("B")
	assert.True(t, r.QuorumMet())
	assert.Equal(t, []string{"A", "B"}, r.Voters())

	r.ClearVotes()
	assert.Equal(t, 0, r.VoteCount())
	assert.False(t, r.QuorumMet())
}

func TestRegistry_RemovingVoterNeverRaisesQuorum(t *testing.T) {
	for n := 1; n <= 9; n++ {
		r := NewRegistry()
		ids := make([]string, n)
		for i := range n {
			ids[i] = string(rune('a' + i))
			_, _ = r.Add(ids[i], ids[i])
		}
		_, _ = r.Vote(ids[0])

		before := r.Quorum()
		hadVoted, ok := r.Remove(ids[0])
		require.True(t, ok)
		require.True(t, hadVoted)
		assert.LessOrEqual(t, r.Quorum(), before, "n=%d", n)
	}
}

func TestRegistry_DepartureCanMeetQuorum(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"a", "b", "c", "d"} {
		_, _ = r.Add(id, id)
	}
	_, _ = r.Vote("a")
	_, _ = r.Vote("b")
	require.False(t, r.QuorumMet(), "2 of 4 is not a strict majority")

	hadVoted, _ := r.Remove("d")
	assert.False(t, hadVoted)
	assert.True(t, r.QuorumMet(), "2 of 3 is")
}
