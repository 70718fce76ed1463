package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DecentPokerLabs/DecentPoker/internal/cards"
)

func hand(t *testing.T, ss ...string) [HandSize]cards.Card {
	t.Helper()
	require.Len(t, ss, HandSize)
	var h [HandSize]cards.Card
	for i, s := range ss {
		c, err := cards.Parse(s)
		require.NoError(t, err)
		h[i] = c
	}
	return h
}

func TestCompareCategories(t *testing.T) {
	t.Parallel()

	e := NewEvaluator()

	royal := hand(t, "As", "Ks", "Qs", "Js", "Ts", "2h", "3d")
	quads := hand(t, "Ah", "Ad", "Ac", "As", "2s", "7h", "9d")
	boat := hand(t, "Kh", "Kd", "Kc", "2s", "2h", "7c", "9d")
	pair := hand(t, "2s", "2h", "5d", "9c", "Jh", "Ks", "7d")
	high := hand(t, "2s", "4h", "6d", "9c", "Jh", "Ks", "Ad")

	tests := []struct {
		name   string
		a, b   [HandSize]cards.Card
		winner int
	}{
		{"royal beats quads", royal, quads, First},
		{"quads beat full house", quads, boat, First},
		{"full house beats pair", boat, pair, First},
		{"pair beats high card", pair, high, First},
		{"order reversed", high, royal, Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Compare(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.winner, got)
		})
	}
}

func TestCompareIdenticalHandsTie(t *testing.T) {
	t.Parallel()

	e := NewEvaluator()
	h := hand(t, "As", "Kd", "Qc", "Jh", "9s", "5d", "2c")
	got, err := e.Compare(h, h)
	require.NoError(t, err)
	assert.Equal(t, Tie, got)
}

func TestKickerDecides(t *testing.T) {
	t.Parallel()

	e := NewEvaluator()
	// Both hold a pair of aces; the second hand carries a king kicker
	// against a queen.
	a := hand(t, "As", "Ah", "Qs", "9d", "7c", "4h", "2s")
	b := hand(t, "Ad", "Ac", "Ks", "9h", "7d", "4c", "2h")
	got, err := e.Compare(a, b)
	require.NoError(t, err)
	assert.Equal(t, Second, got)
}

func TestRankRejectsInvalidCard(t *testing.T) {
	t.Parallel()

	e := NewEvaluator()
	var h [HandSize]cards.Card // zero cards are invalid
	_, err := e.Rank(h)
	assert.Error(t, err)
}

func TestRankIsPure(t *testing.T) {
	t.Parallel()

	e := NewEvaluator()
	h := hand(t, "As", "Kd", "Qc", "Jh", "9s", "5d", "2c")
	r1, err := e.Rank(h)
	require.NoError(t, err)
	r2, err := e.Rank(h)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
