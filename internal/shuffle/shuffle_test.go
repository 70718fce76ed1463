package shuffle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DecentPokerLabs/DecentPoker/internal/cards"
)

func secret(b byte) Secret {
	var s Secret
	s[0] = b
	return s
}

func entropy(b byte) Entropy {
	var e Entropy
	e[0] = b
	return e
}

func TestCommitOpens(t *testing.T) {
	s := secret(7)
	c := Commit(s)

	assert.False(t, c.Zero())
	assert.True(t, c.Opens(s))
	assert.False(t, c.Opens(secret(8)))
	assert.True(t, Commitment{}.Zero())
}

func TestPermutationDeterministic(t *testing.T) {
	a := Permutation(entropy(1), secret(2))
	b := Permutation(entropy(1), secret(2))
	assert.Equal(t, a, b)
}

func TestPermutationCoversDeck(t *testing.T) {
	perm := Permutation(entropy(3), secret(4))

	seen := make(map[cards.Card]bool, cards.DeckSize)
	for _, c := range perm {
		require.True(t, c.Valid(), "card %d out of range", c)
		require.False(t, seen[c], "card %s dealt twice", c)
		seen[c] = true
	}
	assert.Len(t, seen, cards.DeckSize)
}

func TestPermutationVariesWithInputs(t *testing.T) {
	base := Permutation(entropy(1), secret(1))

	assert.NotEqual(t, base, Permutation(entropy(1), secret(2)),
		"different secrets must reshuffle")
	assert.NotEqual(t, base, Permutation(entropy(2), secret(1)),
		"different entropy must reshuffle")
}

func TestHoleAndBoard(t *testing.T) {
	perm := Permutation(entropy(9), secret(9))

	hole := Hole(perm)
	board := Board(perm)

	assert.Equal(t, [HoleCards]cards.Card{perm[0], perm[1]}, hole)
	for i := 0; i < BoardCards; i++ {
		assert.Equal(t, perm[HoleCards+i], board[i])
	}
}
