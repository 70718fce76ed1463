// Package shuffle implements the commit-reveal deal protocol. Every player
// commits to a hashed secret before any entropy is known; once the reference
// entropy for a hand is published and a secret revealed, the card permutation
// for that seat is fixed and anyone can recompute it.
package shuffle

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"

	"github.com/DecentPokerLabs/DecentPoker/internal/cards"
)

// Secret is a per-hand private value chosen by a player.
type Secret [32]byte

// Commitment is the published hash of a Secret.
type Commitment [32]byte

// Entropy is a reference entropy value, unknown at commitment time.
type Entropy [32]byte

// HoleCards is the number of private cards dealt to each seat.
const HoleCards = 2

// BoardCards is the number of shared community cards.
const BoardCards = 5

// Commit hashes a secret into its public commitment.
func Commit(secret Secret) Commitment {
	return Commitment(sha256.Sum256(secret[:]))
}

// Opens reports whether secret is the preimage of commitment.
func (c Commitment) Opens(secret Secret) bool {
	return Commit(secret) == c
}

// Zero reports whether the commitment is unset.
func (c Commitment) Zero() bool {
	return c == Commitment{}
}

// CombinedSeed derives the shuffle seed for one seat:
// SHA-256(referenceEntropy || secret).
func CombinedSeed(entropy Entropy, secret Secret) [32]byte {
	h := sha256.New()
	h.Write(entropy[:])
	h.Write(secret[:])
	var seed [32]byte
	h.Sum(seed[:0])
	return seed
}

// Permutation deterministically shuffles the 52-card deck for one
// (entropy, secret) pair. For each position i the swap target is
// SHA-256(seed || uint64(i)) taken modulo the deck size, matching the
// published verification procedure. The result is always a permutation of
// the 52 distinct card identifiers, and identical inputs always produce
// identical output.
func Permutation(entropy Entropy, secret Secret) [cards.DeckSize]cards.Card {
	seed := CombinedSeed(entropy, secret)

	var deck [cards.DeckSize]cards.Card
	for i := range deck {
		deck[i] = cards.Card(i + 1)
	}

	var buf [40]byte
	copy(buf[:32], seed[:])
	size := big.NewInt(cards.DeckSize)
	for i := range deck {
		binary.BigEndian.PutUint64(buf[32:], uint64(i))
		sum := sha256.Sum256(buf[:])
		x := new(big.Int).SetBytes(sum[:])
		j := x.Mod(x, size).Int64()
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

// Hole returns the private cards for a seat's permutation: its first two
// positions.
func Hole(perm [cards.DeckSize]cards.Card) [HoleCards]cards.Card {
	return [HoleCards]cards.Card{perm[0], perm[1]}
}

// Board returns the community cards carried by a permutation: the five
// positions following the hole cards.
func Board(perm [cards.DeckSize]cards.Card) [BoardCards]cards.Card {
	var board [BoardCards]cards.Card
	copy(board[:], perm[HoleCards:HoleCards+BoardCards])
	return board
}
