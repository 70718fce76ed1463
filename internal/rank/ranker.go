// Package rank is the hand-ranking boundary of the engine. The game code
// never inspects card combinations itself; it hands seven cards to a Ranker
// and acts on the comparison result.
package rank

import (
	"fmt"

	"github.com/chehsunliu/poker"

	"github.com/DecentPokerLabs/DecentPoker/internal/cards"
)

// HandSize is the number of cards a seat is ranked on: two hole cards plus
// the five-card board.
const HandSize = 7

// Comparison result values. They mirror the evaluator contract the engine
// was built against: 0 means a tie, 1 means the first hand wins, 2 the second.
const (
	Tie    = 0
	First  = 1
	Second = 2
)

// Ranker scores and compares seven-card hands. Implementations must be pure:
// the same cards always produce the same score.
type Ranker interface {
	// Rank returns a strength score for a seven-card hand. Lower is stronger.
	Rank(hand [HandSize]cards.Card) (int32, error)
	// Compare ranks both hands and reports which is stronger.
	Compare(a, b [HandSize]cards.Card) (int, error)
}

// Evaluator ranks hands with the chehsunliu/poker lookup-table evaluator.
type Evaluator struct{}

// NewEvaluator returns the production Ranker.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Rank implements Ranker.
func (e *Evaluator) Rank(hand [HandSize]cards.Card) (int32, error) {
	converted := make([]poker.Card, 0, HandSize)
	for _, c := range hand {
		if !c.Valid() {
			return 0, fmt.Errorf("rank: invalid card %d in hand", c)
		}
		converted = append(converted, poker.NewCard(c.String()))
	}
	return poker.Evaluate(converted), nil
}

// Compare implements Ranker.
func (e *Evaluator) Compare(a, b [HandSize]cards.Card) (int, error) {
	ra, err := e.Rank(a)
	if err != nil {
		return 0, err
	}
	rb, err := e.Rank(b)
	if err != nil {
		return 0, err
	}
	switch {
	case ra < rb:
		return First, nil
	case rb < ra:
		return Second, nil
	default:
		return Tie, nil
	}
}

// Describe returns the human-readable category for a score, e.g. "Full House".
func Describe(score int32) string {
	return poker.RankString(score)
}
