package game

import (
	"sync"
	"time"

	"github.com/DecentPokerLabs/DecentPoker/internal/cards"
	"github.com/DecentPokerLabs/DecentPoker/internal/shuffle"
)

// Phase is the betting state machine position of a game.
type Phase int

const (
	Waiting Phase = iota
	PreFlop
	Flop
	Turn
	River
	Showdown
)

func (p Phase) String() string {
	switch p {
	case Waiting:
		return "waiting"
	case PreFlop:
		return "preflop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	case Showdown:
		return "showdown"
	default:
		return "unknown"
	}
}

// betting reports whether players act in this phase.
func (p Phase) betting() bool {
	return p >= PreFlop && p <= River
}

// ActionKind is a player betting action. The numeric values are the wire
// encoding accepted by PlayerAction.
type ActionKind int

const (
	Fold ActionKind = iota
	Check
	Call
	Raise
)

func (a ActionKind) String() string {
	switch a {
	case Fold:
		return "fold"
	case Check:
		return "check"
	case Call:
		return "call"
	case Raise:
		return "raise"
	default:
		return "unknown"
	}
}

// Seat is one chair at a table. Occupant is empty for a free seat. Playing
// marks seats that were dealt into the current hand; a seat vacated mid-hand
// keeps Playing set so its contribution stays accounted for until the hand
// resolves.
type Seat struct {
	Occupant    string
	Chips       int64
	Contributed int64
	RoundBet    int64
	Playing     bool
	Folded      bool
	AllIn       bool
	Revealed    bool
	Acted       bool
	Commitment  shuffle.Commitment
	Hole        [shuffle.HoleCards]cards.Card
}

// Game is one table. All mutation goes through the engine while holding mu;
// exactly one seat is ever authorized to advance betting state, so concurrent
// callers fail fast on turn checks rather than interleave.
type Game struct {
	mu sync.Mutex

	ID         uint64
	MaxPlayers int
	BigBlind   int64
	Invite     shuffle.Commitment

	Seats      []Seat
	DealerSeat int
	sbSeat     int
	Phase      Phase
	ActionSeat int
	CurrentBet int64
	minRaise   int64
	Pot        int64

	HandID   uint64
	lastMove time.Time
}

// occupied counts seats with a player in them.
func (g *Game) occupied() int {
	n := 0
	for i := range g.Seats {
		if g.Seats[i].Occupant != "" {
			n++
		}
	}
	return n
}

// seatOf returns the seat index occupied by identity, or -1.
func (g *Game) seatOf(identity string) int {
	for i := range g.Seats {
		if g.Seats[i].Occupant != "" && g.Seats[i].Occupant == identity {
			return i
		}
	}
	return -1
}

// inHand reports whether seat i was dealt into the current hand and has not
// folded.
func (g *Game) inHand(i int) bool {
	s := &g.Seats[i]
	return s.Playing && !s.Folded
}

// canAct reports whether seat i can still take betting actions.
func (g *Game) canAct(i int) bool {
	return g.inHand(i) && !g.Seats[i].AllIn
}

// nextFrom walks clockwise starting at seat from (inclusive) and returns the
// first seat satisfying ok, or -1 after a full lap.
func (g *Game) nextFrom(from int, ok func(int) bool) int {
	n := len(g.Seats)
	for d := 0; d < n; d++ {
		i := (from + d) % n
		if ok(i) {
			return i
		}
	}
	return -1
}

// livePlayers counts seats still contesting the hand.
func (g *Game) livePlayers() int {
	n := 0
	for i := range g.Seats {
		if g.inHand(i) {
			n++
		}
	}
	return n
}

// actors counts seats that can still bet.
func (g *Game) actors() int {
	n := 0
	for i := range g.Seats {
		if g.canAct(i) {
			n++
		}
	}
	return n
}

// tableChips is the conserved quantity for a hand: every seat stack plus the
// running pot.
func (g *Game) tableChips() int64 {
	total := g.Pot
	for i := range g.Seats {
		total += g.Seats[i].Chips
	}
	return total
}
