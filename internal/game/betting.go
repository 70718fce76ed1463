package game

import (
	"fmt"
	"time"
)

// pendingActor reports whether seat i still owes a decision this street:
// it can act and either has not acted since the last raise or has not
// matched the current bet. The big blind's preflop option falls out of the
// same rule, because blinds are posted without marking the seat acted.
func (g *Game) pendingActor(i int) bool {
	if !g.canAct(i) {
		return false
	}
	s := &g.Seats[i]
	return !s.Acted || s.RoundBet != g.CurrentBet
}

// PlayerAction applies one betting action for identity. amount is only read
// for Raise, where it is the raise-to total for the current street. Illegal
// calls are rejected atomically with the game untouched.
func (e *Engine) PlayerAction(gameID uint64, identity string, kind ActionKind, amount int64) error {
	g, err := e.game(gameID)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.Phase.betting() {
		return fmt.Errorf("%w: no betting in %s", ErrStateViolation, g.Phase)
	}
	seat := g.seatOf(identity)
	if seat < 0 || seat != g.ActionSeat {
		return fmt.Errorf("%w: action is on seat %d", ErrNotYourTurn, g.ActionSeat)
	}
	if err := g.apply(seat, kind, amount); err != nil {
		return err
	}
	g.lastMove = e.clock.Now()

	e.logger.Debug("action", "game", g.ID, "seat", seat, "kind", kind, "amount", amount,
		"pot", g.Pot, "phase", g.Phase)

	if g.livePlayers() <= 1 {
		g.enterShowdown(e.clock.Now())
		return nil
	}
	e.advanceTurn(g)
	return nil
}

// apply validates and executes a single action for the seat holding the
// turn.
func (g *Game) apply(seat int, kind ActionKind, amount int64) error {
	s := &g.Seats[seat]
	switch kind {
	case Fold:
		s.Folded = true
		s.Acted = true

	case Check:
		if s.RoundBet != g.CurrentBet {
			return fmt.Errorf("%w: cannot check facing a bet of %d", ErrInvalidAction, g.CurrentBet)
		}
		s.Acted = true

	case Call:
		need := g.CurrentBet - s.RoundBet
		if need > s.Chips {
			need = s.Chips
		}
		g.commit(seat, need)
		s.Acted = true

	case Raise:
		if amount <= g.CurrentBet {
			return fmt.Errorf("%w: raise to %d does not exceed bet of %d", ErrInvalidAction, amount, g.CurrentBet)
		}
		need := amount - s.RoundBet
		if need > s.Chips {
			return fmt.Errorf("%w: raise to %d needs %d, stack is %d", ErrRaiseTooHigh, amount, need, s.Chips)
		}
		allIn := need == s.Chips
		if amount-g.CurrentBet < g.minRaise && !allIn {
			return fmt.Errorf("%w: raise to %d below minimum raise of %d", ErrInvalidAction, amount, g.CurrentBet+g.minRaise)
		}
		if amount-g.CurrentBet >= g.minRaise {
			g.minRaise = amount - g.CurrentBet
		}
		g.commit(seat, need)
		g.CurrentBet = amount
		// A raise reopens the action for everyone still able to act.
		for i := range g.Seats {
			if i != seat && g.canAct(i) {
				g.Seats[i].Acted = false
			}
		}
		s.Acted = true

	default:
		return fmt.Errorf("%w: unknown action %d", ErrInvalidAction, kind)
	}
	return nil
}

// commit moves chips from the seat's stack into the pot for this street.
func (g *Game) commit(seat int, amount int64) {
	s := &g.Seats[seat]
	s.Chips -= amount
	s.RoundBet += amount
	s.Contributed += amount
	g.Pot += amount
	if s.Chips == 0 {
		s.AllIn = true
	}
}

// advanceTurn hands the action to the next seat that still owes a decision,
// or closes the street when nobody does.
func (e *Engine) advanceTurn(g *Game) {
	if g.ActionSeat >= 0 {
		next := g.nextFrom((g.ActionSeat+1)%len(g.Seats), g.pendingActor)
		if next >= 0 {
			g.ActionSeat = next
			return
		}
	}
	e.endStreet(g)
}

// endStreet closes the current betting round and opens the next one. Streets
// with at most one seat still able to bet are skipped straight through to
// showdown, since no further betting is possible.
func (e *Engine) endStreet(g *Game) {
	for i := range g.Seats {
		g.Seats[i].RoundBet = 0
		g.Seats[i].Acted = false
	}
	g.CurrentBet = 0
	g.minRaise = g.BigBlind

	g.Phase++
	if g.Phase >= Showdown || g.actors() <= 1 {
		g.enterShowdown(e.clock.Now())
		return
	}

	// Postflop the first pending seat clockwise from the small blind opens;
	// heads-up that is the dealer.
	g.ActionSeat = g.nextFrom(g.sbSeat, g.pendingActor)
	g.lastMove = e.clock.Now()
	if g.ActionSeat < 0 {
		g.enterShowdown(e.clock.Now())
	}
}

// enterShowdown parks the game waiting for reveals.
func (g *Game) enterShowdown(now time.Time) {
	g.Phase = Showdown
	g.ActionSeat = -1
	g.CurrentBet = 0
	for i := range g.Seats {
		g.Seats[i].RoundBet = 0
	}
	g.lastMove = now
}
