package game

import (
	"fmt"

	"github.com/DecentPokerLabs/DecentPoker/internal/cards"
	"github.com/DecentPokerLabs/DecentPoker/internal/rank"
	"github.com/DecentPokerLabs/DecentPoker/internal/shuffle"
)

// RevealHand opens identity's commitment for the current hand and, in the
// same call, commits the secret for their next hand. Once every contesting
// seat has revealed the hand resolves immediately. Even a pot won by folds
// passes through here: the last seat standing proves its commitment was
// honest before being paid.
func (e *Engine) RevealHand(gameID uint64, identity string, secret shuffle.Secret, nextCommitment shuffle.Commitment) error {
	g, err := e.game(gameID)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Phase != Showdown {
		return fmt.Errorf("%w: game is in %s", ErrNotInShowdown, g.Phase)
	}
	seat := g.seatOf(identity)
	if seat < 0 || !g.Seats[seat].Playing {
		return fmt.Errorf("%w: %s not in this hand", ErrStateViolation, identity)
	}
	if nextCommitment.Zero() {
		return fmt.Errorf("%w: empty next-hand commitment", ErrInvalidCommitment)
	}

	if err := e.dealer.Reveal(g.HandID, seat, secret); err != nil {
		return err
	}
	s := &g.Seats[seat]
	s.Revealed = true
	s.Commitment = nextCommitment

	if e.revealsComplete(g) {
		return e.resolveShowdown(g)
	}
	return nil
}

// CloseHand resolves a showdown. Before the reveal deadline it requires
// every contesting seat to have revealed; afterwards it may be called by
// anyone, and seats that never revealed are treated as folded for payout so
// their stakes go to the seats that did.
func (e *Engine) CloseHand(gameID uint64) error {
	g, err := e.game(gameID)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Phase != Showdown {
		return fmt.Errorf("%w: game is in %s", ErrNotInShowdown, g.Phase)
	}
	if !e.revealsComplete(g) {
		if e.clock.Now().Sub(g.lastMove) < e.timeout {
			return fmt.Errorf("%w: reveals outstanding", ErrStateViolation)
		}
		for i := range g.Seats {
			s := &g.Seats[i]
			if s.Playing && !s.Folded && !s.Revealed {
				s.Folded = true
			}
		}
	}
	return e.resolveShowdown(g)
}

// AutoFold forces progress on a game whose turn holder has gone quiet past
// the inactivity deadline. In a betting phase it folds the action seat; in
// showdown it behaves as CloseHand.
func (e *Engine) AutoFold(gameID uint64) error {
	g, err := e.game(gameID)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Phase == Showdown {
		if !e.revealsComplete(g) {
			if e.clock.Now().Sub(g.lastMove) < e.timeout {
				return fmt.Errorf("%w: reveal deadline not reached", ErrStateViolation)
			}
			for i := range g.Seats {
				s := &g.Seats[i]
				if s.Playing && !s.Folded && !s.Revealed {
					s.Folded = true
				}
			}
		}
		return e.resolveShowdown(g)
	}
	if !g.Phase.betting() || g.ActionSeat < 0 {
		return fmt.Errorf("%w: nothing to fold in %s", ErrStateViolation, g.Phase)
	}
	if e.clock.Now().Sub(g.lastMove) < e.timeout {
		return fmt.Errorf("%w: action deadline not reached", ErrStateViolation)
	}

	seat := g.ActionSeat
	g.Seats[seat].Folded = true
	g.Seats[seat].Acted = true
	g.lastMove = e.clock.Now()
	e.logger.Info("seat folded for inactivity", "game", g.ID, "seat", seat)

	if g.livePlayers() <= 1 {
		g.enterShowdown(e.clock.Now())
		return nil
	}
	e.advanceTurn(g)
	return nil
}

// revealsComplete reports whether every non-folded contesting seat has
// revealed its secret.
func (e *Engine) revealsComplete(g *Game) bool {
	for i := range g.Seats {
		s := &g.Seats[i]
		if s.Playing && !s.Folded && !s.Revealed {
			return false
		}
	}
	return true
}

// resolveShowdown turns reveals into payouts and returns the game to
// Waiting. It gathers every fallible input first, so a failure (most
// importantly entropy that is not yet published) leaves the showdown intact
// to retry.
func (e *Engine) resolveShowdown(g *Game) error {
	var contenders []int
	for i := range g.Seats {
		if g.inHand(i) && g.Seats[i].Revealed {
			contenders = append(contenders, i)
		}
	}

	perms := make(map[int][cards.DeckSize]cards.Card, len(contenders))
	for _, seat := range contenders {
		perm, err := e.dealer.Deal(g.HandID, seat)
		if err != nil {
			return err
		}
		perms[seat] = perm
	}

	scores := make(map[int]int32, len(contenders))
	if len(contenders) > 0 {
		board := g.communityBoard(perms)
		for _, seat := range contenders {
			var hand [rank.HandSize]cards.Card
			hole := shuffle.Hole(perms[seat])
			copy(hand[:shuffle.HoleCards], hole[:])
			copy(hand[shuffle.HoleCards:], board[:])
			score, err := e.ranker.Rank(hand)
			if err != nil {
				return err
			}
			scores[seat] = score
		}
	}

	// Everything fallible is done; mutate.
	for _, seat := range contenders {
		g.Seats[seat].Hole = shuffle.Hole(perms[seat])
	}

	if len(contenders) == 0 {
		// Nobody proved a hand. Stakes go back where they came from, with
		// forfeits from vacated seats split across the seats still here. A
		// fully abandoned table has nobody to pay, so its chips stay in the
		// pot and carry into the next hand dealt there.
		var refunded int64
		var present []int
		for i := range g.Seats {
			s := &g.Seats[i]
			if s.Occupant == "" {
				continue
			}
			s.Chips += s.Contributed
			refunded += s.Contributed
			if s.Playing {
				present = append(present, i)
			}
		}
		orphaned := g.Pot - refunded
		if orphaned > 0 && len(present) > 0 {
			share := orphaned / int64(len(present))
			for _, seat := range present {
				g.Seats[seat].Chips += share
			}
			g.Seats[present[0]].Chips += orphaned % int64(len(present))
			g.Pot = 0
		} else {
			g.Pot = orphaned
		}
	} else {
		var contribs []contribution
		var staked int64
		for i := range g.Seats {
			s := &g.Seats[i]
			if s.Contributed > 0 {
				contribs = append(contribs, contribution{
					seat:   i,
					amount: s.Contributed,
					live:   g.inHand(i) && s.Revealed,
				})
				staked += s.Contributed
			}
		}
		// Anything in the pot beyond this hand's stakes was carried from
		// an abandoned hand and sweetens the main pot.
		payouts := distribute(contribs, scores, g.DealerSeat, len(g.Seats), g.Pot-staked)
		for seat, amount := range payouts {
			g.Seats[seat].Chips += amount
			e.logger.Info("pot paid", "game", g.ID, "hand", g.HandID, "seat", seat, "amount", amount)
		}
		g.Pot = 0
	}

	e.dealer.Close(g.HandID)

	for i := range g.Seats {
		s := &g.Seats[i]
		if s.Occupant == "" {
			*s = Seat{}
			continue
		}
		s.Playing = false
		s.Folded = false
		s.AllIn = false
		s.Revealed = false
		s.Acted = false
		s.RoundBet = 0
		s.Contributed = 0
	}
	g.Phase = Waiting
	g.ActionSeat = -1
	g.CurrentBet = 0
	return nil
}

// communityBoard picks the canonical shared cards for a hand: the board
// slice of the first revealed contender clockwise from the dealer seat,
// dealer included. Every verifier lands on the same seat, so the board is
// unambiguous.
func (g *Game) communityBoard(perms map[int][cards.DeckSize]cards.Card) [shuffle.BoardCards]cards.Card {
	start := g.DealerSeat
	if start < 0 {
		start = 0
	}
	for d := 0; d < len(g.Seats); d++ {
		seat := (start + d) % len(g.Seats)
		if perm, ok := perms[seat]; ok {
			return shuffle.Board(perm)
		}
	}
	return [shuffle.BoardCards]cards.Card{}
}
