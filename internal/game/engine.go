// Package game implements the betting state machine at the heart of the
// server: blind posting, turn order, side-pot accounting and showdown
// resolution, built over the commit-reveal dealing in internal/shuffle and
// the hand ranking in internal/rank. Chip custody stays behind the ledger
// interface so the engine itself never owns bankrolls.
package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/DecentPokerLabs/DecentPoker/internal/cards"
	"github.com/DecentPokerLabs/DecentPoker/internal/ledger"
	"github.com/DecentPokerLabs/DecentPoker/internal/rank"
	"github.com/DecentPokerLabs/DecentPoker/internal/shuffle"
)

// BuyInBigBlinds fixes every seat's buy-in at 100 big blinds.
const BuyInBigBlinds = 100

// DefaultActionTimeout is how long a seat may sit on its turn, or on a
// showdown reveal, before anyone may force it along.
const DefaultActionTimeout = 5 * time.Minute

// Engine is the arena of running games. Games are independent: the engine
// map has its own lock, each game has its own, and no call ever holds two
// game locks at once.
type Engine struct {
	ledger ledger.Ledger
	dealer *shuffle.Dealer
	ranker rank.Ranker
	clock  quartz.Clock
	logger *log.Logger

	timeout time.Duration

	mu     sync.RWMutex
	games  map[uint64]*Game
	nextID uint64
}

// NewEngine wires an engine from its collaborators.
func NewEngine(led ledger.Ledger, deal *shuffle.Dealer, ranker rank.Ranker, clock quartz.Clock, logger *log.Logger) *Engine {
	return &Engine{
		ledger:  led,
		dealer:  deal,
		ranker:  ranker,
		clock:   clock,
		logger:  logger,
		timeout: DefaultActionTimeout,
		games:   make(map[uint64]*Game),
		nextID:  1,
	}
}

// SetActionTimeout overrides the inactivity deadline. Mainly for tests and
// tournament configs with faster clocks.
func (e *Engine) SetActionTimeout(d time.Duration) {
	e.timeout = d
}

// CreateGame opens a table. maxPlayers must be 2..10 and bigBlind positive.
// A non-zero inviteCommitment makes the game private: joins must present the
// matching invite secret.
func (e *Engine) CreateGame(maxPlayers int, bigBlind int64, inviteCommitment shuffle.Commitment) (uint64, error) {
	if maxPlayers < 2 || maxPlayers > 10 {
		return 0, fmt.Errorf("%w: max players %d outside 2..10", ErrStateViolation, maxPlayers)
	}
	if bigBlind <= 0 {
		return 0, fmt.Errorf("%w: big blind %d must be positive", ErrStateViolation, bigBlind)
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	g := &Game{
		ID:         id,
		MaxPlayers: maxPlayers,
		BigBlind:   bigBlind,
		Invite:     inviteCommitment,
		Seats:      make([]Seat, maxPlayers),
		DealerSeat: -1,
		ActionSeat: -1,
		Phase:      Waiting,
	}
	e.games[id] = g
	e.mu.Unlock()

	e.logger.Info("game created", "game", id, "seats", maxPlayers, "bigBlind", bigBlind)
	return id, nil
}

// game looks up a table by id.
func (e *Engine) game(gameID uint64) (*Game, error) {
	e.mu.RLock()
	g, ok := e.games[gameID]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrGameNotFound, gameID)
	}
	return g, nil
}

// JoinGame seats identity at the given seat, debiting the 100 big-blind
// buy-in from the ledger, and records the player's first hole-card
// commitment. Private games additionally require the invite secret.
func (e *Engine) JoinGame(gameID uint64, seat int, identity string, holeCommitment shuffle.Commitment, inviteSecret shuffle.Secret) error {
	g, err := e.game(gameID)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.Invite.Zero() && !g.Invite.Opens(inviteSecret) {
		return ErrInviteInvalid
	}
	if seat < 0 || seat >= len(g.Seats) {
		return fmt.Errorf("%w: seat %d outside 0..%d", ErrStateViolation, seat, len(g.Seats)-1)
	}
	if g.Seats[seat].Occupant != "" || g.Seats[seat].Playing {
		return fmt.Errorf("%w: seat %d", ErrSeatTaken, seat)
	}
	if g.seatOf(identity) >= 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyInGame, identity)
	}
	if holeCommitment.Zero() {
		return fmt.Errorf("%w: empty hole commitment", ErrInvalidCommitment)
	}

	buyIn := int64(BuyInBigBlinds) * g.BigBlind
	if err := e.ledger.Debit(identity, buyIn); err != nil {
		return err
	}

	g.Seats[seat] = Seat{
		Occupant:   identity,
		Chips:      buyIn,
		Commitment: holeCommitment,
	}
	e.logger.Info("player joined", "game", gameID, "seat", seat, "player", identity, "buyIn", buyIn)
	return nil
}

// LeaveGame removes identity's seat. Between hands the remaining stack is
// credited back to the ledger. Leaving while dealt into a hand forfeits the
// whole stack into the pot: the chips stay on the table for the players who
// finish the hand. If the leaver held the action, the vacancy counts as a
// fold and the turn moves on.
func (e *Engine) LeaveGame(gameID uint64, identity string) error {
	g, err := e.game(gameID)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	seat := g.seatOf(identity)
	if seat < 0 {
		return fmt.Errorf("%w: %s not seated", ErrStateViolation, identity)
	}
	s := &g.Seats[seat]

	if !s.Playing || g.Phase == Waiting {
		// Bank the stack before touching the seat, so a failed credit
		// leaves the player seated with their chips intact.
		stack := s.Chips
		if err := e.ledger.Credit(identity, stack); err != nil {
			return err
		}
		*s = Seat{}
		e.logger.Info("player left", "game", gameID, "seat", seat, "player", identity, "cashOut", stack)
		return nil
	}

	// Mid-hand exit. The stack is forfeited into the pot and the seat is
	// vacated, but its contribution record survives until resolution.
	g.Pot += s.Chips
	s.Contributed += s.Chips
	s.Chips = 0
	s.Occupant = ""
	heldAction := g.ActionSeat == seat
	wasLive := !s.Folded
	s.Folded = true
	s.Acted = true
	e.logger.Info("player left mid-hand", "game", gameID, "seat", seat, "player", identity)

	if g.Phase == Showdown {
		if wasLive && e.revealsComplete(g) {
			return e.resolveShowdown(g)
		}
		return nil
	}
	if g.livePlayers() <= 1 {
		g.enterShowdown(e.clock.Now())
		return nil
	}
	if heldAction {
		e.advanceTurn(g)
	}
	return nil
}

// DealHand starts the next hand: rotates the dealer, registers each seated
// commitment with the shuffle dealer, posts blinds and opens preflop
// betting.
func (e *Engine) DealHand(gameID uint64) error {
	g, err := e.game(gameID)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Phase != Waiting {
		return fmt.Errorf("%w: hand already in progress", ErrStateViolation)
	}
	if g.occupied() < 2 {
		return fmt.Errorf("%w: %d seated", ErrNotEnoughPlayers, g.occupied())
	}

	commitments := make(map[int]shuffle.Commitment)
	for i := range g.Seats {
		if g.Seats[i].Occupant != "" {
			commitments[i] = g.Seats[i].Commitment
		}
	}
	if g.HandID != 0 {
		e.dealer.Discard(g.HandID)
	}
	handID, err := e.dealer.CreateHand(commitments)
	if err != nil {
		return err
	}
	g.HandID = handID

	for i := range g.Seats {
		s := &g.Seats[i]
		if s.Occupant == "" {
			*s = Seat{}
			continue
		}
		s.Playing = true
		s.Contributed = 0
		s.RoundBet = 0
		s.Folded = false
		s.AllIn = false
		s.Revealed = false
		s.Acted = false
		s.Hole = [shuffle.HoleCards]cards.Card{}
	}

	occupied := func(i int) bool { return g.Seats[i].Playing }
	if g.DealerSeat < 0 {
		g.DealerSeat = g.nextFrom(0, occupied)
	} else {
		g.DealerSeat = g.nextFrom((g.DealerSeat+1)%len(g.Seats), occupied)
	}

	var bbSeat int
	if g.livePlayers() == 2 {
		// Heads-up the dealer posts the small blind.
		g.sbSeat = g.DealerSeat
		bbSeat = g.nextFrom((g.sbSeat+1)%len(g.Seats), occupied)
	} else {
		g.sbSeat = g.nextFrom((g.DealerSeat+1)%len(g.Seats), occupied)
		bbSeat = g.nextFrom((g.sbSeat+1)%len(g.Seats), occupied)
	}
	g.postBlind(g.sbSeat, g.BigBlind/2)
	g.postBlind(bbSeat, g.BigBlind)
	g.CurrentBet = g.BigBlind
	g.minRaise = g.BigBlind
	// Added, not assigned: a hand every player abandoned leaves its chips
	// in the pot for the next hand dealt here.
	g.Pot += g.seatContributions()

	g.Phase = PreFlop
	if g.livePlayers() == 2 {
		g.ActionSeat = bbSeat
	} else {
		g.ActionSeat = g.nextFrom((bbSeat+1)%len(g.Seats), g.canAct)
	}
	g.lastMove = e.clock.Now()
	// Short stacks can be all-in from the blinds alone, in which case the
	// intended first actor may have nothing left to decide.
	if g.ActionSeat < 0 || !g.pendingActor(g.ActionSeat) {
		e.advanceTurn(g)
	}

	e.logger.Info("hand dealt", "game", gameID, "hand", handID,
		"dealer", g.DealerSeat, "players", g.livePlayers())
	return nil
}

// postBlind moves a forced bet from the seat to its round bet, going all-in
// if the stack is short.
func (g *Game) postBlind(seat int, amount int64) {
	s := &g.Seats[seat]
	if amount > s.Chips {
		amount = s.Chips
	}
	s.Chips -= amount
	s.RoundBet += amount
	s.Contributed += amount
	if s.Chips == 0 {
		s.AllIn = true
	}
}

// seatContributions sums what every seat has put into the current hand.
func (g *Game) seatContributions() int64 {
	var total int64
	for i := range g.Seats {
		total += g.Seats[i].Contributed
	}
	return total
}
