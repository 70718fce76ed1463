package game

import "fmt"

// DealerSeat returns the current dealer button position, -1 before the
// first hand.
func (e *Engine) DealerSeat(gameID uint64) (int, error) {
	g, err := e.game(gameID)
	if err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.DealerSeat, nil
}

// SeatOf returns the seat index identity occupies.
func (e *Engine) SeatOf(gameID uint64, identity string) (int, error) {
	g, err := e.game(gameID)
	if err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	seat := g.seatOf(identity)
	if seat < 0 {
		return 0, fmt.Errorf("%w: %s not seated", ErrStateViolation, identity)
	}
	return seat, nil
}

// Chips returns the table stack at a seat.
func (e *Engine) Chips(gameID uint64, seat int) (int64, error) {
	g, err := e.game(gameID)
	if err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if seat < 0 || seat >= len(g.Seats) {
		return 0, fmt.Errorf("%w: seat %d outside 0..%d", ErrStateViolation, seat, len(g.Seats)-1)
	}
	return g.Seats[seat].Chips, nil
}

// HandID returns the id of the current (or most recent) hand, zero before
// any hand has been dealt.
func (e *Engine) HandID(gameID uint64) (uint64, error) {
	g, err := e.game(gameID)
	if err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.HandID, nil
}

// ActionSeat returns the seat whose action is awaited, -1 when no seat
// holds the turn.
func (e *Engine) ActionSeat(gameID uint64) (int, error) {
	g, err := e.game(gameID)
	if err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ActionSeat, nil
}

// SeatView is a read-only snapshot of one seat.
type SeatView struct {
	Occupant    string `json:"occupant,omitempty"`
	Chips       int64  `json:"chips"`
	Contributed int64  `json:"contributed"`
	Folded      bool   `json:"folded,omitempty"`
	AllIn       bool   `json:"allIn,omitempty"`
	Revealed    bool   `json:"revealed,omitempty"`
}

// View is a read-only snapshot of a table, safe to serialize to clients.
type View struct {
	ID         uint64     `json:"id"`
	Phase      string     `json:"phase"`
	BigBlind   int64      `json:"bigBlind"`
	DealerSeat int        `json:"dealerSeat"`
	ActionSeat int        `json:"actionSeat"`
	CurrentBet int64      `json:"currentBet"`
	Pot        int64      `json:"pot"`
	HandID     uint64     `json:"handId,omitempty"`
	Seats      []SeatView `json:"seats"`
}

// Snapshot captures the externally observable state of a game.
func (e *Engine) Snapshot(gameID uint64) (View, error) {
	g, err := e.game(gameID)
	if err != nil {
		return View{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	v := View{
		ID:         g.ID,
		Phase:      g.Phase.String(),
		BigBlind:   g.BigBlind,
		DealerSeat: g.DealerSeat,
		ActionSeat: g.ActionSeat,
		CurrentBet: g.CurrentBet,
		Pot:        g.Pot,
		HandID:     g.HandID,
		Seats:      make([]SeatView, len(g.Seats)),
	}
	for i := range g.Seats {
		s := &g.Seats[i]
		v.Seats[i] = SeatView{
			Occupant:    s.Occupant,
			Chips:       s.Chips,
			Contributed: s.Contributed,
			Folded:      s.Folded,
			AllIn:       s.AllIn,
			Revealed:    s.Revealed,
		}
	}
	return v, nil
}

// Stale returns the ids of games whose pending turn or reveal has exceeded
// the inactivity deadline. The server's sweeper feeds these to AutoFold.
func (e *Engine) Stale() []uint64 {
	e.mu.RLock()
	games := make([]*Game, 0, len(e.games))
	for _, g := range e.games {
		games = append(games, g)
	}
	e.mu.RUnlock()

	now := e.clock.Now()
	var stale []uint64
	for _, g := range games {
		g.mu.Lock()
		switch {
		case g.Phase == Showdown && e.revealsComplete(g):
			// Resolution is pending, usually because entropy was not
			// published yet when the last reveal landed.
			stale = append(stale, g.ID)
		case g.Phase == Showdown || g.Phase.betting() && g.ActionSeat >= 0:
			if now.Sub(g.lastMove) >= e.timeout {
				stale = append(stale, g.ID)
			}
		}
		g.mu.Unlock()
	}
	return stale
}
