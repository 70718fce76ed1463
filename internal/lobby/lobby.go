// Package lobby runs sit-and-go registration around the game engine. It
// collects buy-ins into a prize pool, seats entrants once the table fills,
// and pays the tiered prizes out through the ledger as players bust.
package lobby

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/DecentPokerLabs/DecentPoker/internal/ledger"
)

var (
	// ErrEventNotFound means the sit-and-go id is unknown.
	ErrEventNotFound = errors.New("sit-and-go not found")
	// ErrEventFull means every seat is already taken.
	ErrEventFull = errors.New("sit-and-go full")
	// ErrAlreadyRegistered means the identity already holds a seat.
	ErrAlreadyRegistered = errors.New("already registered")
	// ErrNotRunning means the event has not filled yet or already paid out.
	ErrNotRunning = errors.New("sit-and-go not running")
)

// Event is one sit-and-go: it opens for registration, starts the moment the
// last seat fills, and finishes when all entrants but one have busted.
type Event struct {
	ID       uint64
	Seats    int
	BuyIn    int64
	Entrants []string
	Pool     int64
	Started  bool
	Finished bool

	// busted records elimination order, earliest first.
	busted []string
	// paid counts prize places already credited, so an interrupted payout
	// resumes without paying anyone twice.
	paid int
}

// standings returns entrants by finishing position, winner first. Only
// meaningful once the event has finished.
func (ev *Event) standings() []string {
	out := make([]string, 0, len(ev.Entrants))
	for _, name := range ev.Entrants {
		if !ev.bustedOut(name) {
			out = append(out, name)
		}
	}
	for i := len(ev.busted) - 1; i >= 0; i-- {
		out = append(out, ev.busted[i])
	}
	return out
}

func (ev *Event) bustedOut(name string) bool {
	for _, b := range ev.busted {
		if b == name {
			return true
		}
	}
	return false
}

// Registry tracks open and running sit-and-gos.
type Registry struct {
	mu     sync.Mutex
	ledger ledger.Ledger
	logger *log.Logger
	events map[uint64]*Event
	nextID uint64
}

// NewRegistry creates an empty lobby over the given custody ledger.
func NewRegistry(led ledger.Ledger, logger *log.Logger) *Registry {
	return &Registry{
		ledger: led,
		logger: logger,
		events: make(map[uint64]*Event),
		nextID: 1,
	}
}

// Create opens registration for a new sit-and-go.
func (r *Registry) Create(seats int, buyIn int64) (uint64, error) {
	if seats < 2 || seats > 10 {
		return 0, fmt.Errorf("lobby: seats %d outside 2..10", seats)
	}
	if buyIn <= 0 {
		return 0, fmt.Errorf("lobby: buy-in %d must be positive", buyIn)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.events[id] = &Event{ID: id, Seats: seats, BuyIn: buyIn}
	r.logger.Info("sit-and-go opened", "event", id, "seats", seats, "buyIn", buyIn)
	return id, nil
}

// RegisterSeat enters identity into the event, moving the buy-in from their
// bankroll into the prize pool. Registration closes, and the event starts,
// when the last seat fills.
func (r *Registry) RegisterSeat(eventID uint64, identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev, ok := r.events[eventID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
	}
	if ev.Started || ev.Finished {
		return fmt.Errorf("%w: registration closed", ErrEventFull)
	}
	for _, name := range ev.Entrants {
		if name == identity {
			return fmt.Errorf("%w: %s", ErrAlreadyRegistered, identity)
		}
	}
	if err := r.ledger.Debit(identity, ev.BuyIn); err != nil {
		return err
	}
	ev.Entrants = append(ev.Entrants, identity)
	ev.Pool += ev.BuyIn
	if len(ev.Entrants) == ev.Seats {
		ev.Started = true
		r.logger.Info("sit-and-go started", "event", eventID, "entrants", ev.Seats, "pool", ev.Pool)
	}
	return nil
}

// Eliminate records identity busting out of a running event. When one
// entrant remains the event finishes and prizes pay out immediately.
func (r *Registry) Eliminate(eventID uint64, identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev, ok := r.events[eventID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
	}
	if !ev.Started || ev.Finished {
		return ErrNotRunning
	}
	found := false
	for _, name := range ev.Entrants {
		if name == identity {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("lobby: %s not entered in event %d", identity, eventID)
	}
	if ev.bustedOut(identity) {
		return fmt.Errorf("lobby: %s already eliminated", identity)
	}

	ev.busted = append(ev.busted, identity)
	if len(ev.busted) < len(ev.Entrants)-1 {
		return nil
	}
	return r.payout(ev)
}

// payout credits prizes by finishing place and only then marks the event
// finished. A failed credit returns with the places already paid recorded on
// the event, so Settle can resume from the first unpaid place.
func (r *Registry) payout(ev *Event) error {
	prizes := PrizeSplit(ev.Pool, len(ev.Entrants))
	standings := ev.standings()
	for ev.paid < len(prizes) {
		place := ev.paid
		winner := standings[place]
		if err := r.ledger.Credit(winner, prizes[place]); err != nil {
			return err
		}
		ev.paid++
		r.logger.Info("prize paid", "event", ev.ID, "place", place+1, "player", winner, "amount", prizes[place])
	}
	ev.Finished = true
	return nil
}

// Settle resumes a payout that a ledger failure interrupted. It is a no-op
// on a finished event.
func (r *Registry) Settle(eventID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev, ok := r.events[eventID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
	}
	if ev.Finished {
		return nil
	}
	if !ev.Started || len(ev.busted) < len(ev.Entrants)-1 {
		return ErrNotRunning
	}
	return r.payout(ev)
}

// Snapshot returns a copy of the event state.
func (r *Registry) Snapshot(eventID uint64) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[eventID]
	if !ok {
		return Event{}, fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
	}
	out := *ev
	out.Entrants = append([]string(nil), ev.Entrants...)
	out.busted = append([]string(nil), ev.busted...)
	return out, nil
}

// PrizeSplit returns prize amounts by finishing place. Nine seats and up
// pay three places (half, three tenths, the rest), three to eight pay two
// places (65% and the rest), and heads-up is winner-takes-all. Amounts
// always sum to the pool.
func PrizeSplit(pool int64, entrants int) []int64 {
	switch {
	case entrants >= 9:
		first := pool / 2
		second := pool * 3 / 10
		return []int64{first, second, pool - first - second}
	case entrants >= 3:
		first := pool * 65 / 100
		return []int64{first, pool - first}
	default:
		return []int64{pool}
	}
}
