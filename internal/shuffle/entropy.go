package shuffle

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/coder/quartz"
)

// Round identifies one future entropy value reserved from a
// ReferenceEntropySource.
type Round uint64

// ReferenceEntropySource yields values that are unknown when a round is
// reserved and publicly verifiable once published. The original deployment
// used a future block hash; any delayed random beacon satisfies the same
// contract, and the shuffle itself does not care which one backs it.
type ReferenceEntropySource interface {
	// Reserve allocates the next unpublished round.
	Reserve() Round
	// Value returns the entropy for a round, or ErrEntropyNotReady if the
	// round has not been published yet.
	Value(round Round) (Entropy, error)
}

// Beacon is a delayed random beacon: it reserves rounds immediately but only
// publishes their values after a fixed interval has elapsed, so no caller can
// know a round's entropy at reservation time. Publication is driven by the
// injected clock, which tests replace with a mock.
type Beacon struct {
	mu       sync.Mutex
	clock    quartz.Clock
	interval time.Duration
	rounds   map[Round]Entropy
	due      map[Round]time.Time
	next     Round
}

// NewBeacon creates a beacon whose rounds become available after interval.
func NewBeacon(clock quartz.Clock, interval time.Duration) *Beacon {
	return &Beacon{
		clock:    clock,
		interval: interval,
		rounds:   make(map[Round]Entropy),
		due:      make(map[Round]time.Time),
		next:     1,
	}
}

// Reserve implements ReferenceEntropySource.
func (b *Beacon) Reserve() Round {
	b.mu.Lock()
	defer b.mu.Unlock()
	round := b.next
	b.next++
	b.due[round] = b.clock.Now().Add(b.interval)
	return round
}

// Value implements ReferenceEntropySource.
func (b *Beacon) Value(round Round) (Entropy, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if e, ok := b.rounds[round]; ok {
		return e, nil
	}
	due, ok := b.due[round]
	if !ok || b.clock.Now().Before(due) {
		return Entropy{}, ErrEntropyNotReady
	}

	var e Entropy
	if _, err := rand.Read(e[:]); err != nil {
		return Entropy{}, err
	}
	b.rounds[round] = e
	delete(b.due, round)
	return e, nil
}

// FixedSource publishes a predetermined entropy value for every round the
// moment it is reserved. It exists for deterministic tests and local play.
type FixedSource struct {
	mu      sync.Mutex
	entropy Entropy
	next    Round
}

// NewFixedSource returns a source that answers every round with entropy.
func NewFixedSource(entropy Entropy) *FixedSource {
	return &FixedSource{entropy: entropy, next: 1}
}

// Reserve implements ReferenceEntropySource.
func (f *FixedSource) Reserve() Round {
	f.mu.Lock()
	defer f.mu.Unlock()
	round := f.next
	f.next++
	return round
}

// Value implements ReferenceEntropySource.
func (f *FixedSource) Value(Round) (Entropy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entropy, nil
}
