package shuffle

import (
	"errors"
	"fmt"
	"sync"

	"github.com/DecentPokerLabs/DecentPoker/internal/cards"
)

var (
	// ErrEntropyNotReady means the hand's reference entropy has not been
	// published yet: no cards can be derived or verified.
	ErrEntropyNotReady = errors.New("reference entropy not ready")
	// ErrAlreadyRevealed means a different secret was already revealed for
	// the seat, or the hand is closed.
	ErrAlreadyRevealed = errors.New("secret already revealed")
	// ErrSecretInvalid means the revealed secret does not open the seat's
	// commitment.
	ErrSecretInvalid = errors.New("secret does not match commitment")
	// ErrHandUnknown means the hand id was never created or was discarded.
	ErrHandUnknown = errors.New("hand unknown")
	// ErrNotCommitted means the seat has no commitment in this hand.
	ErrNotCommitted = errors.New("seat not committed in hand")
)

// Hand tracks the commit-reveal state for one dealt hand.
type Hand struct {
	ID          uint64
	Round       Round
	Commitments map[int]Commitment
	Secrets     map[int]Secret
	Closed      bool
}

// Dealer is the registry of open hands. It records commitments when a hand
// is dealt, checks reveals against them, and resolves permutations once the
// reference entropy is available. One Dealer serves every game.
type Dealer struct {
	mu     sync.Mutex
	source ReferenceEntropySource
	hands  map[uint64]*Hand
	nextID uint64
}

// NewDealer creates a dealer backed by the given entropy source.
func NewDealer(source ReferenceEntropySource) *Dealer {
	return &Dealer{
		source: source,
		hands:  make(map[uint64]*Hand),
		nextID: 1,
	}
}

// CreateHand opens a new hand for the given seat commitments and reserves a
// future entropy round for it. Commitments are recorded before the entropy
// exists, which is what makes the eventual deal unpredictable.
func (d *Dealer) CreateHand(commitments map[int]Commitment) (uint64, error) {
	if len(commitments) < 2 {
		return 0, fmt.Errorf("shuffle: hand needs at least two commitments, got %d", len(commitments))
	}
	for seat, c := range commitments {
		if c.Zero() {
			return 0, fmt.Errorf("shuffle: seat %d has an empty commitment", seat)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++

	hand := &Hand{
		ID:          id,
		Round:       d.source.Reserve(),
		Commitments: make(map[int]Commitment, len(commitments)),
		Secrets:     make(map[int]Secret),
	}
	for seat, c := range commitments {
		hand.Commitments[seat] = c
	}
	d.hands[id] = hand
	return id, nil
}

// Reveal records a seat's secret for an open hand. Revealing the same secret
// twice is idempotent; revealing a different one fails with
// ErrAlreadyRevealed, and a secret that does not open the seat's commitment
// fails with ErrSecretInvalid.
func (d *Dealer) Reveal(handID uint64, seat int, secret Secret) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	hand, ok := d.hands[handID]
	if !ok {
		return ErrHandUnknown
	}
	commitment, ok := hand.Commitments[seat]
	if !ok {
		return ErrNotCommitted
	}
	if prev, ok := hand.Secrets[seat]; ok {
		if prev == secret {
			return nil
		}
		return ErrAlreadyRevealed
	}
	if hand.Closed {
		return ErrAlreadyRevealed
	}
	if !commitment.Opens(secret) {
		return ErrSecretInvalid
	}
	hand.Secrets[seat] = secret
	return nil
}

// Revealed reports whether a seat has revealed its secret.
func (d *Dealer) Revealed(handID uint64, seat int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	hand, ok := d.hands[handID]
	if !ok {
		return false
	}
	_, ok = hand.Secrets[seat]
	return ok
}

// Deal resolves the full permutation for a seat that has revealed. It fails
// with ErrEntropyNotReady until the hand's entropy round is published.
func (d *Dealer) Deal(handID uint64, seat int) ([cards.DeckSize]cards.Card, error) {
	d.mu.Lock()
	hand, ok := d.hands[handID]
	if !ok {
		d.mu.Unlock()
		return [cards.DeckSize]cards.Card{}, ErrHandUnknown
	}
	secret, ok := hand.Secrets[seat]
	round := hand.Round
	d.mu.Unlock()

	if !ok {
		return [cards.DeckSize]cards.Card{}, ErrNotCommitted
	}
	entropy, err := d.source.Value(round)
	if err != nil {
		return [cards.DeckSize]cards.Card{}, err
	}
	return Permutation(entropy, secret), nil
}

// Close marks a hand finished. Reveals of new secrets against a closed hand
// fail with ErrAlreadyRevealed; already-revealed permutations stay readable
// for verification until the hand is discarded.
func (d *Dealer) Close(handID uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if hand, ok := d.hands[handID]; ok {
		hand.Closed = true
	}
}

// Discard drops a closed hand entirely. No history is retained.
func (d *Dealer) Discard(handID uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.hands, handID)
}
