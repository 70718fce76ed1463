package game

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/DecentPokerLabs/DecentPoker/internal/ledger"
	"github.com/DecentPokerLabs/DecentPoker/internal/rank"
	"github.com/DecentPokerLabs/DecentPoker/internal/shuffle"
)

const testBigBlind = 2

// testBuyIn is what every seat sits down with.
const testBuyIn = BuyInBigBlinds * testBigBlind

type harness struct {
	t      *testing.T
	engine *Engine
	ledger *ledger.Memory
	clock  *quartz.Mock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := quartz.NewMock(t)
	led := ledger.NewMemory()
	var entropy shuffle.Entropy
	entropy[0] = 0xA5
	dealer := shuffle.NewDealer(shuffle.NewFixedSource(entropy))
	return &harness{
		t:      t,
		engine: NewEngine(led, dealer, rank.NewEvaluator(), clock, log.New(io.Discard)),
		ledger: led,
		clock:  clock,
	}
}

// secretFor derives a stable per-player secret so tests can reveal without
// bookkeeping.
func secretFor(name string) shuffle.Secret {
	var s shuffle.Secret
	copy(s[:], name)
	return s
}

func commitFor(name string) shuffle.Commitment {
	return shuffle.Commit(secretFor(name))
}

// sharedSecret gives several players an identical commitment, which makes
// their permutations, and therefore their hands, identical.
func sharedSecret() shuffle.Secret {
	return secretFor("shared")
}

func (h *harness) newGame(maxPlayers int) uint64 {
	h.t.Helper()
	id, err := h.engine.CreateGame(maxPlayers, testBigBlind, shuffle.Commitment{})
	require.NoError(h.t, err)
	return id
}

func (h *harness) join(gameID uint64, seat int, name string) {
	h.t.Helper()
	h.ledger.Fund(name, testBuyIn)
	require.NoError(h.t, h.engine.JoinGame(gameID, seat, name, commitFor(name), shuffle.Secret{}))
}

func (h *harness) joinSharing(gameID uint64, seat int, name string) {
	h.t.Helper()
	h.ledger.Fund(name, testBuyIn)
	require.NoError(h.t, h.engine.JoinGame(gameID, seat, name, shuffle.Commit(sharedSecret()), shuffle.Secret{}))
}

func (h *harness) act(gameID uint64, name string, kind ActionKind, amount int64) {
	h.t.Helper()
	require.NoError(h.t, h.engine.PlayerAction(gameID, name, kind, amount))
}

func (h *harness) reveal(gameID uint64, name string) {
	h.t.Helper()
	require.NoError(h.t, h.engine.RevealHand(gameID, name, secretFor(name), commitFor(name)))
}

func (h *harness) revealSharing(gameID uint64, name string) {
	h.t.Helper()
	require.NoError(h.t, h.engine.RevealHand(gameID, name, sharedSecret(), shuffle.Commit(sharedSecret())))
}

func (h *harness) chips(gameID uint64, seat int) int64 {
	h.t.Helper()
	chips, err := h.engine.Chips(gameID, seat)
	require.NoError(h.t, err)
	return chips
}

func (h *harness) phase(gameID uint64) string {
	h.t.Helper()
	v, err := h.engine.Snapshot(gameID)
	require.NoError(h.t, err)
	return v.Phase
}

func (h *harness) actionSeat(gameID uint64) int {
	h.t.Helper()
	seat, err := h.engine.ActionSeat(gameID)
	require.NoError(h.t, err)
	return seat
}

// tableTotal sums every stack plus the pot, the quantity conserved across a
// hand.
func (h *harness) tableTotal(gameID uint64) int64 {
	h.t.Helper()
	v, err := h.engine.Snapshot(gameID)
	require.NoError(h.t, err)
	total := v.Pot
	for _, s := range v.Seats {
		total += s.Chips
	}
	return total
}
