package lobby

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DecentPokerLabs/DecentPoker/internal/ledger"
)

func newRegistry(t *testing.T) (*Registry, *ledger.Memory) {
	t.Helper()
	led := ledger.NewMemory()
	return NewRegistry(led, log.New(io.Discard)), led
}

func fillEvent(t *testing.T, r *Registry, led *ledger.Memory, id uint64, seats int, buyIn int64) []string {
	t.Helper()
	names := make([]string, seats)
	for i := range names {
		names[i] = fmt.Sprintf("player%d", i)
		led.Fund(names[i], buyIn)
		require.NoError(t, r.RegisterSeat(id, names[i]))
	}
	return names
}

func TestPrizeSplit(t *testing.T) {
	tests := []struct {
		name     string
		pool     int64
		entrants int
		want     []int64
	}{
		{"nine players pay three places", 900, 9, []int64{450, 270, 180}},
		{"ten players pay three places", 1000, 10, []int64{500, 300, 200}},
		{"six players pay two places", 600, 6, []int64{390, 210}},
		{"three players pay two places", 300, 3, []int64{195, 105}},
		{"heads-up winner takes all", 200, 2, []int64{200}},
		{"odd pool loses nothing", 101, 3, []int64{65, 36}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PrizeSplit(tt.pool, tt.entrants)
			assert.Equal(t, tt.want, got)
			var sum int64
			for _, p := range got {
				sum += p
			}
			assert.Equal(t, tt.pool, sum)
		})
	}
}

func TestRegistrationLifecycle(t *testing.T) {
	r, led := newRegistry(t)
	id, err := r.Create(3, 100)
	require.NoError(t, err)

	led.Fund("alice", 100)
	require.NoError(t, r.RegisterSeat(id, "alice"))
	balance, _ := led.BalanceOf("alice")
	assert.Zero(t, balance, "buy-in moves to the pool")

	assert.ErrorIs(t, r.RegisterSeat(id, "alice"), ErrAlreadyRegistered)
	assert.ErrorIs(t, r.RegisterSeat(id+9, "bob"), ErrEventNotFound)
	assert.ErrorIs(t, r.RegisterSeat(id, "pauper"), ledger.ErrInsufficientFunds)

	led.Fund("bob", 100)
	led.Fund("carol", 100)
	require.NoError(t, r.RegisterSeat(id, "bob"))
	require.NoError(t, r.RegisterSeat(id, "carol"))

	ev, err := r.Snapshot(id)
	require.NoError(t, err)
	assert.True(t, ev.Started)
	assert.Equal(t, int64(300), ev.Pool)

	led.Fund("dave", 100)
	assert.ErrorIs(t, r.RegisterSeat(id, "dave"), ErrEventFull)
}

func TestCreateValidation(t *testing.T) {
	r, _ := newRegistry(t)
	_, err := r.Create(1, 100)
	assert.Error(t, err)
	_, err = r.Create(11, 100)
	assert.Error(t, err)
	_, err = r.Create(5, 0)
	assert.Error(t, err)
}

func TestEliminationPaysTieredPrizes(t *testing.T) {
	r, led := newRegistry(t)
	id, err := r.Create(9, 100)
	require.NoError(t, err)
	names := fillEvent(t, r, led, id, 9, 100)

	assert.Error(t, r.Eliminate(id, "stranger"), "only entrants can bust")

	// Bust players 0..7 in order; player 8 survives.
	for _, name := range names[:8] {
		require.NoError(t, r.Eliminate(id, name))
	}

	winner, _ := led.BalanceOf(names[8])
	second, _ := led.BalanceOf(names[7])
	third, _ := led.BalanceOf(names[6])
	fourth, _ := led.BalanceOf(names[5])
	assert.Equal(t, int64(450), winner)
	assert.Equal(t, int64(270), second)
	assert.Equal(t, int64(180), third)
	assert.Zero(t, fourth, "fourth place misses the money")

	ev, _ := r.Snapshot(id)
	assert.True(t, ev.Finished)
	assert.ErrorIs(t, r.Eliminate(id, names[0]), ErrNotRunning)
}

// flakyLedger fails the nth credit it sees and passes the rest through.
type flakyLedger struct {
	*ledger.Memory
	calls  int
	failOn int
}

func (l *flakyLedger) Credit(account string, amount int64) error {
	l.calls++
	if l.calls == l.failOn {
		return errors.New("ledger unavailable")
	}
	return l.Memory.Credit(account, amount)
}

func TestInterruptedPayoutResumes(t *testing.T) {
	led := ledger.NewMemory()
	r := NewRegistry(&flakyLedger{Memory: led, failOn: 2}, log.New(io.Discard))
	id, err := r.Create(9, 100)
	require.NoError(t, err)
	names := fillEvent(t, r, led, id, 9, 100)

	for _, name := range names[:7] {
		require.NoError(t, r.Eliminate(id, name))
	}
	// The final bust triggers payout; the second prize credit fails.
	require.Error(t, r.Eliminate(id, names[7]))

	winner, _ := led.BalanceOf(names[8])
	second, _ := led.BalanceOf(names[7])
	assert.Equal(t, int64(450), winner, "first place paid before the failure")
	assert.Zero(t, second)
	ev, _ := r.Snapshot(id)
	assert.False(t, ev.Finished, "event stays open until everyone is paid")

	// Retrying picks up at the first unpaid place without double paying.
	require.NoError(t, r.Settle(id))
	winner, _ = led.BalanceOf(names[8])
	second, _ = led.BalanceOf(names[7])
	third, _ := led.BalanceOf(names[6])
	assert.Equal(t, int64(450), winner)
	assert.Equal(t, int64(270), second)
	assert.Equal(t, int64(180), third)
	ev, _ = r.Snapshot(id)
	assert.True(t, ev.Finished)

	assert.NoError(t, r.Settle(id), "settling a finished event is a no-op")
}

func TestHeadsUpWinnerTakesAll(t *testing.T) {
	r, led := newRegistry(t)
	id, err := r.Create(2, 250)
	require.NoError(t, err)
	names := fillEvent(t, r, led, id, 2, 250)

	require.NoError(t, r.Eliminate(id, names[0]))

	winner, _ := led.BalanceOf(names[1])
	loser, _ := led.BalanceOf(names[0])
	assert.Equal(t, int64(500), winner)
	assert.Zero(t, loser)
}
