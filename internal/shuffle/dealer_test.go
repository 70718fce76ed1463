package shuffle

import (
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoCommitments() (map[int]Commitment, map[int]Secret) {
	secrets := map[int]Secret{0: secret(10), 1: secret(11)}
	commitments := map[int]Commitment{
		0: Commit(secrets[0]),
		1: Commit(secrets[1]),
	}
	return commitments, secrets
}

func TestCreateHandValidation(t *testing.T) {
	d := NewDealer(NewFixedSource(entropy(1)))

	_, err := d.CreateHand(map[int]Commitment{0: Commit(secret(1))})
	assert.Error(t, err, "one commitment is not a hand")

	_, err = d.CreateHand(map[int]Commitment{0: Commit(secret(1)), 1: {}})
	assert.Error(t, err, "empty commitment must be rejected")

	commitments, _ := twoCommitments()
	id, err := d.CreateHand(commitments)
	require.NoError(t, err)
	assert.NotZero(t, id)
}

func TestRevealChecksCommitment(t *testing.T) {
	d := NewDealer(NewFixedSource(entropy(1)))
	commitments, secrets := twoCommitments()
	id, err := d.CreateHand(commitments)
	require.NoError(t, err)

	assert.ErrorIs(t, d.Reveal(id, 0, secret(99)), ErrSecretInvalid)
	assert.ErrorIs(t, d.Reveal(id, 5, secrets[0]), ErrNotCommitted)
	assert.ErrorIs(t, d.Reveal(id+100, 0, secrets[0]), ErrHandUnknown)

	require.NoError(t, d.Reveal(id, 0, secrets[0]))
	assert.True(t, d.Revealed(id, 0))
	assert.False(t, d.Revealed(id, 1))

	// Same secret again is a no-op, a different one is an attack.
	assert.NoError(t, d.Reveal(id, 0, secrets[0]))
	assert.ErrorIs(t, d.Reveal(id, 0, secret(99)), ErrAlreadyRevealed)
}

func TestRevealAfterClose(t *testing.T) {
	d := NewDealer(NewFixedSource(entropy(1)))
	commitments, secrets := twoCommitments()
	id, err := d.CreateHand(commitments)
	require.NoError(t, err)
	require.NoError(t, d.Reveal(id, 0, secrets[0]))

	d.Close(id)

	assert.ErrorIs(t, d.Reveal(id, 1, secrets[1]), ErrAlreadyRevealed)

	// Revealed permutations stay verifiable until the hand is discarded.
	_, err = d.Deal(id, 0)
	assert.NoError(t, err)

	d.Discard(id)
	_, err = d.Deal(id, 0)
	assert.ErrorIs(t, err, ErrHandUnknown)
}

func TestDealMatchesPermutation(t *testing.T) {
	src := NewFixedSource(entropy(42))
	d := NewDealer(src)
	commitments, secrets := twoCommitments()
	id, err := d.CreateHand(commitments)
	require.NoError(t, err)

	_, err = d.Deal(id, 0)
	assert.ErrorIs(t, err, ErrNotCommitted, "deal before reveal must fail")

	require.NoError(t, d.Reveal(id, 0, secrets[0]))
	perm, err := d.Deal(id, 0)
	require.NoError(t, err)
	assert.Equal(t, Permutation(entropy(42), secrets[0]), perm)
}

func TestBeaconDelaysEntropy(t *testing.T) {
	clock := quartz.NewMock(t)
	beacon := NewBeacon(clock, time.Minute)
	d := NewDealer(beacon)

	commitments, secrets := twoCommitments()
	id, err := d.CreateHand(commitments)
	require.NoError(t, err)
	require.NoError(t, d.Reveal(id, 0, secrets[0]))

	_, err = d.Deal(id, 0)
	assert.ErrorIs(t, err, ErrEntropyNotReady)

	clock.Advance(time.Minute)

	first, err := d.Deal(id, 0)
	require.NoError(t, err)
	second, err := d.Deal(id, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second, "published entropy must be stable")
}

func TestBeaconRoundsAreIndependent(t *testing.T) {
	clock := quartz.NewMock(t)
	beacon := NewBeacon(clock, time.Minute)

	r1 := beacon.Reserve()
	r2 := beacon.Reserve()
	require.NotEqual(t, r1, r2)

	clock.Advance(time.Minute)

	e1, err := beacon.Value(r1)
	require.NoError(t, err)
	e2, err := beacon.Value(r2)
	require.NoError(t, err)
	assert.NotEqual(t, e1, e2)
}
