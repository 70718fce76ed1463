package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedger(t *testing.T) {
	m := NewMemory()
	m.Fund("alice", 1000)

	require.NoError(t, m.Debit("alice", 400))
	balance, err := m.BalanceOf("alice")
	require.NoError(t, err)
	assert.Equal(t, int64(600), balance)

	assert.ErrorIs(t, m.Debit("alice", 601), ErrInsufficientFunds)
	balance, _ = m.BalanceOf("alice")
	assert.Equal(t, int64(600), balance, "failed debit must not move funds")

	require.NoError(t, m.Credit("bob", 50))
	balance, _ = m.BalanceOf("bob")
	assert.Equal(t, int64(50), balance)

	balance, err = m.BalanceOf("nobody")
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestMemoryRejectsNegativeAmounts(t *testing.T) {
	m := NewMemory()
	assert.Error(t, m.Debit("a", -1))
	assert.Error(t, m.Credit("a", -1))
}

func TestSQLiteLedger(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Credit("alice", 1000))
	require.NoError(t, s.Debit("alice", 250))

	balance, err := s.BalanceOf("alice")
	require.NoError(t, err)
	assert.Equal(t, int64(750), balance)

	assert.ErrorIs(t, s.Debit("alice", 1000), ErrInsufficientFunds)
	balance, _ = s.BalanceOf("alice")
	assert.Equal(t, int64(750), balance)

	assert.ErrorIs(t, s.Debit("stranger", 1), ErrInsufficientFunds)

	balance, err = s.BalanceOf("stranger")
	require.NoError(t, err)
	assert.Zero(t, balance)
}
