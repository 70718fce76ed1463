// Package ledger is the chip custody boundary. The game engine never holds
// bankroll balances itself; it debits a buy-in when a player sits down and
// credits the remaining stack when they cash out, and everything in between
// is table-internal.
package ledger

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInsufficientFunds is returned by Debit when the account cannot cover
// the amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Ledger holds bankroll balances keyed by account identity. Implementations
// must apply each call atomically.
type Ledger interface {
	// Debit removes amount from the account, failing with
	// ErrInsufficientFunds if the balance would go negative.
	Debit(account string, amount int64) error
	// Credit adds amount to the account, creating it if needed.
	Credit(account string, amount int64) error
	// BalanceOf returns the account balance. Unknown accounts hold zero.
	BalanceOf(account string) (int64, error)
}

// Memory is an in-process Ledger for tests and single-node play.
type Memory struct {
	mu       sync.Mutex
	balances map[string]int64
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{balances: make(map[string]int64)}
}

// Fund seeds an account balance directly.
func (m *Memory) Fund(account string, amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[account] += amount
}

// Debit implements Ledger.
func (m *Memory) Debit(account string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("ledger: negative debit %d", amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[account] < amount {
		return fmt.Errorf("%w: account %s has %d, needs %d",
			ErrInsufficientFunds, account, m.balances[account], amount)
	}
	m.balances[account] -= amount
	return nil
}

// Credit implements Ledger.
func (m *Memory) Credit(account string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("ledger: negative credit %d", amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[account] += amount
	return nil
}

// BalanceOf implements Ledger.
func (m *Memory) BalanceOf(account string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[account], nil
}
