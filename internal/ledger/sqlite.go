package ledger

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is a Ledger backed by a sqlite database. Every balance change is
// also appended to a transaction log so custody disputes can be audited.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenSQLite opens (and if necessary initializes) a ledger database at path.
// Use ":memory:" for an ephemeral store.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			balance INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("ledger: create accounts table: %w", err)
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			account_id TEXT NOT NULL,
			amount INTEGER NOT NULL,
			kind TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (account_id) REFERENCES accounts(id)
		)
	`)
	if err != nil {
		return fmt.Errorf("ledger: create transactions table: %w", err)
	}
	return nil
}

// apply adjusts a balance by delta inside one database transaction and logs
// it. delta is negative for debits.
func (s *SQLite) apply(account string, delta int64, kind string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRow("SELECT balance FROM accounts WHERE id = ?", account).Scan(&balance)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if balance+delta < 0 {
		return fmt.Errorf("%w: account %s has %d, needs %d",
			ErrInsufficientFunds, account, balance, -delta)
	}

	_, err = tx.Exec(`
		INSERT INTO accounts (id, balance) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET balance = balance + ?
	`, account, delta, delta)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
		INSERT INTO transactions (account_id, amount, kind) VALUES (?, ?, ?)
	`, account, delta, kind)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Debit implements Ledger.
func (s *SQLite) Debit(account string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("ledger: negative debit %d", amount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(account, -amount, "debit")
}

// Credit implements Ledger.
func (s *SQLite) Credit(account string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("ledger: negative credit %d", amount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(account, amount, "credit")
}

// BalanceOf implements Ledger.
func (s *SQLite) BalanceOf(account string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var balance int64
	err := s.db.QueryRow("SELECT balance FROM accounts WHERE id = ?", account).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ledger: balance of %s: %w", account, err)
	}
	return balance, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
