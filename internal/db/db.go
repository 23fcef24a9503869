// Package db is the relational store for rooms, seats, hands, chat and the
// token ledger. Every query is parameterized; callers run each state
// transition inside a single transaction via InTx.
package db

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store-level sentinel errors, mapped onto the service error taxonomy by the
// caller.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// DB represents the database connection
type DB struct {
	sdb *sql.DB
}

// Open opens (and if needed creates) the sqlite database at path. The DSN
// requests immediate transactions and a busy timeout so two concurrent
// actions on the same room serialize at the store instead of failing.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate&_foreign_keys=on", path)
	sdb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	if err := createTables(sdb); err != nil {
		sdb.Close()
		return nil, err
	}

	return &DB{sdb: sdb}, nil
}

// createTables creates the necessary database tables
func createTables(sdb *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rooms (
			id TEXT PRIMARY KEY,
			code TEXT NOT NULL UNIQUE,
			host_id TEXT NOT NULL,
			name TEXT NOT NULL,
			max_seats INTEGER NOT NULL,
			small_blind INTEGER NOT NULL,
			big_blind INTEGER NOT NULL,
			buy_in INTEGER NOT NULL,
			starting_stack INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'waiting',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS room_players (
			room_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			seat INTEGER NOT NULL,
			stack INTEGER NOT NULL DEFAULT 0,
			hole_cards TEXT NOT NULL DEFAULT '[]',
			street_bet INTEGER NOT NULL DEFAULT 0,
			hand_bet INTEGER NOT NULL DEFAULT 0,
			acted INTEGER NOT NULL DEFAULT 0,
			folded INTEGER NOT NULL DEFAULT 0,
			all_in INTEGER NOT NULL DEFAULT 0,
			in_hand INTEGER NOT NULL DEFAULT 0,
			active INTEGER NOT NULL DEFAULT 1,
			ready INTEGER NOT NULL DEFAULT 0,
			invested INTEGER NOT NULL DEFAULT 0,
			joined_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (room_id, user_id),
			FOREIGN KEY (room_id) REFERENCES rooms(id)
		)`,
		`CREATE TABLE IF NOT EXISTS hands (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			dealer_seat INTEGER NOT NULL,
			turn_seat INTEGER NOT NULL,
			phase TEXT NOT NULL,
			community TEXT NOT NULL DEFAULT '[]',
			deck TEXT NOT NULL DEFAULT '[]',
			pot INTEGER NOT NULL DEFAULT 0,
			current_bet INTEGER NOT NULL DEFAULT 0,
			deadline TIMESTAMP,
			winner_id TEXT NOT NULL DEFAULT '',
			win_label TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (room_id) REFERENCES rooms(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_hands_open ON hands(room_id) WHERE phase != 'finished'`,
		`CREATE TABLE IF NOT EXISTS actions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hand_id TEXT NOT NULL,
			room_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			amount INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (hand_id) REFERENCES hands(id)
		)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id TEXT NOT NULL,
			user_id TEXT,
			body TEXT NOT NULL,
			phase TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (room_id) REFERENCES rooms(id)
		)`,
		`CREATE TABLE IF NOT EXISTS players (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			balance INTEGER NOT NULL DEFAULT 0,
			bonus INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			player_id TEXT NOT NULL,
			amount INTEGER NOT NULL,
			type TEXT NOT NULL,
			description TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (player_id) REFERENCES players(id)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := sdb.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Tx wraps one store transaction; all query methods hang off it so a state
// transition cannot accidentally span transactions.
type Tx struct {
	tx *sql.Tx
}

// InTx runs fn inside a single transaction, rolling back on error.
func (d *DB) InTx(fn func(tx *Tx) error) error {
	tx, err := d.sdb.Begin()
	if err != nil {
		return err
	}
	if err := fn(&Tx{tx: tx}); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.sdb.Close()
}
