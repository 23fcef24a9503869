// Package server implements the poker room service: a stateless HTTP+JSON
// surface over the relational store. Every request loads the room, hand and
// seat rows it needs, validates the move against the engine, mutates and
// persists them inside a single store transaction, and returns the updated
// view. No game state lives in process memory between requests.
package server

import (
	"crypto/rand"
	"fmt"
	mrand "math/rand"
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/cardtable/pokerroom/internal/db"
)

// Room lifecycle states.
const (
	RoomWaiting  = "waiting"
	RoomPlaying  = "playing"
	RoomFinished = "finished"
)

// Ledger transaction types recorded with every token movement.
const (
	TxBuyIn   = "buy_in"
	TxCashout = "game_cashout"
	TxDeposit = "deposit"
)

const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Config configures a Server.
type Config struct {
	DB       *db.DB
	Identity Identity
	Log      slog.Logger

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time

	// Seed makes deck shuffles deterministic when non-zero, for tests.
	Seed int64
}

// Server is the poker room service.
type Server struct {
	log      slog.Logger
	db       *db.DB
	identity Identity
	now      func() time.Time

	rngMu sync.Mutex
	rng   *mrand.Rand
}

// New creates a poker room service.
func New(cfg Config) *Server {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log := cfg.Log
	if log == nil {
		log = slog.Disabled
	}
	return &Server{
		log:      log,
		db:       cfg.DB,
		identity: cfg.Identity,
		now:      now,
		rng:      mrand.New(mrand.NewSource(seed)),
	}
}

// shuffleRNG returns the shared shuffle source. Callers must only use it
// while holding no store transaction open for long; the mutex keeps
// concurrent hand initializations from interleaving reads.
func (s *Server) shuffleRNG() (*mrand.Rand, func()) {
	s.rngMu.Lock()
	return s.rng, s.rngMu.Unlock
}

// newJoinCode generates a 6-character alphanumeric join code. Codes are not
// guaranteed globally unique; the insert's unique constraint surfaces the
// (practically impossible) collision as an error.
func newJoinCode() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate join code: %w", err)
	}
	for i, b := range buf {
		buf[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(buf), nil
}
