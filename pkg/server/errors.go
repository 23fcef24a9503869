package server

import (
	"errors"
	"net/http"

	"github.com/cardtable/pokerroom/pkg/poker"
	"github.com/cardtable/pokerroom/internal/db"
)

// Service-level sentinel errors. Handlers map each onto a stable wire code;
// anything unmatched is reported as INTERNAL with a correlation id only.
var (
	ErrUnauthorized      = errors.New("missing or invalid credential")
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room is full")
	ErrNotEnoughPlayers  = errors.New("not enough players to start")
	ErrPlayersNotReady   = errors.New("players are not ready")
	ErrForbidden         = errors.New("only the host may do that")
	ErrInsufficientFunds = errors.New("insufficient token balance")
	ErrGameNotFound      = errors.New("no hand in progress")
	ErrSeatSettling      = errors.New("previous seat is still settling")
	ErrValidation        = errors.New("invalid request")
)

// wireError is a stable code + HTTP status for one error class.
type wireError struct {
	code   string
	status int
}

var wireErrors = []struct {
	err  error
	wire wireError
}{
	{ErrUnauthorized, wireError{"UNAUTHORIZED", http.StatusUnauthorized}},
	{ErrRoomNotFound, wireError{"ROOM_NOT_FOUND", http.StatusNotFound}},
	{ErrRoomFull, wireError{"ROOM_FULL", http.StatusConflict}},
	{ErrNotEnoughPlayers, wireError{"NOT_ENOUGH_PLAYERS", http.StatusConflict}},
	{ErrPlayersNotReady, wireError{"PLAYERS_NOT_READY", http.StatusConflict}},
	{ErrForbidden, wireError{"FORBIDDEN", http.StatusForbidden}},
	{ErrInsufficientFunds, wireError{"INSUFFICIENT_FUNDS", http.StatusPaymentRequired}},
	{ErrGameNotFound, wireError{"GAME_NOT_FOUND", http.StatusNotFound}},
	{ErrSeatSettling, wireError{"SEAT_SETTLING", http.StatusConflict}},
	{ErrValidation, wireError{"VALIDATION", http.StatusBadRequest}},
	{db.ErrInsufficientFunds, wireError{"INSUFFICIENT_FUNDS", http.StatusPaymentRequired}},
	{poker.ErrNotYourTurn, wireError{"NOT_YOUR_TURN", http.StatusConflict}},
	{poker.ErrAlreadyFolded, wireError{"ALREADY_FOLDED", http.StatusConflict}},
	{poker.ErrInvalidPhase, wireError{"INVALID_PHASE", http.StatusConflict}},
	{poker.ErrNotInHand, wireError{"INVALID_PHASE", http.StatusConflict}},
	{poker.ErrBetOwed, wireError{"VALIDATION", http.StatusBadRequest}},
	{poker.ErrBadAmount, wireError{"VALIDATION", http.StatusBadRequest}},
}

// classify returns the wire mapping for err, or ok=false for internal errors
// that must not leak details to the caller.
func classify(err error) (wireError, bool) {
	for _, m := range wireErrors {
		if errors.Is(err, m.err) {
			return m.wire, true
		}
	}
	return wireError{}, false
}
