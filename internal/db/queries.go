package db

import (
	"database/sql"
	"time"
)

// Room is a stored poker room.
type Room struct {
	ID            string
	Code          string
	HostID        string
	Name          string
	MaxSeats      int
	SmallBlind    int64
	BigBlind      int64
	BuyIn         int64
	StartingStack int64
	Status        string
	CreatedAt     time.Time
}

// Seat is a stored room_players row.
type Seat struct {
	RoomID    string
	UserID    string
	Name      string
	Seat      int
	Stack     int64
	HoleCards string
	StreetBet int64
	HandBet   int64
	Acted     bool
	Folded    bool
	AllIn     bool
	InHand    bool
	Active    bool
	Ready     bool
	Invested  int64
}

// Hand is a stored hand row; card columns hold JSON produced by the engine.
type Hand struct {
	ID         string
	RoomID     string
	DealerSeat int
	TurnSeat   int
	Phase      string
	Community  string
	Deck       string
	Pot        int64
	CurrentBet int64
	Deadline   sql.NullTime
	WinnerID   string
	WinLabel   string
}

// Action is one audit-log entry of a hand's betting history.
type Action struct {
	ID        int64
	HandID    string
	RoomID    string
	UserID    string
	Kind      string
	Amount    int64
	CreatedAt time.Time
}

// ChatMessage is a stored chat entry. UserID is null for system messages.
type ChatMessage struct {
	ID        int64
	RoomID    string
	UserID    sql.NullString
	Body      string
	Phase     string
	CreatedAt time.Time
}

// CreateRoom inserts a new room.
func (t *Tx) CreateRoom(r *Room) error {
	_, err := t.tx.Exec(`
		INSERT INTO rooms (id, code, host_id, name, max_seats, small_blind, big_blind, buy_in, starting_stack, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Code, r.HostID, r.Name, r.MaxSeats, r.SmallBlind, r.BigBlind, r.BuyIn, r.StartingStack, r.Status)
	return err
}

func scanRoom(row *sql.Row) (*Room, error) {
	var r Room
	err := row.Scan(&r.ID, &r.Code, &r.HostID, &r.Name, &r.MaxSeats, &r.SmallBlind,
		&r.BigBlind, &r.BuyIn, &r.StartingStack, &r.Status, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const roomCols = `id, code, host_id, name, max_seats, small_blind, big_blind, buy_in, starting_stack, status, created_at`

// RoomByID loads one room by identifier.
func (t *Tx) RoomByID(id string) (*Room, error) {
	return scanRoom(t.tx.QueryRow(`SELECT `+roomCols+` FROM rooms WHERE id = ?`, id))
}

// RoomByCode loads one room by its join code.
func (t *Tx) RoomByCode(code string) (*Room, error) {
	return scanRoom(t.tx.QueryRow(`SELECT `+roomCols+` FROM rooms WHERE code = ?`, code))
}

// ListOpenRooms returns rooms in waiting or playing state, newest first.
func (t *Tx) ListOpenRooms() ([]*Room, error) {
	rows, err := t.tx.Query(`SELECT ` + roomCols + ` FROM rooms WHERE status IN ('waiting', 'playing') ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Room
	for rows.Next() {
		var r Room
		if err := rows.Scan(&r.ID, &r.Code, &r.HostID, &r.Name, &r.MaxSeats, &r.SmallBlind,
			&r.BigBlind, &r.BuyIn, &r.StartingStack, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// SetRoomStatus updates a room's lifecycle status.
func (t *Tx) SetRoomStatus(id, status string) error {
	_, err := t.tx.Exec(`UPDATE rooms SET status = ? WHERE id = ?`, status, id)
	return err
}

// InsertSeat seats a user in a room.
func (t *Tx) InsertSeat(s *Seat) error {
	_, err := t.tx.Exec(`
		INSERT INTO room_players (room_id, user_id, name, seat, stack, hole_cards, street_bet, hand_bet,
			acted, folded, all_in, in_hand, active, ready, invested)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.RoomID, s.UserID, s.Name, s.Seat, s.Stack, s.HoleCards, s.StreetBet, s.HandBet,
		s.Acted, s.Folded, s.AllIn, s.InHand, s.Active, s.Ready, s.Invested)
	return err
}

// SeatsForRoom returns every seat row of a room ordered by seat index.
func (t *Tx) SeatsForRoom(roomID string) ([]*Seat, error) {
	rows, err := t.tx.Query(`
		SELECT room_id, user_id, name, seat, stack, hole_cards, street_bet, hand_bet,
			acted, folded, all_in, in_hand, active, ready, invested
		FROM room_players WHERE room_id = ? ORDER BY seat
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Seat
	for rows.Next() {
		var s Seat
		if err := rows.Scan(&s.RoomID, &s.UserID, &s.Name, &s.Seat, &s.Stack, &s.HoleCards,
			&s.StreetBet, &s.HandBet, &s.Acted, &s.Folded, &s.AllIn, &s.InHand,
			&s.Active, &s.Ready, &s.Invested); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// UpdateSeat persists a seat's mutable game state.
func (t *Tx) UpdateSeat(s *Seat) error {
	_, err := t.tx.Exec(`
		UPDATE room_players
		SET stack = ?, hole_cards = ?, street_bet = ?, hand_bet = ?, acted = ?,
			folded = ?, all_in = ?, in_hand = ?, active = ?, ready = ?, invested = ?
		WHERE room_id = ? AND user_id = ?
	`, s.Stack, s.HoleCards, s.StreetBet, s.HandBet, s.Acted,
		s.Folded, s.AllIn, s.InHand, s.Active, s.Ready, s.Invested,
		s.RoomID, s.UserID)
	return err
}

// DeleteSeat frees a seat.
func (t *Tx) DeleteSeat(roomID, userID string) error {
	_, err := t.tx.Exec(`DELETE FROM room_players WHERE room_id = ? AND user_id = ?`, roomID, userID)
	return err
}

// InsertHand stores a freshly initialized hand.
func (t *Tx) InsertHand(h *Hand) error {
	_, err := t.tx.Exec(`
		INSERT INTO hands (id, room_id, dealer_seat, turn_seat, phase, community, deck, pot, current_bet, deadline, winner_id, win_label)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, h.ID, h.RoomID, h.DealerSeat, h.TurnSeat, h.Phase, h.Community, h.Deck,
		h.Pot, h.CurrentBet, h.Deadline, h.WinnerID, h.WinLabel)
	return err
}

const handCols = `id, room_id, dealer_seat, turn_seat, phase, community, deck, pot, current_bet, deadline, winner_id, win_label`

func scanHand(row *sql.Row) (*Hand, error) {
	var h Hand
	err := row.Scan(&h.ID, &h.RoomID, &h.DealerSeat, &h.TurnSeat, &h.Phase, &h.Community,
		&h.Deck, &h.Pot, &h.CurrentBet, &h.Deadline, &h.WinnerID, &h.WinLabel)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// OpenHand returns the room's single unfinished hand, or ErrNotFound.
func (t *Tx) OpenHand(roomID string) (*Hand, error) {
	return scanHand(t.tx.QueryRow(`SELECT `+handCols+` FROM hands WHERE room_id = ? AND phase != 'finished'`, roomID))
}

// LatestHand returns the room's most recent hand regardless of phase. Hands
// are ordered by insertion, not created_at, which only has second resolution.
func (t *Tx) LatestHand(roomID string) (*Hand, error) {
	return scanHand(t.tx.QueryRow(`SELECT `+handCols+` FROM hands WHERE room_id = ? ORDER BY rowid DESC LIMIT 1`, roomID))
}

// UpdateHand persists a hand's mutable state.
func (t *Tx) UpdateHand(h *Hand) error {
	_, err := t.tx.Exec(`
		UPDATE hands
		SET dealer_seat = ?, turn_seat = ?, phase = ?, community = ?, deck = ?,
			pot = ?, current_bet = ?, deadline = ?, winner_id = ?, win_label = ?
		WHERE id = ?
	`, h.DealerSeat, h.TurnSeat, h.Phase, h.Community, h.Deck,
		h.Pot, h.CurrentBet, h.Deadline, h.WinnerID, h.WinLabel, h.ID)
	return err
}

// RoomsWithExpiredTurns returns ids of playing rooms whose open hand's turn
// deadline elapsed; the sweep visits each in its own transaction.
func (t *Tx) RoomsWithExpiredTurns(now time.Time) ([]string, error) {
	rows, err := t.tx.Query(`
		SELECT room_id FROM hands
		WHERE phase != 'finished' AND deadline IS NOT NULL AND deadline < ?
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// InsertAction appends one entry to a hand's betting history.
func (t *Tx) InsertAction(a *Action) error {
	_, err := t.tx.Exec(`
		INSERT INTO actions (hand_id, room_id, user_id, kind, amount)
		VALUES (?, ?, ?, ?, ?)
	`, a.HandID, a.RoomID, a.UserID, a.Kind, a.Amount)
	return err
}

// ActionsForHand returns a hand's betting history in order.
func (t *Tx) ActionsForHand(handID string) ([]*Action, error) {
	rows, err := t.tx.Query(`
		SELECT id, hand_id, room_id, user_id, kind, amount, created_at
		FROM actions WHERE hand_id = ? ORDER BY id
	`, handID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Action
	for rows.Next() {
		var a Action
		if err := rows.Scan(&a.ID, &a.HandID, &a.RoomID, &a.UserID, &a.Kind, &a.Amount, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// InsertChat appends a chat entry; pass a nil userID for system messages.
func (t *Tx) InsertChat(roomID string, userID *string, body, phase string) error {
	var uid sql.NullString
	if userID != nil {
		uid = sql.NullString{String: *userID, Valid: true}
	}
	_, err := t.tx.Exec(`
		INSERT INTO chat_messages (room_id, user_id, body, phase)
		VALUES (?, ?, ?, ?)
	`, roomID, uid, body, phase)
	return err
}

// ChatForRoom returns the most recent limit messages in chronological order.
func (t *Tx) ChatForRoom(roomID string, limit int) ([]*ChatMessage, error) {
	rows, err := t.tx.Query(`
		SELECT id, room_id, user_id, body, phase, created_at FROM (
			SELECT id, room_id, user_id, body, phase, created_at
			FROM chat_messages WHERE room_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id
	`, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.RoomID, &m.UserID, &m.Body, &m.Phase, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// EnsureAccount creates a ledger account row if the user has none yet.
func (t *Tx) EnsureAccount(userID, name string) error {
	_, err := t.tx.Exec(`
		INSERT INTO players (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, userID, name)
	return err
}

// AccountBalance returns the spendable and bonus balances of a user. A user
// without an account has zero of both.
func (t *Tx) AccountBalance(userID string) (spendable, bonus int64, err error) {
	err = t.tx.QueryRow(`SELECT balance, bonus FROM players WHERE id = ?`, userID).Scan(&spendable, &bonus)
	if err == sql.ErrNoRows {
		return 0, 0, nil
	}
	return spendable, bonus, err
}

// Debit removes amount from a user's combined balance, consuming bonus
// tokens first, and records the transaction. Fails with
// ErrInsufficientFunds when the combined balance is short.
func (t *Tx) Debit(userID string, amount int64, txType, description string) error {
	spendable, bonus, err := t.AccountBalance(userID)
	if err != nil {
		return err
	}
	if spendable+bonus < amount {
		return ErrInsufficientFunds
	}

	fromBonus := amount
	if fromBonus > bonus {
		fromBonus = bonus
	}
	fromSpendable := amount - fromBonus

	_, err = t.tx.Exec(`UPDATE players SET balance = balance - ?, bonus = bonus - ? WHERE id = ?`,
		fromSpendable, fromBonus, userID)
	if err != nil {
		return err
	}
	return t.recordTransaction(userID, -amount, txType, description)
}

// Credit adds amount to a user's spendable balance and records the
// transaction, creating the account if needed.
func (t *Tx) Credit(userID string, amount int64, txType, description string) error {
	_, err := t.tx.Exec(`
		INSERT INTO players (id, name, balance) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET balance = balance + ?
	`, userID, userID, amount, amount)
	if err != nil {
		return err
	}
	return t.recordTransaction(userID, amount, txType, description)
}

// GrantBonus adds promotional tokens to a user's bonus balance. Bonus tokens
// are consumed before spendable ones on debit.
func (t *Tx) GrantBonus(userID string, amount int64, description string) error {
	_, err := t.tx.Exec(`
		INSERT INTO players (id, name, bonus) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET bonus = bonus + ?
	`, userID, userID, amount, amount)
	if err != nil {
		return err
	}
	return t.recordTransaction(userID, amount, "bonus_grant", description)
}

func (t *Tx) recordTransaction(userID string, amount int64, txType, description string) error {
	_, err := t.tx.Exec(`
		INSERT INTO transactions (player_id, amount, type, description)
		VALUES (?, ?, ?, ?)
	`, userID, amount, txType, description)
	return err
}
