package server

import (
	"context"
	"errors"
	"time"

	"github.com/cardtable/pokerroom/pkg/poker"
	"github.com/cardtable/pokerroom/internal/db"
)

const chatViewLimit = 50

// RoomView is the full per-viewer snapshot of a room. Hole cards other than
// the viewer's own are redacted unless the hand reached showdown.
type RoomView struct {
	ID         string     `json:"id"`
	Code       string     `json:"code"`
	Name       string     `json:"name"`
	HostID     string     `json:"host_id"`
	Status     string     `json:"status"`
	MaxSeats   int        `json:"max_seats"`
	SmallBlind int64      `json:"small_blind"`
	BigBlind   int64      `json:"big_blind"`
	BuyIn      int64      `json:"buy_in"`
	Seats      []SeatView `json:"seats"`
	Hand       *HandView  `json:"hand,omitempty"`
	Chat       []ChatView `json:"chat"`
}

// SeatView is one seat as shown to a particular viewer.
type SeatView struct {
	Seat      int          `json:"seat"`
	UserID    string       `json:"user_id"`
	Name      string       `json:"name"`
	Stack     int64        `json:"stack"`
	StreetBet int64        `json:"street_bet"`
	Folded    bool         `json:"folded"`
	AllIn     bool         `json:"all_in"`
	InHand    bool         `json:"in_hand"`
	Ready     bool         `json:"ready"`
	IsTurn    bool         `json:"is_turn"`
	IsDealer  bool         `json:"is_dealer"`
	HoleCards []poker.Card `json:"hole_cards,omitempty"`
}

// HandView is the shared hand state plus the viewer's turn deadline.
type HandView struct {
	ID           string       `json:"id"`
	Phase        string       `json:"phase"`
	Community    []poker.Card `json:"community"`
	Pot          int64        `json:"pot"`
	CurrentBet   int64        `json:"current_bet"`
	TurnSeat     int          `json:"turn_seat"`
	DealerSeat   int          `json:"dealer_seat"`
	TurnDeadline *time.Time   `json:"turn_deadline,omitempty"`
	WinnerID     string       `json:"winner_id,omitempty"`
	WinLabel     string       `json:"win_label,omitempty"`
	Actions      []ActionView `json:"actions"`
}

// ActionView is one audit-log entry of a hand.
type ActionView struct {
	UserID string    `json:"user_id"`
	Kind   string    `json:"kind"`
	Amount int64     `json:"amount"`
	At     time.Time `json:"at"`
}

// ChatView is one chat message; system messages have an empty user id.
type ChatView struct {
	UserID string    `json:"user_id,omitempty"`
	Body   string    `json:"body"`
	Phase  string    `json:"phase,omitempty"`
	At     time.Time `json:"at"`
}

// RoomSummary is the lobby listing entry.
type RoomSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Host       string `json:"host"`
	Status     string `json:"status"`
	Players    int    `json:"players"`
	MaxSeats   int    `json:"max_seats"`
	SmallBlind int64  `json:"small_blind"`
	BigBlind   int64  `json:"big_blind"`
	BuyIn      int64  `json:"buy_in"`
}

// Balance is a user's ledger standing.
type Balance struct {
	Spendable int64 `json:"spendable"`
	Bonus     int64 `json:"bonus"`
	Total     int64 `json:"total"`
}

// GetRoom returns the viewer-specific snapshot of a room.
func (s *Server) GetRoom(ctx context.Context, user UserInfo, roomID string) (*RoomView, error) {
	var view *RoomView
	err := s.db.InTx(func(tx *db.Tx) error {
		room, err := tx.RoomByID(roomID)
		if errors.Is(err, db.ErrNotFound) {
			return ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		view, err = s.buildRoomView(tx, room, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ListRooms returns the open-room lobby listing.
func (s *Server) ListRooms(ctx context.Context) ([]RoomSummary, error) {
	var out []RoomSummary
	err := s.db.InTx(func(tx *db.Tx) error {
		rooms, err := tx.ListOpenRooms()
		if err != nil {
			return err
		}
		for _, r := range rooms {
			rows, err := tx.SeatsForRoom(r.ID)
			if err != nil {
				return err
			}
			players := 0
			host := r.HostID
			for _, row := range rows {
				if row.Active {
					players++
				}
				if row.UserID == r.HostID && row.Name != "" {
					host = row.Name
				}
			}
			out = append(out, RoomSummary{
				ID:         r.ID,
				Name:       r.Name,
				Host:       host,
				Status:     r.Status,
				Players:    players,
				MaxSeats:   r.MaxSeats,
				SmallBlind: r.SmallBlind,
				BigBlind:   r.BigBlind,
				BuyIn:      r.BuyIn,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetBalance returns the caller's ledger standing, creating the account row
// lazily so first-time users see zeros instead of an error.
func (s *Server) GetBalance(ctx context.Context, user UserInfo) (*Balance, error) {
	var bal Balance
	err := s.db.InTx(func(tx *db.Tx) error {
		spendable, bonus, err := tx.AccountBalance(user.ID)
		if err != nil {
			return err
		}
		bal = Balance{Spendable: spendable, Bonus: bonus, Total: spendable + bonus}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &bal, nil
}

// buildRoomView assembles the per-viewer snapshot inside the caller's
// transaction, so an action's response reflects exactly the state it
// committed.
func (s *Server) buildRoomView(tx *db.Tx, room *db.Room, viewerID string) (*RoomView, error) {
	rows, err := tx.SeatsForRoom(room.ID)
	if err != nil {
		return nil, err
	}
	seats, err := seatsFromRows(rows)
	if err != nil {
		return nil, err
	}

	view := &RoomView{
		ID:         room.ID,
		Code:       room.Code,
		Name:       room.Name,
		HostID:     room.HostID,
		Status:     room.Status,
		MaxSeats:   room.MaxSeats,
		SmallBlind: room.SmallBlind,
		BigBlind:   room.BigBlind,
		BuyIn:      room.BuyIn,
	}

	var hand *poker.Hand
	handRow, err := tx.OpenHand(room.ID)
	if errors.Is(err, db.ErrNotFound) {
		handRow, err = tx.LatestHand(room.ID)
	}
	switch {
	case errors.Is(err, db.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		hand, err = handFromRow(handRow)
		if err != nil {
			return nil, err
		}
		hv := &HandView{
			ID:         hand.ID,
			Phase:      hand.Phase.String(),
			Community:  hand.Community,
			Pot:        hand.Pot,
			CurrentBet: hand.CurrentBet,
			TurnSeat:   hand.TurnSeat,
			DealerSeat: hand.DealerSeat,
			WinnerID:   hand.WinnerID,
			WinLabel:   hand.WinLabel,
		}
		if hv.Community == nil {
			hv.Community = []poker.Card{}
		}
		if hand.Phase.IsBetting() && !hand.Deadline.IsZero() {
			d := hand.Deadline
			hv.TurnDeadline = &d
		}
		actions, err := tx.ActionsForHand(hand.ID)
		if err != nil {
			return nil, err
		}
		hv.Actions = make([]ActionView, 0, len(actions))
		for _, a := range actions {
			hv.Actions = append(hv.Actions, ActionView{
				UserID: a.UserID,
				Kind:   a.Kind,
				Amount: a.Amount,
				At:     a.CreatedAt,
			})
		}
		view.Hand = hv
	}

	for _, seat := range seats {
		sv := SeatView{
			Seat:      seat.Index,
			UserID:    seat.UserID,
			Name:      seat.Name,
			Stack:     seat.Stack,
			StreetBet: seat.StreetBet,
			Folded:    seat.Folded,
			AllIn:     seat.AllIn,
			InHand:    seat.InHand,
			Ready:     seat.Ready,
		}
		if hand != nil {
			sv.IsTurn = hand.Phase.IsBetting() && seat.Index == hand.TurnSeat
			sv.IsDealer = seat.Index == hand.DealerSeat
			if showCards(hand, seat, viewerID) {
				sv.HoleCards = seat.HoleCards
			}
		}
		view.Seats = append(view.Seats, sv)
	}

	msgs, err := tx.ChatForRoom(room.ID, chatViewLimit)
	if err != nil {
		return nil, err
	}
	view.Chat = make([]ChatView, 0, len(msgs))
	for _, m := range msgs {
		cv := ChatView{Body: m.Body, Phase: m.Phase, At: m.CreatedAt}
		if m.UserID.Valid {
			cv.UserID = m.UserID.String
		}
		view.Chat = append(view.Chat, cv)
	}
	return view, nil
}

// showCards reports whether a seat's hole cards are visible to the viewer:
// always their own; everyone else's after a showdown settled the hand, or
// once the seat's owner left mid-hand.
func showCards(hand *poker.Hand, seat *poker.Seat, viewerID string) bool {
	if seat.UserID == viewerID {
		return len(seat.HoleCards) > 0
	}
	if !seat.Active && seat.InHand {
		return len(seat.HoleCards) > 0
	}
	return hand.Phase == poker.PhaseFinished && seat.InShowdown() && hand.WinLabel != ""
}
