package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cardtable/pokerroom/pkg/poker"
	"github.com/cardtable/pokerroom/internal/db"
)

// CreateRoomParams are the host-supplied room settings.
type CreateRoomParams struct {
	Name       string
	MaxSeats   int
	SmallBlind int64
	BigBlind   int64
	BuyIn      int64
}

// validate enforces the room-creation invariants.
func (p CreateRoomParams) validate() error {
	if p.Name == "" || len(p.Name) > 100 {
		return fmt.Errorf("%w: room name must be 1-100 characters", ErrValidation)
	}
	if p.MaxSeats < 2 || p.MaxSeats > 8 {
		return fmt.Errorf("%w: max seats must be between 2 and 8", ErrValidation)
	}
	if p.SmallBlind < 1 {
		return fmt.Errorf("%w: small blind must be at least 1", ErrValidation)
	}
	if p.BigBlind < 2*p.SmallBlind {
		return fmt.Errorf("%w: big blind must be at least twice the small blind", ErrValidation)
	}
	if p.BuyIn < 5*p.BigBlind {
		return fmt.Errorf("%w: buy-in must be at least five big blinds", ErrValidation)
	}
	return nil
}

// CreateRoom debits the host's buy-in, creates the room in waiting state and
// seats the host at index 0. The debit and the insert share one transaction,
// so a failure cannot strand tokens.
func (s *Server) CreateRoom(ctx context.Context, host UserInfo, p CreateRoomParams) (roomID, code string, err error) {
	if err := p.validate(); err != nil {
		return "", "", err
	}

	roomID = uuid.NewString()
	code, err = newJoinCode()
	if err != nil {
		return "", "", err
	}

	err = s.db.InTx(func(tx *db.Tx) error {
		if err := tx.EnsureAccount(host.ID, host.Name); err != nil {
			return err
		}
		if err := tx.Debit(host.ID, p.BuyIn, TxBuyIn, "room buy-in: "+p.Name); err != nil {
			return err
		}
		if err := tx.CreateRoom(&db.Room{
			ID:            roomID,
			Code:          code,
			HostID:        host.ID,
			Name:          p.Name,
			MaxSeats:      p.MaxSeats,
			SmallBlind:    p.SmallBlind,
			BigBlind:      p.BigBlind,
			BuyIn:         p.BuyIn,
			StartingStack: p.BuyIn,
			Status:        RoomWaiting,
		}); err != nil {
			return err
		}
		if err := tx.InsertSeat(&db.Seat{
			RoomID:    roomID,
			UserID:    host.ID,
			Name:      host.Name,
			Seat:      0,
			Stack:     p.BuyIn,
			HoleCards: "[]",
			Active:    true,
			Invested:  p.BuyIn,
		}); err != nil {
			return err
		}
		return tx.InsertChat(roomID, nil, fmt.Sprintf("%s created the room", displayName(host)), "")
	})
	if err != nil {
		return "", "", err
	}

	s.log.Infof("room %s created by %s (code %s, blinds %d/%d, buy-in %d)",
		roomID, host.ID, code, p.SmallBlind, p.BigBlind, p.BuyIn)
	return roomID, code, nil
}

// JoinRoom seats a user in a room found by id or join code, debiting the
// buy-in. Re-joining an already-seated user succeeds without re-charging. A
// playing room accepts a late joiner into an open seat; the seat enters play
// at the next hand. A user who left mid-hand cannot rejoin until that hand
// settles and releases the old seat row.
func (s *Server) JoinRoom(ctx context.Context, user UserInfo, codeOrID string) (string, error) {
	if codeOrID == "" {
		return "", fmt.Errorf("%w: missing room code", ErrValidation)
	}

	var roomID string
	err := s.db.InTx(func(tx *db.Tx) error {
		room, err := tx.RoomByID(codeOrID)
		if errors.Is(err, db.ErrNotFound) {
			room, err = tx.RoomByCode(codeOrID)
		}
		if errors.Is(err, db.ErrNotFound) {
			return ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		if room.Status != RoomWaiting && room.Status != RoomPlaying {
			return ErrRoomNotFound
		}
		roomID = room.ID

		rows, err := tx.SeatsForRoom(room.ID)
		if err != nil {
			return err
		}
		occupied := make(map[int]bool, len(rows))
		active := 0
		for _, row := range rows {
			if row.UserID == user.ID {
				if row.Active {
					// Idempotent join: already seated, nothing charged.
					return nil
				}
				// A mid-hand leaver's row survives until settlement; the
				// seat cannot be retaken until then.
				return ErrSeatSettling
			}
			occupied[row.Seat] = true
			if row.Active {
				active++
			}
		}
		if active >= room.MaxSeats {
			return ErrRoomFull
		}

		if err := tx.EnsureAccount(user.ID, user.Name); err != nil {
			return err
		}
		if err := tx.Debit(user.ID, room.BuyIn, TxBuyIn, "room buy-in: "+room.Name); err != nil {
			return err
		}

		seat := 0
		for occupied[seat] {
			seat++
		}
		if err := tx.InsertSeat(&db.Seat{
			RoomID:    room.ID,
			UserID:    user.ID,
			Name:      user.Name,
			Seat:      seat,
			Stack:     room.StartingStack,
			HoleCards: "[]",
			Active:    true,
			Invested:  room.BuyIn,
		}); err != nil {
			return err
		}
		return tx.InsertChat(room.ID, nil, fmt.Sprintf("%s joined the room", displayName(user)), "")
	})
	if err != nil {
		return "", err
	}
	return roomID, nil
}

// ToggleReady flips the caller's ready flag. Silently no-ops when the caller
// is not seated.
func (s *Server) ToggleReady(ctx context.Context, user UserInfo, roomID string) error {
	return s.db.InTx(func(tx *db.Tx) error {
		if _, err := tx.RoomByID(roomID); errors.Is(err, db.ErrNotFound) {
			return ErrRoomNotFound
		} else if err != nil {
			return err
		}
		rows, err := tx.SeatsForRoom(roomID)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if row.UserID == user.ID {
				row.Ready = !row.Ready
				return tx.UpdateSeat(row)
			}
		}
		return nil
	})
}

// StartGame transitions a waiting room to playing and deals the first hand.
// Only the host may start; every non-host seat must be ready.
func (s *Server) StartGame(ctx context.Context, user UserInfo, roomID string) error {
	err := s.db.InTx(func(tx *db.Tx) error {
		room, err := tx.RoomByID(roomID)
		if errors.Is(err, db.ErrNotFound) {
			return ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		if room.HostID != user.ID || room.Status != RoomWaiting {
			return ErrForbidden
		}

		rows, err := tx.SeatsForRoom(roomID)
		if err != nil {
			return err
		}
		seats, err := seatsFromRows(rows)
		if err != nil {
			return err
		}

		active := poker.CountSeats(seats, func(s *poker.Seat) bool { return s.Active })
		if active < 2 {
			return ErrNotEnoughPlayers
		}
		for _, seat := range seats {
			if seat.Active && seat.UserID != room.HostID && !seat.Ready {
				return ErrPlayersNotReady
			}
		}

		if err := tx.SetRoomStatus(roomID, RoomPlaying); err != nil {
			return err
		}
		if err := tx.InsertChat(roomID, nil, "The game has started", ""); err != nil {
			return err
		}
		return s.startHand(tx, room, seats, -1)
	})
	if err == nil {
		s.log.Infof("room %s started by host %s", roomID, user.ID)
	}
	return err
}

// Leave cashes the caller's remaining stack back to the ledger and vacates
// the seat. Mid-hand it counts as an automatic fold; the seat row survives
// until the hand settles so the pot layering stays intact. When the last
// active seat leaves the room finishes.
func (s *Server) Leave(ctx context.Context, user UserInfo, roomID string) error {
	return s.db.InTx(func(tx *db.Tx) error {
		room, err := tx.RoomByID(roomID)
		if errors.Is(err, db.ErrNotFound) {
			return ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		rows, err := tx.SeatsForRoom(roomID)
		if err != nil {
			return err
		}
		seats, err := seatsFromRows(rows)
		if err != nil {
			return err
		}
		seat := poker.SeatByUser(seats, user.ID)
		if seat == nil || !seat.Active {
			return nil
		}

		if seat.Stack > 0 {
			if err := tx.Credit(user.ID, seat.Stack, TxCashout, "left room: "+room.Name); err != nil {
				return err
			}
		}
		seat.Stack = 0
		seat.Ready = false
		seat.Active = false

		if err := tx.InsertChat(roomID, nil, fmt.Sprintf("%s left the room", seatName(seat)), ""); err != nil {
			return err
		}

		handRow, err := tx.OpenHand(roomID)
		switch {
		case errors.Is(err, db.ErrNotFound):
			// No hand in flight: free the seat immediately.
			if err := tx.DeleteSeat(roomID, user.ID); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			hand, err := handFromRow(handRow)
			if err != nil {
				return err
			}
			if seat.InHand && !seat.Folded {
				res, err := hand.FoldOutOfTurn(seats, user.ID, s.now())
				if err != nil {
					return err
				}
				if res != nil && (res.FoldWin || res.ShowdownDue) {
					return s.finishHand(tx, room, hand, seats)
				}
			}
			if err := s.persistHand(tx, hand); err != nil {
				return err
			}
			if err := storeSeats(tx, roomID, seats); err != nil {
				return err
			}
			return s.finishRoomIfEmpty(tx, room, seats)
		}

		if err := storeSeats(tx, roomID, remainingSeats(seats, user.ID)); err != nil {
			return err
		}
		return s.finishRoomIfEmpty(tx, room, seats)
	})
}

// finishRoomIfEmpty terminates the room when no active seats remain.
func (s *Server) finishRoomIfEmpty(tx *db.Tx, room *db.Room, seats []*poker.Seat) error {
	active := poker.CountSeats(seats, func(s *poker.Seat) bool { return s.Active })
	if active > 0 || room.Status == RoomFinished {
		return nil
	}
	s.log.Infof("room %s is empty, finishing", room.ID)
	return tx.SetRoomStatus(room.ID, RoomFinished)
}

// remainingSeats filters out a removed user's seat.
func remainingSeats(seats []*poker.Seat, userID string) []*poker.Seat {
	out := make([]*poker.Seat, 0, len(seats))
	for _, s := range seats {
		if s.UserID != userID {
			out = append(out, s)
		}
	}
	return out
}

func displayName(u UserInfo) string {
	if u.Name != "" {
		return u.Name
	}
	return u.ID
}

func seatName(s *poker.Seat) string {
	if s.Name != "" {
		return s.Name
	}
	return s.UserID
}
