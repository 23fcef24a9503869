package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cardtable/pokerroom/pkg/poker"
	"github.com/cardtable/pokerroom/internal/db"
)

// Act validates and applies one betting action for the caller. The load,
// validation, mutation and persist all happen in a single transaction, so
// two concurrent actions cannot both be accepted as the current turn.
func (s *Server) Act(ctx context.Context, user UserInfo, roomID, kindStr string, amount int64) (*RoomView, error) {
	kind, err := poker.ParseActionKind(kindStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	if amount < 0 {
		return nil, fmt.Errorf("%w: amount cannot be negative", ErrValidation)
	}

	var view *RoomView
	err = s.db.InTx(func(tx *db.Tx) error {
		room, err := tx.RoomByID(roomID)
		if errors.Is(err, db.ErrNotFound) {
			return ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		if room.Status != RoomPlaying {
			return ErrGameNotFound
		}

		// Enforce any elapsed turn deadline before serving the action, so a
		// stalled seat cannot block the hand between sweep passes.
		if err := s.expireTurn(tx, room); err != nil {
			return err
		}

		handRow, err := tx.OpenHand(roomID)
		if errors.Is(err, db.ErrNotFound) {
			return ErrGameNotFound
		}
		if err != nil {
			return err
		}
		hand, err := handFromRow(handRow)
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

		res, err := hand.ApplyAction(seats, user.ID, kind, amount, s.now())
		if err != nil {
			return err
		}
		if err := tx.InsertAction(&db.Action{
			HandID: hand.ID,
			RoomID: roomID,
			UserID: user.ID,
			Kind:   res.Kind.String(),
			Amount: actionAmount(res),
		}); err != nil {
			return err
		}
		s.log.Debugf("room %s hand %s: %s %s (paid=%d pot=%d phase=%s turn=%d)",
			roomID, hand.ID, user.ID, res.Kind, res.Paid, hand.Pot, hand.Phase, hand.TurnSeat)

		if res.FoldWin || res.ShowdownDue {
			if err := s.finishHand(tx, room, hand, seats); err != nil {
				return err
			}
		} else {
			if err := s.persistHand(tx, hand); err != nil {
				return err
			}
			if err := storeSeats(tx, roomID, seats); err != nil {
				return err
			}
		}

		view, err = s.buildRoomView(tx, room, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// actionAmount picks the amount recorded in the audit log: the target for
// raises, the chips moved otherwise.
func actionAmount(res *poker.ActionResult) int64 {
	if res.RaisedTo > 0 {
		return res.RaisedTo
	}
	return res.Paid
}

// startHand initializes and persists the next hand of a room. Seats are the
// room's current engine seats; prevDealer is the previous hand's dealer seat
// (-1 for the first hand).
func (s *Server) startHand(tx *db.Tx, room *db.Room, seats []*poker.Seat, prevDealer int) error {
	rng, release := s.shuffleRNG()
	hand, err := poker.NewHand(uuid.NewString(), room.ID, seats, prevDealer,
		room.SmallBlind, room.BigBlind, rng, s.now())
	release()
	if err != nil {
		return err
	}

	row, err := rowFromHand(hand)
	if err != nil {
		return err
	}
	if err := tx.InsertHand(row); err != nil {
		return err
	}
	if err := storeSeats(tx, room.ID, seats); err != nil {
		return err
	}
	s.log.Debugf("room %s: new hand %s (dealer=%d turn=%d pot=%d)",
		room.ID, hand.ID, hand.DealerSeat, hand.TurnSeat, hand.Pot)
	if err := tx.InsertChat(room.ID, nil, "New hand dealt", hand.Phase.String()); err != nil {
		return err
	}
	// Blinds can put every seat all-in; such a hand arrives already run out
	// and must be settled here or nobody could ever advance it.
	if hand.Phase == poker.PhaseFinished {
		return s.finishHand(tx, room, hand, seats)
	}
	return nil
}

// persistHand writes a mutated hand back to its row.
func (s *Server) persistHand(tx *db.Tx, hand *poker.Hand) error {
	row, err := rowFromHand(hand)
	if err != nil {
		return err
	}
	return tx.UpdateHand(row)
}

// finishHand settles a terminal hand: awards the pot(s), records the outcome
// in chat, eliminates broke seats, frees vacated ones, and either deals the
// next hand or finishes the room with a cash-out of every surviving stack.
func (s *Server) finishHand(tx *db.Tx, room *db.Room, hand *poker.Hand, seats []*poker.Seat) error {
	stl := hand.Settle(seats)

	if stl.FoldWin {
		msg := fmt.Sprintf("%s wins %d uncontested", userName(seats, stl.WinnerID), stl.Payouts[winnerSeat(seats, stl)])
		if err := tx.InsertChat(room.ID, nil, msg, hand.Phase.String()); err != nil {
			return err
		}
	} else {
		var reveal []string
		for _, sd := range stl.Revealed {
			reveal = append(reveal, fmt.Sprintf("%s shows %s (%s)",
				userName(seats, sd.UserID), cardsString(sd.HoleCards), sd.Value.Description()))
		}
		if err := tx.InsertChat(room.ID, nil, "Showdown: "+strings.Join(reveal, "; "), hand.Phase.String()); err != nil {
			return err
		}
		msg := fmt.Sprintf("%s wins %d with %s", userName(seats, stl.WinnerID),
			stl.Payouts[winnerSeat(seats, stl)], stl.WinLabel)
		if err := tx.InsertChat(room.ID, nil, msg, hand.Phase.String()); err != nil {
			return err
		}
	}
	s.log.Infof("room %s hand %s settled: winner=%s label=%q payouts=%v",
		room.ID, hand.ID, stl.WinnerID, stl.WinLabel, stl.Payouts)

	if err := s.persistHand(tx, hand); err != nil {
		return err
	}

	// Seats that ran out of chips are eliminated; seats vacated mid-hand
	// were already cashed out on leave. Both are removed now.
	survivors := make([]*poker.Seat, 0, len(seats))
	for _, seat := range seats {
		if seat.Active && seat.Stack == 0 {
			seat.Active = false
			if err := tx.InsertChat(room.ID, nil, seatName(seat)+" was eliminated", ""); err != nil {
				return err
			}
		}
		if !seat.Active {
			// A mid-hand leaver may have been refunded an uncalled bet during
			// settlement; that remainder follows the player out.
			if seat.Stack > 0 {
				if err := tx.Credit(seat.UserID, seat.Stack, TxCashout, "left room: "+room.Name); err != nil {
					return err
				}
			}
			if err := tx.DeleteSeat(room.ID, seat.UserID); err != nil {
				return err
			}
			continue
		}
		survivors = append(survivors, seat)
	}
	if err := storeSeats(tx, room.ID, survivors); err != nil {
		return err
	}

	if len(survivors) >= 2 {
		return s.startHand(tx, room, survivors, hand.DealerSeat)
	}

	// Last player standing: cash everyone out and finish the room.
	for _, seat := range survivors {
		if seat.Stack > 0 {
			if err := tx.Credit(seat.UserID, seat.Stack, TxCashout, "room finished: "+room.Name); err != nil {
				return err
			}
		}
		if err := tx.DeleteSeat(room.ID, seat.UserID); err != nil {
			return err
		}
	}
	if err := tx.InsertChat(room.ID, nil, "Game over", ""); err != nil {
		return err
	}
	s.log.Infof("room %s finished", room.ID)
	return tx.SetRoomStatus(room.ID, RoomFinished)
}

// winnerSeat is the seat index of the named winner. With side pots the
// payout map can hold other seats too; the chat line must report the
// winner's own share.
func winnerSeat(seats []*poker.Seat, stl *poker.Settlement) int {
	if seat := poker.SeatByUser(seats, stl.WinnerID); seat != nil {
		return seat.Index
	}
	return -1
}

func userName(seats []*poker.Seat, userID string) string {
	if seat := poker.SeatByUser(seats, userID); seat != nil {
		return seatName(seat)
	}
	return userID
}

func cardsString(cards []poker.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// expireTurn force-checks or force-folds the current turn seat if its
// deadline elapsed, inside the caller's transaction.
func (s *Server) expireTurn(tx *db.Tx, room *db.Room) error {
	handRow, err := tx.OpenHand(room.ID)
	if errors.Is(err, db.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	hand, err := handFromRow(handRow)
	if err != nil {
		return err
	}
	now := s.now()
	if !hand.TimedOut(now) {
		return nil
	}

	rows, err := tx.SeatsForRoom(room.ID)
	if err != nil {
		return err
	}
	seats, err := seatsFromRows(rows)
	if err != nil {
		return err
	}

	kind, userID := hand.ForceTimeoutAction(seats)
	if userID == "" {
		return nil
	}
	res, err := hand.ApplyAction(seats, userID, kind, 0, now)
	if err != nil {
		return fmt.Errorf("force %s for %s: %w", kind, userID, err)
	}
	if err := tx.InsertAction(&db.Action{
		HandID: hand.ID,
		RoomID: room.ID,
		UserID: userID,
		Kind:   res.Kind.String(),
		Amount: res.Paid,
	}); err != nil {
		return err
	}
	verb := "folded"
	if kind == poker.ActionCheck {
		verb = "checked"
	}
	if err := tx.InsertChat(room.ID, nil,
		fmt.Sprintf("%s timed out and was %s", userName(seats, userID), verb), hand.Phase.String()); err != nil {
		return err
	}
	s.log.Infof("room %s hand %s: turn deadline elapsed, forced %s for %s", room.ID, hand.ID, kind, userID)

	if res.FoldWin || res.ShowdownDue {
		return s.finishHand(tx, room, hand, seats)
	}
	if err := s.persistHand(tx, hand); err != nil {
		return err
	}
	return storeSeats(tx, room.ID, seats)
}

// SweepExpiredTurns enforces turn deadlines across all playing rooms. It is
// called by the periodic sweep job; each room is handled in its own
// transaction so one poisoned room cannot wedge the sweep.
func (s *Server) SweepExpiredTurns(ctx context.Context) {
	var due []string
	err := s.db.InTx(func(tx *db.Tx) error {
		var err error
		due, err = tx.RoomsWithExpiredTurns(s.now())
		return err
	})
	if err != nil {
		s.log.Errorf("sweep: list expired turns: %v", err)
		return
	}

	for _, roomID := range due {
		if ctx.Err() != nil {
			return
		}
		err := s.db.InTx(func(tx *db.Tx) error {
			room, err := tx.RoomByID(roomID)
			if err != nil {
				return err
			}
			return s.expireTurn(tx, room)
		})
		if err != nil {
			s.log.Errorf("sweep: room %s: %v", roomID, err)
		}
	}
}
