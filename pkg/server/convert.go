package server

import (
	"database/sql"
	"fmt"

	"github.com/cardtable/pokerroom/pkg/poker"
	"github.com/cardtable/pokerroom/internal/db"
)

// seatFromRow inflates a stored seat into the engine's representation.
func seatFromRow(row *db.Seat) (*poker.Seat, error) {
	cards, err := poker.UnmarshalCards(row.HoleCards)
	if err != nil {
		return nil, fmt.Errorf("seat %d hole cards: %w", row.Seat, err)
	}
	return &poker.Seat{
		UserID:    row.UserID,
		Name:      row.Name,
		Index:     row.Seat,
		Stack:     row.Stack,
		HoleCards: cards,
		StreetBet: row.StreetBet,
		HandBet:   row.HandBet,
		Acted:     row.Acted,
		Folded:    row.Folded,
		AllIn:     row.AllIn,
		InHand:    row.InHand,
		Active:    row.Active,
		Ready:     row.Ready,
		Invested:  row.Invested,
	}, nil
}

// seatsFromRows inflates all seat rows of a room.
func seatsFromRows(rows []*db.Seat) ([]*poker.Seat, error) {
	seats := make([]*poker.Seat, 0, len(rows))
	for _, row := range rows {
		seat, err := seatFromRow(row)
		if err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}
	return seats, nil
}

// storeSeats writes the mutated engine seats back over their rows.
func storeSeats(tx *db.Tx, roomID string, seats []*poker.Seat) error {
	for _, seat := range seats {
		cards, err := poker.MarshalCards(seat.HoleCards)
		if err != nil {
			return err
		}
		row := &db.Seat{
			RoomID:    roomID,
			UserID:    seat.UserID,
			Name:      seat.Name,
			Seat:      seat.Index,
			Stack:     seat.Stack,
			HoleCards: cards,
			StreetBet: seat.StreetBet,
			HandBet:   seat.HandBet,
			Acted:     seat.Acted,
			Folded:    seat.Folded,
			AllIn:     seat.AllIn,
			InHand:    seat.InHand,
			Active:    seat.Active,
			Ready:     seat.Ready,
			Invested:  seat.Invested,
		}
		if err := tx.UpdateSeat(row); err != nil {
			return err
		}
	}
	return nil
}

// handFromRow inflates a stored hand, including the carried deck remainder.
func handFromRow(row *db.Hand) (*poker.Hand, error) {
	phase, err := poker.ParsePhase(row.Phase)
	if err != nil {
		return nil, err
	}
	community, err := poker.UnmarshalCards(row.Community)
	if err != nil {
		return nil, fmt.Errorf("hand community: %w", err)
	}
	deckCards, err := poker.UnmarshalCards(row.Deck)
	if err != nil {
		return nil, fmt.Errorf("hand deck: %w", err)
	}
	h := &poker.Hand{
		ID:         row.ID,
		RoomID:     row.RoomID,
		DealerSeat: row.DealerSeat,
		TurnSeat:   row.TurnSeat,
		Phase:      phase,
		Community:  community,
		Deck:       poker.NewDeckFromCards(deckCards),
		Pot:        row.Pot,
		CurrentBet: row.CurrentBet,
		WinnerID:   row.WinnerID,
		WinLabel:   row.WinLabel,
	}
	if row.Deadline.Valid {
		h.Deadline = row.Deadline.Time
	}
	return h, nil
}

// rowFromHand serializes a hand for storage.
func rowFromHand(h *poker.Hand) (*db.Hand, error) {
	community, err := poker.MarshalCards(h.Community)
	if err != nil {
		return nil, err
	}
	var remaining []poker.Card
	if h.Deck != nil {
		remaining = h.Deck.Remaining()
	}
	deckJSON, err := poker.MarshalCards(remaining)
	if err != nil {
		return nil, err
	}
	row := &db.Hand{
		ID:         h.ID,
		RoomID:     h.RoomID,
		DealerSeat: h.DealerSeat,
		TurnSeat:   h.TurnSeat,
		Phase:      h.Phase.String(),
		Community:  community,
		Deck:       deckJSON,
		Pot:        h.Pot,
		CurrentBet: h.CurrentBet,
		WinnerID:   h.WinnerID,
		WinLabel:   h.WinLabel,
	}
	if !h.Deadline.IsZero() {
		row.Deadline = sql.NullTime{Time: h.Deadline, Valid: true}
	}
	return row, nil
}
