package poker

import (
	"time"
)

// ActionResult describes what a validated action did to the hand.
type ActionResult struct {
	Kind        ActionKind
	Seat        int
	Paid        int64 // chips moved from the actor's stack into the pot
	RaisedTo    int64 // final bet-to-call after a raise/all-in raise
	RoundClosed bool  // the betting street completed on this action
	Phase       Phase // phase after the action was applied
	ShowdownDue bool  // river betting closed (or board ran out): settle now
	FoldWin     bool  // everyone else folded: settle without comparing hands
}

// ApplyAction validates an action against the current hand state and applies
// it. On success the turn pointer, bets, pot and phase are all updated; the
// caller persists the mutated hand and seats in the same transaction.
func (h *Hand) ApplyAction(seats []*Seat, userID string, kind ActionKind, amount int64, now time.Time) (*ActionResult, error) {
	if !h.Phase.IsBetting() {
		return nil, ErrInvalidPhase
	}
	seat := SeatByUser(seats, userID)
	if seat == nil || !seat.InHand {
		return nil, ErrNotInHand
	}
	if seat.Folded {
		return nil, ErrAlreadyFolded
	}
	if seat.Index != h.TurnSeat {
		return nil, ErrNotYourTurn
	}

	res := &ActionResult{Kind: kind, Seat: seat.Index}
	reopened := false

	switch kind {
	case ActionFold:
		seat.Folded = true
		seat.Acted = true
		if CountSeats(seats, (*Seat).InShowdown) == 1 {
			h.Phase = PhaseFinished
			res.Phase = h.Phase
			res.FoldWin = true
			return res, nil
		}

	case ActionCheck:
		if seat.StreetBet != h.CurrentBet {
			return nil, ErrBetOwed
		}
		seat.Acted = true

	case ActionCall:
		owed := h.CurrentBet - seat.StreetBet
		if owed < 0 {
			owed = 0
		}
		res.Paid = h.pay(seat, owed)
		seat.Acted = true

	case ActionRaise:
		if amount <= 0 {
			return nil, ErrBadAmount
		}
		// Minimum raise is a doubling of the current bet. This mirrors the
		// platform's historical rule rather than the formal bet-plus-one-bet
		// casino rule; clients depend on it.
		target := amount
		if min := 2 * h.CurrentBet; target < min {
			target = min
		}
		res.Paid = h.pay(seat, target-seat.StreetBet)
		h.CurrentBet = target
		res.RaisedTo = target
		reopened = true
		h.reopenRound(seats, seat.Index)

	case ActionAllIn:
		res.Paid = h.pay(seat, seat.Stack)
		if seat.StreetBet > h.CurrentBet {
			h.CurrentBet = seat.StreetBet
			res.RaisedTo = seat.StreetBet
			reopened = true
			h.reopenRound(seats, seat.Index)
		} else {
			seat.Acted = true
		}

	default:
		return nil, ErrInvalidPhase
	}

	h.Deadline = now.Add(TurnTimeout)

	if !reopened && kind != ActionFold && h.roundComplete(seats) {
		return h.closeRound(seats, res, now)
	}
	if kind == ActionFold && h.roundComplete(seats) {
		return h.closeRound(seats, res, now)
	}

	h.TurnSeat = NextActiveSeat(seats, seat.Index, (*Seat).CanAct)
	if h.TurnSeat == -1 {
		// Nobody left who can act (everyone else all-in or folded).
		return h.closeRound(seats, res, now)
	}
	res.Phase = h.Phase
	return res, nil
}

// FoldOutOfTurn folds a seat regardless of the turn pointer, used when a
// player leaves mid-hand. Returns nil when the seat has no live hand. The
// fold may close the street or end the hand just like an in-turn fold.
func (h *Hand) FoldOutOfTurn(seats []*Seat, userID string, now time.Time) (*ActionResult, error) {
	if !h.Phase.IsBetting() {
		return nil, nil
	}
	seat := SeatByUser(seats, userID)
	if seat == nil || !seat.InHand || seat.Folded {
		return nil, nil
	}
	if seat.Index == h.TurnSeat {
		return h.ApplyAction(seats, userID, ActionFold, 0, now)
	}

	seat.Folded = true
	res := &ActionResult{Kind: ActionFold, Seat: seat.Index}
	if CountSeats(seats, (*Seat).InShowdown) == 1 {
		h.Phase = PhaseFinished
		res.Phase = h.Phase
		res.FoldWin = true
		return res, nil
	}
	if h.roundComplete(seats) {
		return h.closeRound(seats, res, now)
	}
	res.Phase = h.Phase
	return res, nil
}

// pay moves up to amount chips from the seat into the pot, capped by the
// stack, and marks short payments as all-in.
func (h *Hand) pay(s *Seat, amount int64) int64 {
	if amount > s.Stack {
		amount = s.Stack
	}
	if amount < 0 {
		amount = 0
	}
	s.Stack -= amount
	s.StreetBet += amount
	s.HandBet += amount
	h.Pot += amount
	if s.Stack == 0 {
		s.AllIn = true
	}
	return amount
}

// reopenRound marks a raise: every other seat that can still act owes a
// response before the street can close.
func (h *Hand) reopenRound(seats []*Seat, raiser int) {
	for _, s := range seats {
		if s == nil || !s.CanAct() {
			continue
		}
		s.Acted = s.Index == raiser
	}
	raiserSeat := SeatAt(seats, raiser)
	if raiserSeat != nil && raiserSeat.AllIn {
		raiserSeat.Acted = true
	}
}

// roundComplete reports whether the current street is closed: every seat that
// can still act has acted and matched the bet-to-call. All-in and folded
// seats are exempt.
func (h *Hand) roundComplete(seats []*Seat) bool {
	for _, s := range seats {
		if s == nil || !s.CanAct() {
			continue
		}
		if !s.Acted || s.StreetBet != h.CurrentBet {
			return false
		}
	}
	return true
}

// closeRound resets street bets and advances to the next phase, dealing the
// appropriate community cards. When fewer than two seats can still act the
// remaining streets run out immediately; reaching the end of the river makes
// the showdown due.
func (h *Hand) closeRound(seats []*Seat, res *ActionResult, now time.Time) (*ActionResult, error) {
	res.RoundClosed = true
	for _, s := range seats {
		if s == nil {
			continue
		}
		s.StreetBet = 0
		s.Acted = false
	}
	h.CurrentBet = 0

	advance := func() error {
		switch h.Phase {
		case PhasePreflop:
			if err := h.dealCommunity(3); err != nil {
				return err
			}
			h.Phase = PhaseFlop
		case PhaseFlop:
			if err := h.dealCommunity(1); err != nil {
				return err
			}
			h.Phase = PhaseTurn
		case PhaseTurn:
			if err := h.dealCommunity(1); err != nil {
				return err
			}
			h.Phase = PhaseRiver
		case PhaseRiver:
			h.Phase = PhaseFinished
			res.ShowdownDue = true
		}
		return nil
	}

	if err := advance(); err != nil {
		return nil, err
	}

	// With one or zero seats able to act there is no more betting; run the
	// board out to the river and settle.
	for CountSeats(seats, (*Seat).CanAct) < 2 && h.Phase != PhaseFinished {
		if err := advance(); err != nil {
			return nil, err
		}
	}

	if h.Phase == PhaseFinished {
		res.Phase = h.Phase
		res.ShowdownDue = true
		return res, nil
	}

	h.TurnSeat = NextActiveSeat(seats, h.DealerSeat, (*Seat).CanAct)
	h.Deadline = now.Add(TurnTimeout)
	res.Phase = h.Phase
	return res, nil
}

// dealCommunity reveals n cards from the carried deck.
func (h *Hand) dealCommunity(n int) error {
	for i := 0; i < n; i++ {
		card, ok := h.Deck.Draw()
		if !ok {
			return ErrInvalidPhase
		}
		h.Community = append(h.Community, card)
	}
	return nil
}

// TimedOut reports whether the pending turn's deadline has elapsed.
func (h *Hand) TimedOut(now time.Time) bool {
	return h.Phase.IsBetting() && !h.Deadline.IsZero() && now.After(h.Deadline)
}

// ForceTimeoutAction picks the action applied on behalf of a seat whose turn
// deadline elapsed: a check when no bet is owed, otherwise a fold.
func (h *Hand) ForceTimeoutAction(seats []*Seat) (ActionKind, string) {
	seat := SeatAt(seats, h.TurnSeat)
	if seat == nil {
		return ActionCheck, ""
	}
	if seat.StreetBet == h.CurrentBet {
		return ActionCheck, seat.UserID
	}
	return ActionFold, seat.UserID
}
