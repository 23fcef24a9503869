package poker

// SeatShowdown is one revealed hand at showdown.
type SeatShowdown struct {
	Seat      int
	UserID    string
	HoleCards []Card
	Value     HandValue
}

// Settlement is the outcome of a finished hand: who won what, and which
// hands were revealed. Payouts are credited to seat stacks by Settle itself;
// the caller persists the updated seats and records the outcome.
type Settlement struct {
	WinnerID string // first winner clockwise from the dealer
	WinLabel string // winning hand category, empty for an uncontested win
	Payouts  map[int]int64
	Revealed []SeatShowdown
	Uncalled int64 // chips refunded to an unmatched final bet
	FoldWin  bool
}

// Settle finishes a hand. With a single live seat the whole pot is awarded
// uncontested. Otherwise every live hand is evaluated, pots are layered by
// contribution (side pots for unequal all-ins) and each layer goes to the
// best eligible hand; equal hands split the layer, with the odd chip going to
// the earliest winner clockwise from the dealer.
func (h *Hand) Settle(seats []*Seat) *Settlement {
	stl := &Settlement{Payouts: make(map[int]int64)}

	h.refundUncalled(seats, stl)

	live := make([]*Seat, 0, len(seats))
	for _, s := range seats {
		if s.InShowdown() {
			live = append(live, s)
		}
	}

	if len(live) == 1 {
		w := live[0]
		w.Stack += h.Pot
		stl.Payouts[w.Index] = h.Pot
		stl.WinnerID = w.UserID
		stl.FoldWin = true
		h.Pot = 0
		h.Phase = PhaseFinished
		h.WinnerID = stl.WinnerID
		return stl
	}

	values := make(map[int]HandValue, len(live))
	for _, s := range live {
		hv := EvaluateHand(s.HoleCards, h.Community)
		values[s.Index] = hv
		stl.Revealed = append(stl.Revealed, SeatShowdown{
			Seat:      s.Index,
			UserID:    s.UserID,
			HoleCards: s.HoleCards,
			Value:     hv,
		})
	}

	for _, pot := range BuildPots(seats) {
		var winners []int
		var best HandValue
		// Visit eligible seats clockwise from the dealer so the first winner
		// found is the earliest eligible seat; it receives any odd chip.
		for _, idx := range ClockwiseFrom(seats, h.DealerSeat, func(s *Seat) bool { return pot.Eligible[s.Index] }) {
			hv := values[idx]
			if len(winners) == 0 || CompareHands(hv, best) > 0 {
				best = hv
				winners = []int{idx}
			} else if CompareHands(hv, best) == 0 {
				winners = append(winners, idx)
			}
		}
		if len(winners) == 0 {
			continue
		}
		share := pot.Amount / int64(len(winners))
		rem := pot.Amount % int64(len(winners))
		for i, idx := range winners {
			add := share
			if i == 0 {
				add += rem
			}
			SeatAt(seats, idx).Stack += add
			stl.Payouts[idx] += add
		}
		if stl.WinnerID == "" {
			stl.WinnerID = SeatAt(seats, winners[0]).UserID
			stl.WinLabel = best.Description()
		}
	}

	h.Pot = 0
	h.Phase = PhaseFinished
	h.WinnerID = stl.WinnerID
	h.WinLabel = stl.WinLabel
	return stl
}

// refundUncalled returns the unmatched portion of the highest final-street
// bet to its owner before pots are built, so a raise nobody called cannot
// land in a layer only the raiser could win.
func (h *Hand) refundUncalled(seats []*Seat, stl *Settlement) {
	var hi, second int64
	var hiSeat *Seat
	for _, s := range seats {
		if s == nil {
			continue
		}
		if s.StreetBet > hi {
			second = hi
			hi = s.StreetBet
			hiSeat = s
		} else if s.StreetBet > second {
			second = s.StreetBet
		}
	}
	if hiSeat != nil && hi > second {
		uncalled := hi - second
		hiSeat.Stack += uncalled
		hiSeat.StreetBet -= uncalled
		hiSeat.HandBet -= uncalled
		h.Pot -= uncalled
		if hiSeat.AllIn && hiSeat.Stack > 0 {
			hiSeat.AllIn = false
		}
		stl.Uncalled = uncalled
	}
}
