package poker

import (
	"errors"
	"testing"
	"time"
)

var actionTime = time.Unix(2000, 0)

func mustAct(t *testing.T, h *Hand, seats []*Seat, userID string, kind ActionKind, amount int64) *ActionResult {
	t.Helper()
	res, err := h.ApplyAction(seats, userID, kind, amount, actionTime)
	if err != nil {
		t.Fatalf("%s %s: %v", userID, kind, err)
	}
	return res
}

func TestApplyActionValidation(t *testing.T) {
	seats := tableSeats(100, 100, 100)
	h := newTestHand(t, seats, -1) // dealer 0, turn 0

	if _, err := h.ApplyAction(seats, "b", ActionCall, 0, actionTime); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("out of turn call: err = %v, want ErrNotYourTurn", err)
	}
	if _, err := h.ApplyAction(seats, "zz", ActionCall, 0, actionTime); !errors.Is(err, ErrNotInHand) {
		t.Errorf("unknown user: err = %v, want ErrNotInHand", err)
	}
	if _, err := h.ApplyAction(seats, "a", ActionCheck, 0, actionTime); !errors.Is(err, ErrBetOwed) {
		t.Errorf("check facing bet: err = %v, want ErrBetOwed", err)
	}
	if _, err := h.ApplyAction(seats, "a", ActionRaise, 0, actionTime); !errors.Is(err, ErrBadAmount) {
		t.Errorf("raise to 0: err = %v, want ErrBadAmount", err)
	}

	mustAct(t, h, seats, "a", ActionFold, 0)
	if _, err := h.ApplyAction(seats, "a", ActionCheck, 0, actionTime); !errors.Is(err, ErrAlreadyFolded) {
		t.Errorf("act after folding: err = %v, want ErrAlreadyFolded", err)
	}

	h.Phase = PhaseFinished
	if _, err := h.ApplyAction(seats, "b", ActionCheck, 0, actionTime); !errors.Is(err, ErrInvalidPhase) {
		t.Errorf("act in finished hand: err = %v, want ErrInvalidPhase", err)
	}
}

// The big blind keeps its option: calls alone do not close the preflop round
// until the blind seat has acted.
func TestBigBlindOption(t *testing.T) {
	seats := tableSeats(100, 100, 100)
	h := newTestHand(t, seats, -1) // dealer 0, sb 1, bb 2, turn 0

	res := mustAct(t, h, seats, "a", ActionCall, 0)
	if res.Paid != 20 || res.RoundClosed {
		t.Fatalf("button call: paid=%d closed=%v, want 20/false", res.Paid, res.RoundClosed)
	}
	res = mustAct(t, h, seats, "b", ActionCall, 0)
	if res.Paid != 10 || res.RoundClosed {
		t.Fatalf("small blind call: paid=%d closed=%v, want 10/false", res.Paid, res.RoundClosed)
	}
	if h.TurnSeat != 2 {
		t.Fatalf("turn = %d, want 2 (big blind's option)", h.TurnSeat)
	}

	res = mustAct(t, h, seats, "c", ActionCheck, 0)
	if !res.RoundClosed || res.Phase != PhaseFlop {
		t.Fatalf("big blind check: closed=%v phase=%v, want true/flop", res.RoundClosed, res.Phase)
	}
	if len(h.Community) != 3 {
		t.Errorf("community = %d cards, want 3", len(h.Community))
	}
	if h.TurnSeat != 1 {
		t.Errorf("flop turn = %d, want 1 (first seat after dealer)", h.TurnSeat)
	}
	if h.CurrentBet != 0 {
		t.Errorf("flop currentBet = %d, want 0", h.CurrentBet)
	}
	if got := totalChips(h, seats); got != 300 {
		t.Errorf("total chips = %d, want 300", got)
	}
}

func TestRaiseEnforcesDoubling(t *testing.T) {
	seats := tableSeats(100, 100, 100)
	h := newTestHand(t, seats, -1)

	// A raise below twice the current bet is bumped to exactly twice.
	res := mustAct(t, h, seats, "a", ActionRaise, 30)
	if res.RaisedTo != 40 || h.CurrentBet != 40 {
		t.Fatalf("raise to 30: raisedTo=%d currentBet=%d, want 40/40", res.RaisedTo, h.CurrentBet)
	}
	if res.Paid != 40 {
		t.Errorf("raise paid = %d, want 40", res.Paid)
	}

	// The raise reopens the round for the blinds.
	mustAct(t, h, seats, "b", ActionCall, 0)
	res = mustAct(t, h, seats, "c", ActionCall, 0)
	if !res.RoundClosed || res.Phase != PhaseFlop {
		t.Fatalf("after calls: closed=%v phase=%v, want true/flop", res.RoundClosed, res.Phase)
	}

	// On the flop the current bet is zero, so any positive raise stands.
	res = mustAct(t, h, seats, "b", ActionRaise, 15)
	if res.RaisedTo != 15 || h.CurrentBet != 15 {
		t.Errorf("flop raise: raisedTo=%d currentBet=%d, want 15/15", res.RaisedTo, h.CurrentBet)
	}
}

func TestFoldToOneWinsUncontested(t *testing.T) {
	seats := tableSeats(100, 100, 100)
	h := newTestHand(t, seats, -1)

	mustAct(t, h, seats, "a", ActionFold, 0)
	res := mustAct(t, h, seats, "b", ActionFold, 0)
	if !res.FoldWin {
		t.Fatal("second fold did not end the hand")
	}
	if h.Phase != PhaseFinished {
		t.Errorf("phase = %v, want finished", h.Phase)
	}
}

func TestAllInRunsBoardOut(t *testing.T) {
	seats := tableSeats(100, 100)
	h := newTestHand(t, seats, -1) // dealer 0, sb 1, bb 0, turn 1

	res := mustAct(t, h, seats, "b", ActionAllIn, 0)
	if res.RaisedTo != 100 || h.CurrentBet != 100 {
		t.Fatalf("all-in: raisedTo=%d currentBet=%d, want 100/100", res.RaisedTo, h.CurrentBet)
	}
	res = mustAct(t, h, seats, "a", ActionCall, 0)
	if !res.ShowdownDue {
		t.Fatal("calling the all-in did not trigger showdown")
	}
	if len(h.Community) != 5 {
		t.Errorf("community = %d cards, want 5 (board runout)", len(h.Community))
	}
	if h.Pot != 200 {
		t.Errorf("pot = %d, want 200", h.Pot)
	}
	if got := totalChips(h, seats); got != 200 {
		t.Errorf("total chips = %d, want 200", got)
	}
}

func TestAllInForLessDoesNotReopen(t *testing.T) {
	seats := tableSeats(100, 100, 15)
	h := newTestHand(t, seats, -1) // bb seat 2 has only 15 behind 20 blind... posted 15 all-in

	// Seat 2 posted a short blind of 15 and is already all-in; the other two
	// play a normal street against the 20 bet.
	mustAct(t, h, seats, "a", ActionCall, 0)
	res := mustAct(t, h, seats, "b", ActionCall, 0)
	if !res.RoundClosed {
		t.Fatal("street did not close once both live seats matched")
	}
	if res.Phase != PhaseFlop {
		t.Fatalf("phase = %v, want flop", res.Phase)
	}
}

func TestTurnTimeout(t *testing.T) {
	seats := tableSeats(100, 100, 100)
	h := newTestHand(t, seats, -1)

	if h.TimedOut(h.Deadline.Add(-time.Second)) {
		t.Error("TimedOut before deadline")
	}
	if !h.TimedOut(h.Deadline.Add(time.Second)) {
		t.Error("not TimedOut after deadline")
	}

	// Facing the blind, the forced action is a fold.
	kind, userID := h.ForceTimeoutAction(seats)
	if kind != ActionFold || userID != "a" {
		t.Errorf("forced action = %v for %q, want fold for a", kind, userID)
	}

	// With the bet matched, the forced action is a check.
	mustAct(t, h, seats, "a", ActionCall, 0)
	mustAct(t, h, seats, "b", ActionCall, 0)
	kind, userID = h.ForceTimeoutAction(seats)
	if kind != ActionCheck || userID != "c" {
		t.Errorf("forced action = %v for %q, want check for c", kind, userID)
	}
}

func TestFoldOutOfTurn(t *testing.T) {
	seats := tableSeats(100, 100, 100)
	h := newTestHand(t, seats, -1) // turn 0

	res, err := h.FoldOutOfTurn(seats, "c", actionTime)
	if err != nil {
		t.Fatalf("FoldOutOfTurn: %v", err)
	}
	if res == nil || res.Kind != ActionFold {
		t.Fatalf("res = %+v, want fold", res)
	}
	if !SeatByUser(seats, "c").Folded {
		t.Error("seat not folded")
	}
	if h.TurnSeat != 0 {
		t.Errorf("turn moved to %d, want 0 unchanged", h.TurnSeat)
	}

	// Folding the last opponent ends the hand.
	mustAct(t, h, seats, "a", ActionFold, 0)
	if h.Phase != PhaseFinished {
		t.Errorf("phase = %v, want finished after fold to one", h.Phase)
	}
}

// Full hand: blinds 10/20, three 1000-chip stacks, everyone calls preflop and
// checks every street through the river, then the pot settles at showdown.
func TestFullHandToShowdown(t *testing.T) {
	seats := tableSeats(1000, 1000, 1000)
	h := newTestHand(t, seats, -1)

	mustAct(t, h, seats, "a", ActionCall, 0) // button
	mustAct(t, h, seats, "b", ActionCall, 0) // small blind
	res := mustAct(t, h, seats, "c", ActionCheck, 0)
	if res.Phase != PhaseFlop || h.Pot != 60 {
		t.Fatalf("after preflop: phase=%v pot=%d, want flop/60", res.Phase, h.Pot)
	}

	for _, wantPhase := range []Phase{PhaseTurn, PhaseRiver} {
		mustAct(t, h, seats, "b", ActionCheck, 0)
		mustAct(t, h, seats, "c", ActionCheck, 0)
		res = mustAct(t, h, seats, "a", ActionCheck, 0)
		if res.Phase != wantPhase {
			t.Fatalf("phase = %v, want %v", res.Phase, wantPhase)
		}
	}
	mustAct(t, h, seats, "b", ActionCheck, 0)
	mustAct(t, h, seats, "c", ActionCheck, 0)
	res = mustAct(t, h, seats, "a", ActionCheck, 0)
	if !res.ShowdownDue {
		t.Fatal("river checks did not trigger showdown")
	}
	if len(h.Community) != 5 {
		t.Fatalf("community = %d cards, want 5", len(h.Community))
	}

	stl := h.Settle(seats)
	var paid int64
	for idx, amount := range stl.Payouts {
		paid += amount
		if SeatAt(seats, idx).Stack != 980+amount {
			t.Errorf("seat %d stack = %d, want %d", idx, SeatAt(seats, idx).Stack, 980+amount)
		}
	}
	if paid != 60 {
		t.Errorf("payouts total %d, want 60", paid)
	}
	if got := totalChips(h, seats); got != 3000 {
		t.Errorf("total chips = %d, want 3000", got)
	}
	if len(stl.Revealed) != 3 {
		t.Errorf("revealed %d hands, want 3", len(stl.Revealed))
	}
}

func TestFoldOutOfTurnNoops(t *testing.T) {
	seats := tableSeats(100, 100, 100)
	h := newTestHand(t, seats, -1)

	if res, err := h.FoldOutOfTurn(seats, "zz", actionTime); err != nil || res != nil {
		t.Errorf("unknown user: res=%v err=%v, want nil/nil", res, err)
	}
	mustAct(t, h, seats, "a", ActionFold, 0)
	if res, err := h.FoldOutOfTurn(seats, "a", actionTime); err != nil || res != nil {
		t.Errorf("already folded: res=%v err=%v, want nil/nil", res, err)
	}
}
