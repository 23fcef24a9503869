package poker

import (
	"testing"
)

func TestBuildPotsSingleLayer(t *testing.T) {
	seats := tableSeats(0, 0, 0)
	for _, s := range seats {
		s.InHand = true
		s.HandBet = 50
	}

	pots := BuildPots(seats)
	if len(pots) != 1 {
		t.Fatalf("got %d pots, want 1", len(pots))
	}
	if pots[0].Amount != 150 {
		t.Errorf("pot amount = %d, want 150", pots[0].Amount)
	}
	for i := 0; i < 3; i++ {
		if !pots[0].Eligible[i] {
			t.Errorf("seat %d not eligible", i)
		}
	}
}

func TestBuildPotsSidePot(t *testing.T) {
	seats := tableSeats(0, 0, 0)
	for _, s := range seats {
		s.InHand = true
	}
	seats[0].HandBet = 100
	seats[1].HandBet = 50 // short all-in
	seats[2].HandBet = 100

	pots := BuildPots(seats)
	if len(pots) != 2 {
		t.Fatalf("got %d pots, want 2", len(pots))
	}

	main, side := pots[0], pots[1]
	if main.Amount != 150 {
		t.Errorf("main pot = %d, want 150 (50 from each)", main.Amount)
	}
	if !main.Eligible[0] || !main.Eligible[1] || !main.Eligible[2] {
		t.Errorf("main pot eligibility = %v, want all three", main.Eligible)
	}
	if side.Amount != 100 {
		t.Errorf("side pot = %d, want 100", side.Amount)
	}
	if side.Eligible[1] {
		t.Error("short all-in eligible for side pot")
	}
	if !side.Eligible[0] || !side.Eligible[2] {
		t.Errorf("side pot eligibility = %v, want seats 0 and 2", side.Eligible)
	}

	if got := TotalPotAmount(pots); got != 250 {
		t.Errorf("TotalPotAmount = %d, want 250", got)
	}
}

func TestBuildPotsExcludesFoldedFromEligibility(t *testing.T) {
	seats := tableSeats(0, 0, 0)
	for _, s := range seats {
		s.InHand = true
		s.HandBet = 40
	}
	seats[1].Folded = true

	pots := BuildPots(seats)
	if len(pots) != 1 {
		t.Fatalf("got %d pots, want 1", len(pots))
	}
	// Folded chips stay in the pot but the folded seat cannot win them.
	if pots[0].Amount != 120 {
		t.Errorf("pot amount = %d, want 120", pots[0].Amount)
	}
	if pots[0].Eligible[1] {
		t.Error("folded seat eligible")
	}
}

func TestBuildPotsEmpty(t *testing.T) {
	if pots := BuildPots(tableSeats(100, 100)); pots != nil {
		t.Errorf("pots for untouched seats = %v, want nil", pots)
	}
}
