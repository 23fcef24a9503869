package poker

import (
	"math/rand"
	"testing"

	chpoker "github.com/chehsunliu/poker"
)

func TestEvaluateHand(t *testing.T) {
	tests := []struct {
		name      string
		holeCards []Card
		community []Card
		wantRank  HandRank
	}{
		{
			name: "royal flush",
			holeCards: []Card{
				{suit: Hearts, value: Ace},
				{suit: Hearts, value: King},
			},
			community: []Card{
				{suit: Hearts, value: Queen},
				{suit: Hearts, value: Jack},
				{suit: Hearts, value: Ten},
				{suit: Clubs, value: Three},
				{suit: Diamonds, value: Four},
			},
			wantRank: RoyalFlush,
		},
		{
			name: "straight flush",
			holeCards: []Card{
				{suit: Spades, value: Nine},
				{suit: Spades, value: Eight},
			},
			community: []Card{
				{suit: Spades, value: Seven},
				{suit: Spades, value: Six},
				{suit: Spades, value: Five},
				{suit: Hearts, value: Two},
				{suit: Diamonds, value: Three},
			},
			wantRank: StraightFlush,
		},
		{
			name: "four of a kind",
			holeCards: []Card{
				{suit: Hearts, value: Ace},
				{suit: Spades, value: Ace},
			},
			community: []Card{
				{suit: Clubs, value: Ace},
				{suit: Diamonds, value: Ace},
				{suit: Hearts, value: King},
				{suit: Clubs, value: Queen},
				{suit: Spades, value: Jack},
			},
			wantRank: FourOfAKind,
		},
		{
			name: "full house beats flush",
			holeCards: []Card{
				{suit: Hearts, value: Three},
				{suit: Spades, value: Three},
			},
			community: []Card{
				{suit: Clubs, value: Three},
				{suit: Hearts, value: Nine},
				{suit: Hearts, value: Nine},
				{suit: Hearts, value: Five},
				{suit: Hearts, value: Two},
			},
			wantRank: FullHouse,
		},
		{
			name: "ace low wheel",
			holeCards: []Card{
				{suit: Hearts, value: Ace},
				{suit: Spades, value: Two},
			},
			community: []Card{
				{suit: Clubs, value: Three},
				{suit: Diamonds, value: Four},
				{suit: Hearts, value: Five},
				{suit: Clubs, value: Nine},
				{suit: Spades, value: King},
			},
			wantRank: Straight,
		},
		{
			name: "two pair",
			holeCards: []Card{
				{suit: Hearts, value: King},
				{suit: Spades, value: King},
			},
			community: []Card{
				{suit: Clubs, value: Nine},
				{suit: Diamonds, value: Nine},
				{suit: Hearts, value: Five},
				{suit: Clubs, value: Two},
				{suit: Spades, value: Three},
			},
			wantRank: TwoPair,
		},
		{
			name: "high card",
			holeCards: []Card{
				{suit: Hearts, value: Ace},
				{suit: Spades, value: Nine},
			},
			community: []Card{
				{suit: Clubs, value: King},
				{suit: Diamonds, value: Seven},
				{suit: Hearts, value: Five},
				{suit: Clubs, value: Three},
				{suit: Diamonds, value: Two},
			},
			wantRank: HighCard,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hv := EvaluateHand(tt.holeCards, tt.community)
			if hv.Rank != tt.wantRank {
				t.Errorf("EvaluateHand() rank = %v, want %v", hv.Rank, tt.wantRank)
			}
			if len(hv.BestHand) != 5 {
				t.Errorf("EvaluateHand() best hand has %d cards, want 5", len(hv.BestHand))
			}
		})
	}
}

func TestCompareHandsTiebreaks(t *testing.T) {
	community := []Card{
		{suit: Clubs, value: Nine},
		{suit: Diamonds, value: Nine},
		{suit: Hearts, value: Five},
		{suit: Clubs, value: Three},
		{suit: Spades, value: Two},
	}
	kingKicker := EvaluateHand([]Card{
		{suit: Hearts, value: King},
		{suit: Spades, value: Ten},
	}, community)
	aceKicker := EvaluateHand([]Card{
		{suit: Hearts, value: Ace},
		{suit: Spades, value: Ten},
	}, community)

	if got := CompareHands(aceKicker, kingKicker); got != 1 {
		t.Errorf("ace kicker vs king kicker = %d, want 1", got)
	}
	if got := CompareHands(kingKicker, aceKicker); got != -1 {
		t.Errorf("king kicker vs ace kicker = %d, want -1", got)
	}
}

func TestCompareHandsSplit(t *testing.T) {
	// Board plays for both: the hole cards are all below the board.
	community := []Card{
		{suit: Clubs, value: Ace},
		{suit: Diamonds, value: King},
		{suit: Hearts, value: Queen},
		{suit: Clubs, value: Jack},
		{suit: Spades, value: Ten},
	}
	a := EvaluateHand([]Card{
		{suit: Hearts, value: Two},
		{suit: Spades, value: Three},
	}, community)
	b := EvaluateHand([]Card{
		{suit: Diamonds, value: Four},
		{suit: Clubs, value: Five},
	}, community)

	if got := CompareHands(a, b); got != 0 {
		t.Errorf("CompareHands() = %d, want 0 (split)", got)
	}
}

// chCard converts an engine card to the chehsunliu/poker string form.
func chCard(c Card) chpoker.Card {
	var suit string
	switch c.suit {
	case Spades:
		suit = "s"
	case Hearts:
		suit = "h"
	case Diamonds:
		suit = "d"
	case Clubs:
		suit = "c"
	}
	value := string(c.value)
	if value == "10" {
		value = "T"
	}
	return chpoker.NewCard(value + suit)
}

// TestEvaluateHandAgainstReference deals random boards and cross-checks the
// winner ordering against the chehsunliu evaluator. The reference scores
// hands with lower-is-better ranks.
func TestEvaluateHandAgainstReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		deck := NewDeck(rng)
		draw := func(n int) []Card {
			out := make([]Card, 0, n)
			for j := 0; j < n; j++ {
				c, ok := deck.Draw()
				if !ok {
					t.Fatal("deck exhausted")
				}
				out = append(out, c)
			}
			return out
		}
		holeA, holeB, community := draw(2), draw(2), draw(5)

		got := CompareHands(EvaluateHand(holeA, community), EvaluateHand(holeB, community))

		refScore := func(hole []Card) int32 {
			cards := make([]chpoker.Card, 0, 7)
			for _, c := range hole {
				cards = append(cards, chCard(c))
			}
			for _, c := range community {
				cards = append(cards, chCard(c))
			}
			return chpoker.Evaluate(cards)
		}
		scoreA, scoreB := refScore(holeA), refScore(holeB)
		want := 0
		if scoreA < scoreB {
			want = 1
		} else if scoreA > scoreB {
			want = -1
		}
		if got != want {
			t.Fatalf("deal %d: CompareHands=%d, reference says %d (A=%v B=%v board=%v)",
				i, got, want, holeA, holeB, community)
		}
	}
}
