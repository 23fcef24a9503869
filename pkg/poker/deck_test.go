package poker

import (
	"math/rand"
	"testing"
)

func TestNewDeckHas52UniqueCards(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(1)))
	if deck.Size() != 52 {
		t.Fatalf("deck size = %d, want 52", deck.Size())
	}
	seen := map[string]bool{}
	for {
		card, ok := deck.Draw()
		if !ok {
			break
		}
		key := card.String()
		if seen[key] {
			t.Errorf("duplicate card %s", key)
		}
		seen[key] = true
	}
	if len(seen) != 52 {
		t.Errorf("drew %d unique cards, want 52", len(seen))
	}
}

func TestNewDeckDeterministicForSeed(t *testing.T) {
	a := NewDeck(rand.New(rand.NewSource(7)))
	b := NewDeck(rand.New(rand.NewSource(7)))
	for {
		ca, oka := a.Draw()
		cb, okb := b.Draw()
		if oka != okb {
			t.Fatal("decks of unequal size")
		}
		if !oka {
			break
		}
		if ca != cb {
			t.Fatalf("same seed produced different order: %s vs %s", ca, cb)
		}
	}
}

func TestDeckPersistRoundTrip(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(3)))
	for i := 0; i < 10; i++ {
		deck.Draw()
	}

	raw, err := MarshalCards(deck.Remaining())
	if err != nil {
		t.Fatalf("MarshalCards: %v", err)
	}
	cards, err := UnmarshalCards(raw)
	if err != nil {
		t.Fatalf("UnmarshalCards: %v", err)
	}
	restored := NewDeckFromCards(cards)

	if restored.Size() != deck.Size() {
		t.Fatalf("restored size = %d, want %d", restored.Size(), deck.Size())
	}
	for {
		want, ok := deck.Draw()
		if !ok {
			break
		}
		got, ok := restored.Draw()
		if !ok {
			t.Fatal("restored deck ran out early")
		}
		if got != want {
			t.Fatalf("restored order differs: %s vs %s", got, want)
		}
	}
}

func TestUnmarshalCardsAcceptsLetterSuits(t *testing.T) {
	cards, err := UnmarshalCards(`[{"suit":"h","value":"T"},{"suit":"S","value":"A"}]`)
	if err != nil {
		t.Fatalf("UnmarshalCards: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("got %d cards, want 2", len(cards))
	}
	if cards[0] != NewCard(Hearts, Ten) {
		t.Errorf("card 0 = %s, want 10♥", cards[0])
	}
	if cards[1] != NewCard(Spades, Ace) {
		t.Errorf("card 1 = %s, want A♠", cards[1])
	}
}
