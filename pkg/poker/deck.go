package poker

import (
	"encoding/json"
	"fmt"
	"math/rand"
)

// Suit represents a card suit
type Suit string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
)

// Value represents a card value
type Value string

const (
	Ace   Value = "A"
	Two   Value = "2"
	Three Value = "3"
	Four  Value = "4"
	Five  Value = "5"
	Six   Value = "6"
	Seven Value = "7"
	Eight Value = "8"
	Nine  Value = "9"
	Ten   Value = "10"
	Jack  Value = "J"
	Queen Value = "Q"
	King  Value = "K"
)

// Card represents a playing card
type Card struct {
	suit  Suit
	value Value
}

// NewCard creates a card with the given suit and value.
func NewCard(suit Suit, value Value) Card {
	return Card{suit: suit, value: value}
}

// CardJSON represents a card for JSON serialization
type CardJSON struct {
	Suit  string `json:"suit"`
	Value string `json:"value"`
}

// MarshalJSON implements json.Marshaler interface for Card
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(CardJSON{
		Suit:  string(c.suit),
		Value: string(c.value),
	})
}

// UnmarshalJSON implements json.Unmarshaler interface for Card
func (c *Card) UnmarshalJSON(data []byte) error {
	var cardJSON CardJSON
	if err := json.Unmarshal(data, &cardJSON); err != nil {
		return err
	}

	switch cardJSON.Suit {
	case "♠", "s", "S":
		c.suit = Spades
	case "♥", "h", "H":
		c.suit = Hearts
	case "♦", "d", "D":
		c.suit = Diamonds
	case "♣", "c", "C":
		c.suit = Clubs
	default:
		return fmt.Errorf("invalid suit: %s", cardJSON.Suit)
	}

	switch cardJSON.Value {
	case "A", "K", "Q", "J", "10", "9", "8", "7", "6", "5", "4", "3", "2":
		c.value = Value(cardJSON.Value)
	case "T", "t":
		c.value = Ten
	default:
		return fmt.Errorf("invalid value: %s", cardJSON.Value)
	}

	return nil
}

// String returns a string representation of the card
func (c Card) String() string {
	return string(c.value) + string(c.suit)
}

// GetSuit returns the card's suit
func (c Card) GetSuit() string {
	return string(c.suit)
}

// GetValue returns the card's value
func (c Card) GetValue() string {
	return string(c.value)
}

// MarshalCards serializes a card slice for storage.
func MarshalCards(cards []Card) (string, error) {
	if cards == nil {
		cards = []Card{}
	}
	b, err := json.Marshal(cards)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UnmarshalCards restores a card slice persisted by MarshalCards.
func UnmarshalCards(raw string) ([]Card, error) {
	if raw == "" {
		return []Card{}, nil
	}
	var cards []Card
	if err := json.Unmarshal([]byte(raw), &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// Deck represents a deck of cards
type Deck struct {
	cards []Card
}

// NewDeck creates a full 52-card deck shuffled with the given random number
// generator. The generator is only used for the initial shuffle; the dealt
// order is fixed afterwards so the remaining cards can be persisted between
// requests and never reshuffled mid-hand.
func NewDeck(rng *rand.Rand) *Deck {
	deck := &Deck{
		cards: make([]Card, 0, 52),
	}

	suits := []Suit{Spades, Hearts, Diamonds, Clubs}
	values := []Value{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

	for _, suit := range suits {
		for _, value := range values {
			deck.cards = append(deck.cards, Card{suit: suit, value: value})
		}
	}

	rng.Shuffle(len(deck.cards), func(i, j int) {
		deck.cards[i], deck.cards[j] = deck.cards[j], deck.cards[i]
	})

	return deck
}

// NewDeckFromCards restores a deck from a persisted remainder, preserving the
// dealt order exactly.
func NewDeckFromCards(cards []Card) *Deck {
	deck := &Deck{cards: make([]Card, len(cards))}
	copy(deck.cards, cards)
	return deck
}

// Draw removes and returns the top card from the deck
func (d *Deck) Draw() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// Size returns the number of cards remaining in the deck
func (d *Deck) Size() int {
	return len(d.cards)
}

// Remaining returns a copy of the undealt cards for persistence.
func (d *Deck) Remaining() []Card {
	cards := make([]Card, len(d.cards))
	copy(cards, d.cards)
	return cards
}
