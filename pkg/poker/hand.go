package poker

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// TurnTimeout is the deadline attached to every pending action. The engine
// itself holds no timers; expired deadlines are enforced by the service's
// sweep (lazily on read/act plus a periodic job).
const TurnTimeout = 30 * time.Second

// Engine-level validation errors. The service layer maps these onto its
// wire-visible error taxonomy.
var (
	ErrNotYourTurn   = errors.New("not your turn to act")
	ErrAlreadyFolded = errors.New("player has already folded")
	ErrInvalidPhase  = errors.New("action not legal in current phase")
	ErrNotInHand     = errors.New("player is not in the current hand")
	ErrBetOwed       = errors.New("cannot check while a bet is owed")
	ErrBadAmount     = errors.New("invalid amount")
)

// Phase is a betting phase of a hand.
type Phase int

const (
	PhasePreflop Phase = iota
	PhaseFlop
	PhaseTurn
	PhaseRiver
	PhaseFinished
)

// String returns the storage/wire representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhasePreflop:
		return "preflop"
	case PhaseFlop:
		return "flop"
	case PhaseTurn:
		return "turn"
	case PhaseRiver:
		return "river"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// ParsePhase converts a stored phase string back to a Phase.
func ParsePhase(s string) (Phase, error) {
	switch s {
	case "preflop":
		return PhasePreflop, nil
	case "flop":
		return PhaseFlop, nil
	case "turn":
		return PhaseTurn, nil
	case "river":
		return PhaseRiver, nil
	case "finished":
		return PhaseFinished, nil
	default:
		return PhaseFinished, fmt.Errorf("unknown phase %q", s)
	}
}

// IsBetting reports whether betting actions are legal in this phase.
func (p Phase) IsBetting() bool {
	return p >= PhasePreflop && p <= PhaseRiver
}

// ActionKind is a betting action type.
type ActionKind int

const (
	ActionFold ActionKind = iota
	ActionCheck
	ActionCall
	ActionRaise
	ActionAllIn
)

// String returns the storage/wire representation of the action kind.
func (a ActionKind) String() string {
	switch a {
	case ActionFold:
		return "fold"
	case ActionCheck:
		return "check"
	case ActionCall:
		return "call"
	case ActionRaise:
		return "raise"
	case ActionAllIn:
		return "all-in"
	default:
		return "unknown"
	}
}

// ParseActionKind converts a wire action string to an ActionKind.
func ParseActionKind(s string) (ActionKind, error) {
	switch s {
	case "fold":
		return ActionFold, nil
	case "check":
		return ActionCheck, nil
	case "call":
		return ActionCall, nil
	case "raise":
		return ActionRaise, nil
	case "all-in", "allin":
		return ActionAllIn, nil
	default:
		return ActionFold, fmt.Errorf("unknown action %q", s)
	}
}

// Hand is the state of one hand of play. It is loaded from the store at the
// start of a request, mutated by the engine and persisted again; nothing here
// survives in memory between requests.
type Hand struct {
	ID         string
	RoomID     string
	DealerSeat int
	TurnSeat   int
	Phase      Phase
	Community  []Card
	Deck       *Deck
	Pot        int64
	CurrentBet int64
	Deadline   time.Time
	WinnerID   string
	WinLabel   string
}

// NewHand initializes a hand: rotates the dealer past prevDealer, posts the
// blinds (capped by short stacks), deals two hole cards to every active seat
// with chips and sets the action to the seat after the big blind.
func NewHand(id, roomID string, seats []*Seat, prevDealer int, smallBlind, bigBlind int64, rng *rand.Rand, now time.Time) (*Hand, error) {
	inHand := 0
	for _, s := range seats {
		if s == nil {
			continue
		}
		s.HoleCards = nil
		s.StreetBet = 0
		s.HandBet = 0
		s.Acted = false
		s.Folded = false
		s.AllIn = false
		s.InHand = s.Active && s.Stack > 0
		if s.InHand {
			inHand++
		}
	}
	if inHand < 2 {
		return nil, fmt.Errorf("need at least 2 players with chips, have %d", inHand)
	}

	h := &Hand{
		ID:        id,
		RoomID:    roomID,
		Phase:     PhasePreflop,
		Community: []Card{},
		Deck:      NewDeck(rng),
	}

	dealt := func(s *Seat) bool { return s.InHand }
	h.DealerSeat = NextActiveSeat(seats, prevDealer, dealt)
	sbSeat := NextActiveSeat(seats, h.DealerSeat, dealt)
	bbSeat := NextActiveSeat(seats, sbSeat, dealt)

	h.postBlind(SeatAt(seats, sbSeat), smallBlind)
	h.postBlind(SeatAt(seats, bbSeat), bigBlind)
	h.CurrentBet = bigBlind

	// Two cards each, starting left of the dealer.
	for range 2 {
		for idx := NextActiveSeat(seats, h.DealerSeat, dealt); ; idx = NextActiveSeat(seats, idx, dealt) {
			seat := SeatAt(seats, idx)
			card, ok := h.Deck.Draw()
			if !ok {
				return nil, errors.New("deck exhausted while dealing")
			}
			seat.HoleCards = append(seat.HoleCards, card)
			if idx == h.DealerSeat {
				break
			}
		}
	}

	h.TurnSeat = NextActiveSeat(seats, bbSeat, (*Seat).CanAct)
	if h.TurnSeat == -1 {
		// The blinds put every dealt seat all-in, so no betting can happen
		// on any street. Run the board out now; the hand is born finished
		// and the caller settles it immediately.
		if err := h.dealCommunity(5); err != nil {
			return nil, err
		}
		h.Phase = PhaseFinished
		return h, nil
	}
	h.Deadline = now.Add(TurnTimeout)
	return h, nil
}

// postBlind moves a forced bet into the pot, capped by the seat's stack.
func (h *Hand) postBlind(s *Seat, amount int64) {
	if s == nil {
		return
	}
	if amount > s.Stack {
		amount = s.Stack
	}
	s.Stack -= amount
	s.StreetBet += amount
	s.HandBet += amount
	h.Pot += amount
	if s.Stack == 0 {
		s.AllIn = true
	}
}
