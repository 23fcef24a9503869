package poker

// Seat is one chair at a table. A room's seats form a fixed-capacity ring
// indexed by Index; the slice passed around the engine is ordered by Index
// and may be shorter than the room's capacity.
type Seat struct {
	UserID    string
	Name      string
	Index     int
	Stack     int64
	HoleCards []Card
	StreetBet int64 // chips committed on the current betting street
	HandBet   int64 // cumulative chips committed this hand (side-pot layering)
	Acted     bool  // has acted on the current street
	Folded    bool
	AllIn     bool
	InHand    bool // dealt into the current hand
	Active    bool // seated and not eliminated
	Ready     bool
	Invested  int64 // cumulative buy-in tokens, for cash-out accounting
}

// CanAct reports whether the seat can take a betting action: in the hand,
// not folded and still holding chips.
func (s *Seat) CanAct() bool {
	return s != nil && s.InHand && !s.Folded && s.Stack > 0
}

// InShowdown reports whether the seat's hand is live at showdown.
func (s *Seat) InShowdown() bool {
	return s != nil && s.InHand && !s.Folded
}

// NextActiveSeat walks the ring clockwise starting after from and returns the
// index of the first seat matching pred, or -1 if no seat matches. Seats are
// matched by their Index field, so the walk is stable regardless of slice
// gaps left by departed players.
func NextActiveSeat(seats []*Seat, from int, pred func(*Seat) bool) int {
	if len(seats) == 0 {
		return -1
	}
	max := -1
	byIndex := make(map[int]*Seat, len(seats))
	for _, s := range seats {
		if s == nil {
			continue
		}
		byIndex[s.Index] = s
		if s.Index > max {
			max = s.Index
		}
	}
	if max < 0 {
		return -1
	}
	ring := max + 1
	for step := 1; step <= ring; step++ {
		idx := ((from+step)%ring + ring) % ring
		if s, ok := byIndex[idx]; ok && pred(s) {
			return idx
		}
	}
	return -1
}

// SeatByUser returns the seat occupied by the given user, or nil.
func SeatByUser(seats []*Seat, userID string) *Seat {
	for _, s := range seats {
		if s != nil && s.UserID == userID {
			return s
		}
	}
	return nil
}

// SeatAt returns the seat with the given ring index, or nil.
func SeatAt(seats []*Seat, index int) *Seat {
	for _, s := range seats {
		if s != nil && s.Index == index {
			return s
		}
	}
	return nil
}

// ClockwiseFrom returns the indices of seats matching pred in clockwise ring
// order, starting with the first seat after start.
func ClockwiseFrom(seats []*Seat, start int, pred func(*Seat) bool) []int {
	ring := 0
	for _, s := range seats {
		if s != nil && s.Index >= ring {
			ring = s.Index + 1
		}
	}
	var out []int
	for step := 1; step <= ring; step++ {
		idx := ((start+step)%ring + ring) % ring
		if s := SeatAt(seats, idx); s != nil && pred(s) {
			out = append(out, idx)
		}
	}
	return out
}

// CountSeats returns how many seats match pred.
func CountSeats(seats []*Seat, pred func(*Seat) bool) int {
	n := 0
	for _, s := range seats {
		if s != nil && pred(s) {
			n++
		}
	}
	return n
}
