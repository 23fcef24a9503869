package poker

import (
	"sort"
)

// Pot is one layer of the pot: an amount plus the set of seats eligible to
// win it. Side pots arise when players go all-in for different amounts.
type Pot struct {
	Amount   int64
	Eligible map[int]bool // seat index -> eligible
}

// BuildPots layers the hand's pot from each seat's cumulative contribution.
// Contribution levels are collected ascending; every seat pays
// min(contribution, level) - previousLevel into that layer, and a seat is
// eligible for a layer when it is still live at showdown and contributed at
// least up to the layer's level.
func BuildPots(seats []*Seat) []*Pot {
	seen := map[int64]bool{}
	for _, s := range seats {
		if s != nil && s.HandBet > 0 {
			seen[s.HandBet] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}

	levels := make([]int64, 0, len(seen))
	for lvl := range seen {
		levels = append(levels, lvl)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	pots := make([]*Pot, 0, len(levels))
	prev := int64(0)
	for _, lvl := range levels {
		p := &Pot{Eligible: make(map[int]bool)}
		for _, s := range seats {
			if s == nil {
				continue
			}
			if s.HandBet > prev {
				c := s.HandBet
				if c > lvl {
					c = lvl
				}
				if c -= prev; c > 0 {
					p.Amount += c
				}
			}
			if s.InShowdown() && s.HandBet >= lvl {
				p.Eligible[s.Index] = true
			}
		}
		if p.Amount > 0 {
			pots = append(pots, p)
		}
		prev = lvl
	}
	return pots
}

// TotalPotAmount sums all pot layers; used to assert chip conservation
// against the hand's running pot total.
func TotalPotAmount(pots []*Pot) int64 {
	var total int64
	for _, p := range pots {
		total += p.Amount
	}
	return total
}
