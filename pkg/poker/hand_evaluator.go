package poker

import (
	"sort"
)

// HandRank represents the rank of a poker hand
type HandRank int

const (
	HighCard HandRank = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// String returns the display label for a hand rank.
func (r HandRank) String() string {
	switch r {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// HandValue is the evaluation of a hand: the category plus the tiebreak ranks
// that order hands within the category. Tiebreaks are listed most significant
// first (e.g. for two pair: high pair, low pair, kicker), so two HandValues
// compare by Rank and then lexicographically by Tiebreaks.
type HandValue struct {
	Rank      HandRank
	Tiebreaks []int
	BestHand  []Card // The 5 cards that make up the best hand
}

// valueToInt converts a card Value to its integer representation (ace high)
func valueToInt(value Value) int {
	switch value {
	case Ace:
		return 14
	case King:
		return 13
	case Queen:
		return 12
	case Jack:
		return 11
	case Ten:
		return 10
	case Nine:
		return 9
	case Eight:
		return 8
	case Seven:
		return 7
	case Six:
		return 6
	case Five:
		return 5
	case Four:
		return 4
	case Three:
		return 3
	case Two:
		return 2
	default:
		return 0
	}
}

// EvaluateHand evaluates a player's best 5-card hand out of their hole cards
// and the community cards. It enumerates every 5-card subset, scores each and
// keeps the maximum, so the result is deterministic for a given card set.
func EvaluateHand(holeCards []Card, communityCards []Card) HandValue {
	allCards := append([]Card{}, holeCards...)
	allCards = append(allCards, communityCards...)

	if len(allCards) <= 5 {
		return evaluateFive(allCards)
	}

	var best HandValue
	first := true
	for _, combo := range generateCombinations(allCards, 5) {
		hv := evaluateFive(combo)
		if first || CompareHands(hv, best) > 0 {
			best = hv
			first = false
		}
	}
	return best
}

// evaluateFive scores exactly one 5-card combination.
func evaluateFive(cards []Card) HandValue {
	ranks := make([]int, len(cards))
	for i, c := range cards {
		ranks[i] = valueToInt(c.value)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ranks)))

	flush := len(cards) == 5
	for i := 1; i < len(cards); i++ {
		if cards[i].suit != cards[0].suit {
			flush = false
			break
		}
	}

	straightHigh, straight := straightHighCard(ranks)

	// count groups: rank -> multiplicity, then order groups by (count, rank) desc
	counts := map[int]int{}
	for _, r := range ranks {
		counts[r]++
	}
	type group struct{ rank, count int }
	groups := make([]group, 0, len(counts))
	for r, c := range counts {
		groups = append(groups, group{rank: r, count: c})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank > groups[j].rank
	})
	if len(groups) == 0 {
		return HandValue{}
	}

	// Group ranks ordered by (multiplicity, rank) are exactly the tiebreak
	// sequence for every non-straight category: quad then kicker, high pair
	// then low pair then kicker, and so on.
	grouped := make([]int, len(groups))
	for i, g := range groups {
		grouped[i] = g.rank
	}

	hv := HandValue{BestHand: append([]Card{}, cards...)}

	switch {
	case flush && straight && straightHigh == 14:
		hv.Rank = RoyalFlush
		hv.Tiebreaks = []int{straightHigh}
	case flush && straight:
		hv.Rank = StraightFlush
		hv.Tiebreaks = []int{straightHigh}
	case groups[0].count == 4:
		hv.Rank = FourOfAKind
		hv.Tiebreaks = grouped
	case groups[0].count == 3 && len(groups) > 1 && groups[1].count >= 2:
		hv.Rank = FullHouse
		hv.Tiebreaks = grouped
	case flush:
		hv.Rank = Flush
		hv.Tiebreaks = append([]int{}, ranks...)
	case straight:
		hv.Rank = Straight
		hv.Tiebreaks = []int{straightHigh}
	case groups[0].count == 3:
		hv.Rank = ThreeOfAKind
		hv.Tiebreaks = grouped
	case groups[0].count == 2 && len(groups) > 1 && groups[1].count == 2:
		hv.Rank = TwoPair
		hv.Tiebreaks = grouped
	case groups[0].count == 2:
		hv.Rank = Pair
		hv.Tiebreaks = grouped
	default:
		hv.Rank = HighCard
		hv.Tiebreaks = append([]int{}, ranks...)
	}

	return hv
}

// straightHighCard reports whether the (descending, 5-long) ranks form a
// straight and its high card. The ace-low wheel A-2-3-4-5 counts as a
// straight with high card 5.
func straightHighCard(ranks []int) (int, bool) {
	if len(ranks) != 5 {
		return 0, false
	}
	run := true
	for i := 1; i < 5; i++ {
		if ranks[i] != ranks[i-1]-1 {
			run = false
			break
		}
	}
	if run {
		return ranks[0], true
	}
	// Wheel: A,5,4,3,2 sorted descending.
	if ranks[0] == 14 && ranks[1] == 5 && ranks[2] == 4 && ranks[3] == 3 && ranks[4] == 2 {
		return 5, true
	}
	return 0, false
}

// generateCombinations generates all possible k-combinations from a slice of cards
func generateCombinations(cards []Card, k int) [][]Card {
	var combinations [][]Card

	if k > len(cards) || k <= 0 {
		return combinations
	}

	if k == len(cards) {
		return [][]Card{cards}
	}

	var generate func(start int, current []Card)
	generate = func(start int, current []Card) {
		if len(current) == k {
			combination := make([]Card, k)
			copy(combination, current)
			combinations = append(combinations, combination)
			return
		}

		for i := start; i <= len(cards)-(k-len(current)); i++ {
			generate(i+1, append(current, cards[i]))
		}
	}

	generate(0, []Card{})
	return combinations
}

// CompareHands compares two hand values and returns:
// -1 if handA < handB (handA is worse)
// 0 if handA == handB (split pot)
// 1 if handA > handB (handA is better)
func CompareHands(handA, handB HandValue) int {
	if handA.Rank != handB.Rank {
		if handA.Rank < handB.Rank {
			return -1
		}
		return 1
	}
	n := len(handA.Tiebreaks)
	if len(handB.Tiebreaks) < n {
		n = len(handB.Tiebreaks)
	}
	for i := 0; i < n; i++ {
		if handA.Tiebreaks[i] != handB.Tiebreaks[i] {
			if handA.Tiebreaks[i] < handB.Tiebreaks[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Description returns a human-readable description of the hand category.
func (hv HandValue) Description() string {
	return hv.Rank.String()
}
