// Package evaluator ranks poker hands of five to seven cards.
//
// Evaluate returns the best five-card combination together with a category
// (1 = Royal Flush .. 10 = High Card) and a tiebreak vector compared
// lexicographically within a category. The function is pure: equal inputs
// always produce equal results, and ties are never broken randomly.
package evaluator

import (
	"errors"
	"sort"

	"github.com/Palmergill/poker-app/internal/deck"
)

// Category identifies a hand category. Lower values are stronger.
type Category int

const (
	RoyalFlush Category = iota + 1
	StraightFlush
	FourOfAKind
	FullHouse
	Flush
	Straight
	ThreeOfAKind
	TwoPair
	OnePair
	HighCard
)

// String returns the display name of the category.
func (c Category) String() string {
	switch c {
	case RoyalFlush:
		return "Royal Flush"
	case StraightFlush:
		return "Straight Flush"
	case FourOfAKind:
		return "Four of a Kind"
	case FullHouse:
		return "Full House"
	case Flush:
		return "Flush"
	case Straight:
		return "Straight"
	case ThreeOfAKind:
		return "Three of a Kind"
	case TwoPair:
		return "Two Pair"
	case OnePair:
		return "One Pair"
	case HighCard:
		return "High Card"
	default:
		return "Unknown"
	}
}

// Result describes an evaluated hand.
type Result struct {
	Category Category
	Tiebreak []int
	Name     string
	BestFive []deck.Card
}

// ErrInsufficientCards is returned when fewer than five cards are supplied.
var ErrInsufficientCards = errors.New("evaluator: need at least five cards")

// ErrTooManyCards is returned when more than seven cards are supplied.
var ErrTooManyCards = errors.New("evaluator: more than seven cards")

// Evaluate finds the best five-card hand among 5..7 cards.
func Evaluate(cards []deck.Card) (Result, error) {
	if len(cards) < 5 {
		return Result{}, ErrInsufficientCards
	}
	if len(cards) > 7 {
		return Result{}, ErrTooManyCards
	}

	var best Result
	have := false
	combinations(cards, func(five []deck.Card) {
		cat, tb := score(five)
		r := Result{Category: cat, Tiebreak: tb, Name: cat.String()}
		if !have || Compare(r, best) > 0 {
			r.BestFive = append([]deck.Card(nil), five...)
			best = r
			have = true
		}
	})

	return best, nil
}

// Compare orders two results by (category asc, tiebreak desc). It returns a
// positive value when a is the stronger hand, negative when b is, and zero on
// an exact tie.
func Compare(a, b Result) int {
	if a.Category != b.Category {
		return int(b.Category) - int(a.Category)
	}
	for i := 0; i < len(a.Tiebreak) && i < len(b.Tiebreak); i++ {
		if a.Tiebreak[i] != b.Tiebreak[i] {
			return a.Tiebreak[i] - b.Tiebreak[i]
		}
	}
	return len(a.Tiebreak) - len(b.Tiebreak)
}

// combinations visits every five-card subset of cards.
func combinations(cards []deck.Card, visit func([]deck.Card)) {
	n := len(cards)
	five := make([]deck.Card, 5)
	var rec func(start, depth int)
	rec = func(start, depth int) {
		if depth == 5 {
			visit(five)
			return
		}
		for i := start; i <= n-(5-depth); i++ {
			five[depth] = cards[i]
			rec(i+1, depth+1)
		}
	}
	rec(0, 0)
}

// score categorizes exactly five cards.
func score(five []deck.Card) (Category, []int) {
	ranks := make([]int, 5)
	suited := true
	for i, c := range five {
		ranks[i] = c.Value()
		if c.Suit != five[0].Suit {
			suited = false
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ranks)))

	straightHigh, isStraight := straightTop(ranks)

	if suited && isStraight {
		if straightHigh == int(deck.Ace) {
			return RoyalFlush, []int{straightHigh}
		}
		return StraightFlush, []int{straightHigh}
	}

	// Rank multiplicities, strongest group first, higher rank first within a
	// group size.
	counts := map[int]int{}
	for _, r := range ranks {
		counts[r]++
	}
	type group struct{ rank, count int }
	groups := make([]group, 0, len(counts))
	for r, n := range counts {
		groups = append(groups, group{rank: r, count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank > groups[j].rank
	})

	flat := make([]int, 0, 5)
	for _, g := range groups {
		flat = append(flat, g.rank)
	}

	switch {
	case groups[0].count == 4:
		return FourOfAKind, flat
	case groups[0].count == 3 && groups[1].count == 2:
		return FullHouse, flat
	case suited:
		return Flush, ranks
	case isStraight:
		return Straight, []int{straightHigh}
	case groups[0].count == 3:
		return ThreeOfAKind, flat
	case groups[0].count == 2 && groups[1].count == 2:
		return TwoPair, flat
	case groups[0].count == 2:
		return OnePair, flat
	default:
		return HighCard, ranks
	}
}

// straightTop reports whether the five descending ranks form a straight and
// returns the top rank. The wheel A-2-3-4-5 counts with top rank 5.
func straightTop(desc []int) (int, bool) {
	run := true
	for i := 1; i < 5; i++ {
		if desc[i] != desc[i-1]-1 {
			run = false
			break
		}
	}
	if run {
		return desc[0], true
	}

	// Wheel: A,5,4,3,2 sorted descending.
	if desc[0] == int(deck.Ace) && desc[1] == 5 && desc[2] == 4 && desc[3] == 3 && desc[4] == 2 {
		return 5, true
	}
	return 0, false
}
