package game

import (
	"sort"

	"github.com/shopspring/decimal"
)

// pot is one contribution layer awaiting award. Folded seats contribute to
// pots but are never eligible to win them.
type pot struct {
	amount   decimal.Decimal
	eligible []int // seat indices
}

// buildPots layers the seats' total contributions into a main pot and side
// pots, one boundary per distinct all-in level among contesting seats. With
// no all-ins it returns a single pot containing every chip committed.
func buildPots(seats []*Seat) []pot {
	levels := make([]decimal.Decimal, 0, len(seats))
	for _, s := range seats {
		if s.InHand() && s.AllIn && s.TotalBet.IsPositive() {
			levels = append(levels, s.TotalBet)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].LessThan(levels[j]) })

	pots := make([]pot, 0, len(levels)+1)
	prev := decimal.Zero
	addLayer := func(cap decimal.Decimal, capped bool) {
		p := pot{amount: decimal.Zero}
		for _, s := range seats {
			contrib := s.TotalBet.Sub(prev)
			if contrib.IsPositive() {
				if capped {
					contrib = decimal.Min(contrib, cap.Sub(prev))
				}
				p.amount = p.amount.Add(contrib)
			}
			if s.InHand() && s.TotalBet.GreaterThan(prev) {
				p.eligible = append(p.eligible, s.Index)
			}
		}
		if p.amount.IsPositive() && len(p.eligible) > 0 {
			pots = append(pots, p)
		}
	}

	for _, level := range levels {
		if level.Equal(prev) {
			continue
		}
		addLayer(level, true)
		prev = level
	}
	addLayer(decimal.Zero, false)

	return pots
}
