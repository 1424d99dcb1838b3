package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Palmergill/poker-app/internal/deck"
)

// dealtSeat returns a seat that has been dealt into a hand.
func dealtSeat(index int, stack, bet int64) *Seat {
	s := NewSeat(index, "p", "Player", dec(stack))
	s.HoleCards = []deck.Card{deck.MustParse("AS"), deck.MustParse("KS")}
	s.CurrentBet = dec(bet)
	return s
}

func TestRoundComplete(t *testing.T) {
	tests := []struct {
		name       string
		phase      Phase
		seats      func() []*Seat
		currentBet int64
		acted      map[int]bool
		bbIndex    int
		bbActed    bool
		want       bool
	}{
		{
			name:  "all matched and acted post-flop",
			phase: PhaseFlop,
			seats: func() []*Seat {
				return []*Seat{dealtSeat(0, 100, 10), dealtSeat(1, 100, 10)}
			},
			currentBet: 10,
			acted:      map[int]bool{0: true, 1: true},
			bbIndex:    1,
			bbActed:    false,
			want:       true,
		},
		{
			name:  "unmatched bet keeps round open",
			phase: PhaseFlop,
			seats: func() []*Seat {
				return []*Seat{dealtSeat(0, 100, 10), dealtSeat(1, 100, 5)}
			},
			currentBet: 10,
			acted:      map[int]bool{0: true, 1: true},
			bbIndex:    1,
			want:       false,
		},
		{
			name:  "seat that has not acted keeps round open",
			phase: PhaseFlop,
			seats: func() []*Seat {
				return []*Seat{dealtSeat(0, 100, 0), dealtSeat(1, 100, 0)}
			},
			currentBet: 0,
			acted:      map[int]bool{0: true},
			bbIndex:    1,
			want:       false,
		},
		{
			name:  "pre-flop waits for big blind option",
			phase: PhasePreflop,
			seats: func() []*Seat {
				return []*Seat{dealtSeat(0, 100, 2), dealtSeat(1, 100, 2), dealtSeat(2, 100, 2)}
			},
			currentBet: 2,
			acted:      map[int]bool{0: true, 1: true, 2: true},
			bbIndex:    2,
			bbActed:    false,
			want:       false,
		},
		{
			name:  "pre-flop closes once big blind acts",
			phase: PhasePreflop,
			seats: func() []*Seat {
				return []*Seat{dealtSeat(0, 100, 2), dealtSeat(1, 100, 2), dealtSeat(2, 100, 2)}
			},
			currentBet: 2,
			acted:      map[int]bool{0: true, 1: true, 2: true},
			bbIndex:    2,
			bbActed:    true,
			want:       true,
		},
		{
			name:  "all-in big blind cannot hold the option",
			phase: PhasePreflop,
			seats: func() []*Seat {
				bb := dealtSeat(2, 0, 2)
				bb.AllIn = true
				return []*Seat{dealtSeat(0, 100, 2), dealtSeat(1, 100, 2), bb}
			},
			currentBet: 2,
			acted:      map[int]bool{0: true, 1: true},
			bbIndex:    2,
			bbActed:    false,
			want:       true,
		},
		{
			name:  "folded seats are ignored",
			phase: PhaseTurn,
			seats: func() []*Seat {
				folded := dealtSeat(1, 100, 0)
				folded.Folded = true
				return []*Seat{dealtSeat(0, 100, 20), folded, dealtSeat(2, 100, 20)}
			},
			currentBet: 20,
			acted:      map[int]bool{0: true, 2: true},
			bbIndex:    1,
			want:       true,
		},
		{
			name:  "all-in seats need not match",
			phase: PhaseTurn,
			seats: func() []*Seat {
				allIn := dealtSeat(1, 0, 5)
				allIn.AllIn = true
				return []*Seat{dealtSeat(0, 100, 20), allIn, dealtSeat(2, 100, 20)}
			},
			currentBet: 20,
			acted:      map[int]bool{0: true, 2: true},
			bbIndex:    1,
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roundComplete(tt.phase, tt.seats(), dec(tt.currentBet), tt.acted, tt.bbIndex, tt.bbActed)
			assert.Equal(t, tt.want, got)
		})
	}
}
