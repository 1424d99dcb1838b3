package game

import (
	"github.com/shopspring/decimal"

	"github.com/Palmergill/poker-app/internal/deck"
)

// SeatStatus is the table-level state of a seat, independent of any hand.
type SeatStatus int

const (
	SeatActive SeatStatus = iota
	SeatCashedOut
	SeatLeft
)

func (s SeatStatus) String() string {
	switch s {
	case SeatActive:
		return "ACTIVE"
	case SeatCashedOut:
		return "CASHED_OUT"
	case SeatLeft:
		return "LEFT"
	default:
		return "UNKNOWN"
	}
}

// Seat is one position at a table. Seats live in a bounded slice owned by the
// table controller; the hand engine addresses them by index only.
type Seat struct {
	Index         int
	PlayerID      string
	DisplayName   string
	Status        SeatStatus
	Stack         decimal.Decimal
	StartingStack decimal.Decimal
	FinalStack    *decimal.Decimal
	ReadyForNext  bool

	// Per-hand state, reset when a hand is dealt.
	HoleCards  []deck.Card
	Folded     bool
	AllIn      bool
	CurrentBet decimal.Decimal
	TotalBet   decimal.Decimal
}

// NewSeat creates an active seat with the buy-in as both stack and starting
// stack.
func NewSeat(index int, playerID, displayName string, buyIn decimal.Decimal) *Seat {
	return &Seat{
		Index:         index,
		PlayerID:      playerID,
		DisplayName:   displayName,
		Status:        SeatActive,
		Stack:         buyIn,
		StartingStack: buyIn,
		CurrentBet:    decimal.Zero,
		TotalBet:      decimal.Zero,
	}
}

// InHand reports whether the seat was dealt in and still contests the pot
// (all-in seats included).
func (s *Seat) InHand() bool {
	return len(s.HoleCards) > 0 && !s.Folded
}

// CanAct reports whether the seat may take an action: dealt in, not folded,
// not all-in.
func (s *Seat) CanAct() bool {
	return s.InHand() && !s.AllIn
}

// Eligible reports whether the seat can be dealt into the next hand.
func (s *Seat) Eligible() bool {
	return s.Status == SeatActive && s.Stack.IsPositive()
}

// resetForHand clears all per-hand state before cards are dealt.
func (s *Seat) resetForHand() {
	s.HoleCards = nil
	s.Folded = false
	s.AllIn = false
	s.CurrentBet = decimal.Zero
	s.TotalBet = decimal.Zero
	s.ReadyForNext = false
}

// post moves up to amount from the stack into the current bet, returning the
// chips actually moved. A seat whose stack empties goes all-in.
func (s *Seat) post(amount decimal.Decimal) decimal.Decimal {
	moved := decimal.Min(amount, s.Stack)
	s.Stack = s.Stack.Sub(moved)
	s.CurrentBet = s.CurrentBet.Add(moved)
	s.TotalBet = s.TotalBet.Add(moved)
	if s.Stack.IsZero() {
		s.AllIn = true
	}
	return moved
}
