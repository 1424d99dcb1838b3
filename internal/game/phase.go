package game

import "fmt"

// Phase represents where the current hand is in its lifecycle.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhasePreflop
	PhaseFlop
	PhaseTurn
	PhaseRiver
	PhaseShowdown
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "WAITING_FOR_PLAYERS"
	case PhasePreflop:
		return "PREFLOP"
	case PhaseFlop:
		return "FLOP"
	case PhaseTurn:
		return "TURN"
	case PhaseRiver:
		return "RIVER"
	case PhaseShowdown:
		return "SHOWDOWN"
	default:
		return "UNKNOWN"
	}
}

// betting reports whether player actions are accepted in this phase.
func (p Phase) betting() bool {
	return p >= PhasePreflop && p <= PhaseRiver
}

// ActionKind is a player action type.
type ActionKind int

const (
	Fold ActionKind = iota
	Check
	Call
	Bet
	Raise
)

func (k ActionKind) String() string {
	switch k {
	case Fold:
		return "FOLD"
	case Check:
		return "CHECK"
	case Call:
		return "CALL"
	case Bet:
		return "BET"
	case Raise:
		return "RAISE"
	default:
		return "UNKNOWN"
	}
}

// ParseActionKind decodes the wire form of an action kind.
func ParseActionKind(s string) (ActionKind, error) {
	switch s {
	case "FOLD":
		return Fold, nil
	case "CHECK":
		return Check, nil
	case "CALL":
		return Call, nil
	case "BET":
		return Bet, nil
	case "RAISE":
		return Raise, nil
	default:
		return 0, fmt.Errorf("%w: unknown action kind %q", ErrInvalidAction, s)
	}
}
