package game

import "errors"

// Validation errors are returned to the caller without any state change.
var (
	ErrInvalidAction          = errors.New("invalid action")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrNotYourTurn            = errors.New("not your turn to act")
	ErrGameNotInProgress      = errors.New("game is not in progress")
	ErrGameAlreadyStarted     = errors.New("game has already started")
	ErrNotEnoughPlayers       = errors.New("not enough players")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrTableFull              = errors.New("table is full")
	ErrAlreadySeated          = errors.New("player already seated")
	ErrNotSeated              = errors.New("player not seated")
	ErrAlreadyCashedOut       = errors.New("seat already cashed out")
	ErrCannotLeaveWhileActive = errors.New("cannot leave while active in a hand")
)
