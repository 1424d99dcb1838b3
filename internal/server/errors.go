package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Palmergill/poker-app/internal/auth"
	"github.com/Palmergill/poker-app/internal/game"
	"github.com/Palmergill/poker-app/internal/store"
	"github.com/Palmergill/poker-app/internal/table"
)

// errorResponse is the envelope for every failed command.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// kindFor maps an engine error to its stable kind string and HTTP status.
func kindFor(err error) (string, int) {
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		return "unauthenticated", http.StatusUnauthorized
	case errors.Is(err, game.ErrNotSeated):
		return "not_seated", http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return "not_found", http.StatusNotFound
	case errors.Is(err, game.ErrInvalidAmount):
		return "invalid_amount", http.StatusBadRequest
	case errors.Is(err, game.ErrInsufficientFunds):
		return "insufficient_funds", http.StatusBadRequest
	case errors.Is(err, game.ErrTableFull):
		return "table_full", http.StatusConflict
	case errors.Is(err, game.ErrAlreadySeated):
		return "already_seated", http.StatusConflict
	case errors.Is(err, game.ErrNotYourTurn):
		return "not_your_turn", http.StatusConflict
	case errors.Is(err, game.ErrGameNotInProgress):
		return "game_not_in_progress", http.StatusConflict
	case errors.Is(err, game.ErrGameAlreadyStarted):
		return "game_already_started", http.StatusConflict
	case errors.Is(err, game.ErrCannotLeaveWhileActive):
		return "cannot_leave_while_active", http.StatusConflict
	case errors.Is(err, game.ErrAlreadyCashedOut):
		return "already_cashed_out", http.StatusConflict
	case errors.Is(err, game.ErrNotEnoughPlayers), errors.Is(err, game.ErrInvalidAction):
		return "invalid_action", http.StatusBadRequest
	case errors.Is(err, table.ErrBusy):
		return "busy", http.StatusServiceUnavailable
	default:
		return "internal", http.StatusInternalServerError
	}
}

// writeError renders the error envelope. Internal errors hide their detail.
func writeError(w http.ResponseWriter, err error) {
	kind, status := kindFor(err)
	resp := errorResponse{Error: kind}
	if status != http.StatusInternalServerError {
		resp.Detail = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON renders a successful response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
