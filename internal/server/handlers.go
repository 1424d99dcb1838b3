package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Palmergill/poker-app/internal/auth"
	"github.com/Palmergill/poker-app/internal/game"
	"github.com/Palmergill/poker-app/internal/store"
	"github.com/Palmergill/poker-app/internal/table"
)

// mutatorTimeout bounds how long a command waits for a table's mutator before
// failing with busy.
const mutatorTimeout = 2 * time.Second

type authedHandler func(w http.ResponseWriter, r *http.Request, id *auth.Identity)

// withAuth authenticates the bearer token and passes the identity through.
func (s *Server) withAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		id, err := s.verifier.Verify(token)
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r, id)
	}
}

// lookupTable resolves the {id} path value to a controller.
func (s *Server) lookupTable(r *http.Request) (*table.Controller, error) {
	c, ok := s.tables.Get(r.PathValue("id"))
	if !ok {
		return nil, fmt.Errorf("%w: table %s", store.ErrNotFound, r.PathValue("id"))
	}
	return c, nil
}

func commandContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), mutatorTimeout)
}

type joinRequest struct {
	BuyIn decimal.Decimal `json:"buyIn"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	c, err := s.lookupTable(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", game.ErrInvalidAmount, err))
		return
	}

	ctx, cancel := commandContext(r)
	defer cancel()
	snap, err := c.Join(ctx, id, req.BuyIn)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	c, err := s.lookupTable(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := commandContext(r)
	defer cancel()
	snap, err := c.Start(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type actionRequest struct {
	Kind   string          `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	c, err := s.lookupTable(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", game.ErrInvalidAction, err))
		return
	}
	kind, err := game.ParseActionKind(req.Kind)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Amount.IsNegative() {
		writeError(w, fmt.Errorf("%w: amount cannot be negative", game.ErrInvalidAmount))
		return
	}

	ctx, cancel := commandContext(r)
	defer cancel()
	snap, err := c.Action(ctx, id, kind, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	c, err := s.lookupTable(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := commandContext(r)
	defer cancel()
	res, err := c.Ready(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCashOut(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	c, err := s.lookupTable(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := commandContext(r)
	defer cancel()
	res, err := c.CashOut(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type buyBackInRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) handleBuyBackIn(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	c, err := s.lookupTable(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req buyBackInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", game.ErrInvalidAmount, err))
		return
	}

	ctx, cancel := commandContext(r)
	defer cancel()
	res, err := c.BuyBackIn(ctx, id, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	c, err := s.lookupTable(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := commandContext(r)
	defer cancel()
	res, err := c.Leave(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	c, err := s.lookupTable(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := commandContext(r)
	defer cancel()
	snap, err := c.Snapshot(ctx, id.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleHandHistory(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	c, err := s.lookupTable(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := commandContext(r)
	defer cancel()
	history, err := c.HandHistory(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	if history == nil {
		history = []*game.HandRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"handHistory": history})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	c, err := s.lookupTable(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := commandContext(r)
	defer cancel()
	summary, err := c.Summary(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	status := "IN_PROGRESS"
	if summary != nil {
		status = "FINISHED"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"gameSummary": summary,
		"gameStatus":  status,
	})
}
