// Package server exposes the command gateway (HTTP) and subscription gateway
// (websocket) in front of the table controllers.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/Palmergill/poker-app/internal/auth"
	"github.com/Palmergill/poker-app/internal/table"
)

// Server routes authenticated commands to table controllers.
type Server struct {
	addr     string
	logger   *log.Logger
	verifier auth.Verifier
	tables   *table.Manager
	upgrader websocket.Upgrader
}

// New creates the gateway server.
func New(addr string, verifier auth.Verifier, tables *table.Manager, logger *log.Logger) *Server {
	return &Server{
		addr:     addr,
		logger:   logger.WithPrefix("server"),
		verifier: verifier,
		tables:   tables,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /api/tables/{id}/join", s.withAuth(s.handleJoin))
	mux.HandleFunc("GET /api/games/{id}", s.withAuth(s.handleSnapshot))
	mux.HandleFunc("POST /api/games/{id}/start", s.withAuth(s.handleStart))
	mux.HandleFunc("POST /api/games/{id}/action", s.withAuth(s.handleAction))
	mux.HandleFunc("POST /api/games/{id}/ready", s.withAuth(s.handleReady))
	mux.HandleFunc("POST /api/games/{id}/cash_out", s.withAuth(s.handleCashOut))
	mux.HandleFunc("POST /api/games/{id}/buy_back_in", s.withAuth(s.handleBuyBackIn))
	mux.HandleFunc("POST /api/games/{id}/leave", s.withAuth(s.handleLeave))
	mux.HandleFunc("GET /api/games/{id}/hand-history", s.withAuth(s.handleHandHistory))
	mux.HandleFunc("GET /api/games/{id}/summary", s.withAuth(s.handleSummary))

	mux.HandleFunc("GET /ws/games/{id}", s.handleSubscribe)

	return mux
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
