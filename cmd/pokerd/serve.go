package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/Palmergill/poker-app/internal/auth"
	"github.com/Palmergill/poker-app/internal/broadcast"
	"github.com/Palmergill/poker-app/internal/server"
	"github.com/Palmergill/poker-app/internal/store"
	"github.com/Palmergill/poker-app/internal/table"
)

// ServeCmd runs the server.
type ServeCmd struct {
	Config string `kong:"default='pokerd.hcl',help='Path to HCL configuration file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
}

func (c *ServeCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	level, err := log.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid config: log level %q", cfg.Server.LogLevel)
	}
	logger.SetLevel(level)
	if c.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, p := range cfg.Players {
		if err := st.CreatePlayer(ctx, p.StorePlayer()); err != nil {
			return fmt.Errorf("seed player %s: %w", p.Name, err)
		}
	}

	broadcaster := broadcast.New(logger)
	tables := table.NewManager(table.ManagerOptions{
		Store:       st,
		Broadcaster: broadcaster,
		Logger:      logger,
	})
	for _, t := range cfg.Tables {
		if _, err := tables.Create(ctx, t.StoreTable()); err != nil {
			return fmt.Errorf("seed table %s: %w", t.Name, err)
		}
	}

	verifier := auth.NewJWTVerifier(cfg.Auth.JWTSecret)
	srv := server.New(cfg.ListenAddress(), verifier, tables, logger)

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
