package table

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/Palmergill/poker-app/internal/broadcast"
	"github.com/Palmergill/poker-app/internal/randutil"
	"github.com/Palmergill/poker-app/internal/store"
)

// Manager is the registry of live table controllers. Controllers for finished
// games stay registered so summary and history queries keep working after the
// persistent table row is gone.
type Manager struct {
	store       store.Store
	broadcaster *broadcast.Broadcaster
	clock       quartz.Clock
	logger      *log.Logger
	newRNG      func() *rand.Rand

	mu     sync.RWMutex
	tables map[string]*Controller
}

// ManagerOptions configures a Manager. NewRNG defaults to crypto-seeded
// generators; tests inject seeded ones.
type ManagerOptions struct {
	Store       store.Store
	Broadcaster *broadcast.Broadcaster
	Clock       quartz.Clock
	Logger      *log.Logger
	NewRNG      func() *rand.Rand
}

// NewManager creates an empty registry.
func NewManager(opts ManagerOptions) *Manager {
	newRNG := opts.NewRNG
	if newRNG == nil {
		newRNG = randutil.NewCrypto
	}
	clock := opts.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Manager{
		store:       opts.Store,
		broadcaster: opts.Broadcaster,
		clock:       clock,
		logger:      opts.Logger,
		newRNG:      newRNG,
		tables:      make(map[string]*Controller),
	}
}

// Create persists a table row and registers its controller.
func (m *Manager) Create(ctx context.Context, t store.Table) (*Controller, error) {
	if err := m.store.CreateTable(ctx, t); err != nil {
		return nil, fmt.Errorf("create table %s: %w", t.ID, err)
	}

	c := NewController(Options{
		Table:       t,
		Store:       m.store,
		Broadcaster: m.broadcaster,
		Clock:       m.clock,
		RNG:         m.newRNG(),
		Logger:      m.logger,
	})

	m.mu.Lock()
	m.tables[t.ID] = c
	m.mu.Unlock()

	m.logger.Info("table registered", "table", t.ID, "name", t.Name,
		"blinds", fmt.Sprintf("%s/%s", t.SmallBlind, t.BigBlind))
	return c, nil
}

// Get looks up a controller by table id.
func (m *Manager) Get(id string) (*Controller, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.tables[id]
	return c, ok
}
