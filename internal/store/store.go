// Package store persists players, tables, hand records and game summaries.
//
// The engine requires atomic multi-row updates; every operation here runs in
// a single transaction. Money is stored as fixed-point decimal strings, never
// floats.
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Palmergill/poker-app/internal/game"
)

var (
	// ErrNotFound indicates the row does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrInsufficientFunds indicates a debit would overdraw a bankroll.
	ErrInsufficientFunds = errors.New("store: insufficient funds")
)

// Player is a persistent player row.
type Player struct {
	ID          string
	DisplayName string
	Bankroll    decimal.Decimal
}

// Table is a persistent table configuration row.
type Table struct {
	ID         string
	Name       string
	MaxSeats   int
	SmallBlind decimal.Decimal
	BigBlind   decimal.Decimal
	MinBuyIn   decimal.Decimal
	MaxBuyIn   decimal.Decimal
}

// Store is the persistence contract the table controller depends on.
type Store interface {
	CreatePlayer(ctx context.Context, p Player) error
	GetPlayer(ctx context.Context, id string) (Player, error)

	// DebitBankroll atomically withdraws amount from the player's bankroll,
	// failing with ErrInsufficientFunds when it would overdraw.
	DebitBankroll(ctx context.Context, playerID string, amount decimal.Decimal) (decimal.Decimal, error)

	// CreditBankroll atomically deposits amount into the player's bankroll.
	CreditBankroll(ctx context.Context, playerID string, amount decimal.Decimal) (decimal.Decimal, error)

	CreateTable(ctx context.Context, t Table) error
	GetTable(ctx context.Context, id string) (Table, error)

	// AppendHandRecord archives one completed hand; records are append-only.
	AppendHandRecord(ctx context.Context, tableID string, rec *game.HandRecord) error
	HandRecords(ctx context.Context, tableID string) ([]*game.HandRecord, error)

	// SaveGameSummaryAndDeleteTable writes the terminal game summary and
	// removes the table row in one transaction.
	SaveGameSummaryAndDeleteTable(ctx context.Context, tableID string, summary []byte) error

	Close() error
}
