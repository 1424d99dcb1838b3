package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/Palmergill/poker-app/internal/game"
)

// SQLite implements Store on a sqlite database.
type SQLite struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema
// exists. Use ":memory:" for tests.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Per-table serialization already bounds concurrency; a single
	// connection keeps sqlite's locking out of the picture.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func createSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS player (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			bankroll TEXT NOT NULL DEFAULT '0',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS game_table (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			max_seats INTEGER NOT NULL,
			small_blind TEXT NOT NULL,
			big_blind TEXT NOT NULL,
			min_buy_in TEXT NOT NULL,
			max_buy_in TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS hand_record (
			table_id TEXT NOT NULL,
			hand_number INTEGER NOT NULL,
			payload TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (table_id, hand_number)
		)`,
		`CREATE TABLE IF NOT EXISTS game_summary (
			table_id TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (s *SQLite) CreatePlayer(ctx context.Context, p Player) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO player (id, display_name, bankroll) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET display_name = excluded.display_name`,
		p.ID, p.DisplayName, p.Bankroll.String())
	return err
}

func (s *SQLite) GetPlayer(ctx context.Context, id string) (Player, error) {
	var p Player
	var bankroll string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, display_name, bankroll FROM player WHERE id = ?`, id).
		Scan(&p.ID, &p.DisplayName, &bankroll)
	if err == sql.ErrNoRows {
		return Player{}, ErrNotFound
	}
	if err != nil {
		return Player{}, fmt.Errorf("get player: %w", err)
	}
	p.Bankroll, err = decimal.NewFromString(bankroll)
	if err != nil {
		return Player{}, fmt.Errorf("corrupt bankroll for player %s: %w", id, err)
	}
	return p, nil
}

func (s *SQLite) DebitBankroll(ctx context.Context, playerID string, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.adjustBankroll(ctx, playerID, amount.Neg())
}

func (s *SQLite) CreditBankroll(ctx context.Context, playerID string, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.adjustBankroll(ctx, playerID, amount)
}

func (s *SQLite) adjustBankroll(ctx context.Context, playerID string, delta decimal.Decimal) (decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT bankroll FROM player WHERE id = ?`, playerID).Scan(&raw)
	if err == sql.ErrNoRows {
		return decimal.Zero, ErrNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("read bankroll: %w", err)
	}
	bankroll, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt bankroll for player %s: %w", playerID, err)
	}

	next := bankroll.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx, `UPDATE player SET bankroll = ? WHERE id = ?`, next.String(), playerID); err != nil {
		return decimal.Zero, fmt.Errorf("write bankroll: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return decimal.Zero, err
	}
	return next, nil
}

func (s *SQLite) CreateTable(ctx context.Context, t Table) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO game_table (id, name, max_seats, small_blind, big_blind, min_buy_in, max_buy_in)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		t.ID, t.Name, t.MaxSeats,
		t.SmallBlind.String(), t.BigBlind.String(), t.MinBuyIn.String(), t.MaxBuyIn.String())
	return err
}

func (s *SQLite) GetTable(ctx context.Context, id string) (Table, error) {
	var t Table
	var sb, bb, minBuy, maxBuy string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, max_seats, small_blind, big_blind, min_buy_in, max_buy_in
		 FROM game_table WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.MaxSeats, &sb, &bb, &minBuy, &maxBuy)
	if err == sql.ErrNoRows {
		return Table{}, ErrNotFound
	}
	if err != nil {
		return Table{}, fmt.Errorf("get table: %w", err)
	}
	for _, f := range []struct {
		raw string
		dst *decimal.Decimal
	}{{sb, &t.SmallBlind}, {bb, &t.BigBlind}, {minBuy, &t.MinBuyIn}, {maxBuy, &t.MaxBuyIn}} {
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return Table{}, fmt.Errorf("corrupt table %s: %w", id, err)
		}
		*f.dst = v
	}
	return t, nil
}

func (s *SQLite) AppendHandRecord(ctx context.Context, tableID string, rec *game.HandRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal hand record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO hand_record (table_id, hand_number, payload) VALUES (?, ?, ?)`,
		tableID, rec.HandNumber, string(payload))
	if err != nil {
		return fmt.Errorf("append hand record: %w", err)
	}
	return nil
}

func (s *SQLite) HandRecords(ctx context.Context, tableID string) ([]*game.HandRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM hand_record WHERE table_id = ? ORDER BY hand_number`, tableID)
	if err != nil {
		return nil, fmt.Errorf("load hand records: %w", err)
	}
	defer rows.Close()

	var records []*game.HandRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rec game.HandRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("corrupt hand record for table %s: %w", tableID, err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func (s *SQLite) SaveGameSummaryAndDeleteTable(ctx context.Context, tableID string, summary []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO game_summary (table_id, payload) VALUES (?, ?)`,
		tableID, string(summary)); err != nil {
		return fmt.Errorf("save game summary: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM game_table WHERE id = ?`, tableID); err != nil {
		return fmt.Errorf("delete table: %w", err)
	}
	return tx.Commit()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
