package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pokerd.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server {
  address = "0.0.0.0"
  port    = 9090
}

auth {
  jwt_secret = "super-secret"
}

database {
  path = "/tmp/poker.db"
}

table "main" {
  id          = "table-1"
  max_seats   = 9
  small_blind = "0.50"
  big_blind   = "1.00"
  min_buy_in  = "20"
  max_buy_in  = "100"
}

player "alice" {
  id       = "alice-id"
  bankroll = "500"
}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddress())
	assert.Equal(t, "super-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "/tmp/poker.db", cfg.Database.Path)

	require.Len(t, cfg.Tables, 1)
	tbl := cfg.Tables[0].StoreTable()
	assert.Equal(t, "table-1", tbl.ID)
	assert.Equal(t, 9, tbl.MaxSeats)
	assert.Equal(t, "0.5", tbl.SmallBlind.String())
	assert.Equal(t, "1", tbl.BigBlind.String())

	require.Len(t, cfg.Players, 1)
	p := cfg.Players[0].StorePlayer()
	assert.Equal(t, "alice-id", p.ID)
	assert.Equal(t, "alice", p.DisplayName)
	assert.Equal(t, "500", p.Bankroll.String())
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
auth {
  jwt_secret = "s"
}

table "main" {
  small_blind = "1"
  big_blind   = "2"
}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "localhost:8080", cfg.ListenAddress())
	assert.Equal(t, "pokerd.db", cfg.Database.Path)

	tbl := cfg.Tables[0]
	assert.NotEmpty(t, tbl.ID)
	assert.Equal(t, 6, tbl.MaxSeats)
	assert.Equal(t, "40", tbl.MinBuyIn)
	assert.Equal(t, "200", tbl.MaxBuyIn)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Tables, 1)
}

func TestLoadConfigParseError(t *testing.T) {
	path := writeConfig(t, `table "broken" {`)
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = -1 }},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"zero small blind", func(c *Config) { c.Tables[0].SmallBlind = "0" }},
		{"big blind below small", func(c *Config) { c.Tables[0].BigBlind = "0.5" }},
		{"non-decimal blind", func(c *Config) { c.Tables[0].BigBlind = "two" }},
		{"max seats too low", func(c *Config) { c.Tables[0].MaxSeats = 1 }},
		{"inverted buy-in range", func(c *Config) { c.Tables[0].MinBuyIn = "300" }},
		{"bad bankroll", func(c *Config) {
			c.Players = []PlayerConfig{{Name: "x", ID: "x", Bankroll: "lots"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.applyDefaults()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
