package server

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"

	"github.com/Palmergill/poker-app/internal/store"
)

// Config is the complete server configuration. Blocks are pointers so that
// omitted blocks decode as absent and pick up defaults.
type Config struct {
	Server   *ServerSettings   `hcl:"server,block"`
	Auth     *AuthSettings     `hcl:"auth,block"`
	Database *DatabaseSettings `hcl:"database,block"`
	Tables   []TableConfig     `hcl:"table,block"`
	Players  []PlayerConfig    `hcl:"player,block"`
}

// ServerSettings contains listener-level configuration.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// AuthSettings configures bearer token verification.
type AuthSettings struct {
	JWTSecret string `hcl:"jwt_secret"`
}

// DatabaseSettings configures persistence.
type DatabaseSettings struct {
	Path string `hcl:"path,optional"`
}

// TableConfig provisions one table at startup.
type TableConfig struct {
	Name       string `hcl:"name,label"`
	ID         string `hcl:"id,optional"`
	MaxSeats   int    `hcl:"max_seats,optional"`
	SmallBlind string `hcl:"small_blind"`
	BigBlind   string `hcl:"big_blind"`
	MinBuyIn   string `hcl:"min_buy_in,optional"`
	MaxBuyIn   string `hcl:"max_buy_in,optional"`
}

// PlayerConfig seeds a demo player with a bankroll. Registration is handled
// out of band; these exist so a fresh database is playable.
type PlayerConfig struct {
	Name        string `hcl:"name,label"`
	ID          string `hcl:"id,optional"`
	Bankroll    string `hcl:"bankroll,optional"`
	DisplayName string `hcl:"display_name,optional"`
}

// DefaultConfig returns the development configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: &ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Auth:     &AuthSettings{JWTSecret: "dev-secret"},
		Database: &DatabaseSettings{Path: "pokerd.db"},
		Tables: []TableConfig{
			{
				Name:       "main",
				MaxSeats:   6,
				SmallBlind: "1",
				BigBlind:   "2",
				MinBuyIn:   "40",
				MaxBuyIn:   "200",
			},
		},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to defaults
// when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		config := DefaultConfig()
		config.applyDefaults()
		return config, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse config: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("decode config: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Auth == nil {
		c.Auth = &AuthSettings{}
	}
	if c.Database == nil {
		c.Database = &DatabaseSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Database.Path == "" {
		c.Database.Path = "pokerd.db"
	}

	for i := range c.Tables {
		t := &c.Tables[i]
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.MaxSeats == 0 {
			t.MaxSeats = 6
		}
		if t.MinBuyIn == "" {
			if bb, err := decimal.NewFromString(t.BigBlind); err == nil {
				t.MinBuyIn = bb.Mul(decimal.NewFromInt(20)).String()
			}
		}
		if t.MaxBuyIn == "" {
			if bb, err := decimal.NewFromString(t.BigBlind); err == nil {
				t.MaxBuyIn = bb.Mul(decimal.NewFromInt(100)).String()
			}
		}
	}

	for i := range c.Players {
		p := &c.Players[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.DisplayName == "" {
			p.DisplayName = p.Name
		}
		if p.Bankroll == "" {
			p.Bankroll = "1000"
		}
	}
}

// Validate checks the configuration for fatal problems.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth block must set jwt_secret")
	}

	for _, t := range c.Tables {
		if t.MaxSeats < 2 || t.MaxSeats > 10 {
			return fmt.Errorf("table %s: max_seats must be between 2 and 10", t.Name)
		}
		sb, err := decimal.NewFromString(t.SmallBlind)
		if err != nil {
			return fmt.Errorf("table %s: invalid small_blind %q", t.Name, t.SmallBlind)
		}
		bb, err := decimal.NewFromString(t.BigBlind)
		if err != nil {
			return fmt.Errorf("table %s: invalid big_blind %q", t.Name, t.BigBlind)
		}
		if !sb.IsPositive() {
			return fmt.Errorf("table %s: small blind must be positive", t.Name)
		}
		if !bb.GreaterThan(sb) {
			return fmt.Errorf("table %s: big blind must be greater than small blind", t.Name)
		}
		minBuy, err := decimal.NewFromString(t.MinBuyIn)
		if err != nil {
			return fmt.Errorf("table %s: invalid min_buy_in %q", t.Name, t.MinBuyIn)
		}
		maxBuy, err := decimal.NewFromString(t.MaxBuyIn)
		if err != nil {
			return fmt.Errorf("table %s: invalid max_buy_in %q", t.Name, t.MaxBuyIn)
		}
		if !minBuy.LessThan(maxBuy) {
			return fmt.Errorf("table %s: min_buy_in must be less than max_buy_in", t.Name)
		}
		if minBuy.LessThan(bb) {
			return fmt.Errorf("table %s: min_buy_in must cover the big blind", t.Name)
		}
	}

	for _, p := range c.Players {
		if _, err := decimal.NewFromString(p.Bankroll); err != nil {
			return fmt.Errorf("player %s: invalid bankroll %q", p.Name, p.Bankroll)
		}
	}
	return nil
}

// ListenAddress returns the host:port to bind.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// StoreTable converts a validated table config to its persistent row.
func (t TableConfig) StoreTable() store.Table {
	return store.Table{
		ID:         t.ID,
		Name:       t.Name,
		MaxSeats:   t.MaxSeats,
		SmallBlind: decimal.RequireFromString(t.SmallBlind),
		BigBlind:   decimal.RequireFromString(t.BigBlind),
		MinBuyIn:   decimal.RequireFromString(t.MinBuyIn),
		MaxBuyIn:   decimal.RequireFromString(t.MaxBuyIn),
	}
}

// StorePlayer converts a validated player config to its persistent row.
func (p PlayerConfig) StorePlayer() store.Player {
	return store.Player{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Bankroll:    decimal.RequireFromString(p.Bankroll),
	}
}
