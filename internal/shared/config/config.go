package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Config holds the application settings loaded from yaml. Database
// credentials stay in the environment (see internal/shared/db); environment
// variables override the values below where noted.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Auction struct {
		// Currency is the balances-table asset key used for payment
		// settlement.
		Currency string `yaml:"currency"`
		// CustodyAccount holds assets pulled in at auction open.
		CustodyAccount string `yaml:"custody_account"`
		// LedgerMode selects the custody backend: "postgres" or "memory".
		LedgerMode string `yaml:"ledger_mode"`
	} `yaml:"auction"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Load reads and validates the yaml config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	if c.Auction.Currency == "" {
		return fmt.Errorf("auction currency is required")
	}
	if _, err := uuid.Parse(c.Auction.CustodyAccount); err != nil {
		return fmt.Errorf("invalid custody account: %w", err)
	}
	switch c.Auction.LedgerMode {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown ledger mode: %s", c.Auction.LedgerMode)
	}
	return nil
}

// CustodyUUID returns the parsed custody account. Validate must have passed.
func (c *Config) CustodyUUID() uuid.UUID {
	id, _ := uuid.Parse(c.Auction.CustodyAccount)
	return id
}

func overrideWithEnv(cfg *Config) {
	if addr := os.Getenv("SERVER_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if mode := os.Getenv("LEDGER_MODE"); mode != "" {
		cfg.Auction.LedgerMode = mode
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.Logging.Level = lvl
	}
}
