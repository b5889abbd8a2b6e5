// Package config loads the engine's runtime configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cadre-games/ordercore/internal/domain"
)

// Config holds the engine's runtime configuration.
type Config struct {
	DBPath       string `json:"db_path"`
	ListenAddr   string `json:"listen_addr"`
	CatalogPath  string `json:"catalog_path"`
	ScenarioPath string `json:"scenario_path"`

	// TickRateHz is how many simulation ticks run per second.
	TickRateHz int `json:"tick_rate_hz"`

	// AutoOrderIntervalTicks is how many ticks pass between auto-order
	// evaluations.
	AutoOrderIntervalTicks int `json:"auto_order_interval_ticks"`

	// SnapshotIntervalTicks is how many ticks pass between world
	// snapshots. Zero disables snapshots.
	SnapshotIntervalTicks int `json:"snapshot_interval_ticks"`

	// SnapshotKeep is how many snapshots to retain.
	SnapshotKeep int `json:"snapshot_keep"`

	// StopOrder is the registered order type every agent idles on.
	StopOrder domain.OrderTypeID `json:"stop_order"`

	// DefaultAcquisitionRadius overrides the engine default when positive.
	DefaultAcquisitionRadius float64 `json:"default_acquisition_radius"`
}

// Load reads a JSON config file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config JSON: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":9820"
	}
	if c.TickRateHz == 0 {
		c.TickRateHz = 20
	}
	if c.AutoOrderIntervalTicks == 0 {
		c.AutoOrderIntervalTicks = 5
	}
	if c.SnapshotIntervalTicks == 0 {
		c.SnapshotIntervalTicks = 200
	}
	if c.SnapshotKeep == 0 {
		c.SnapshotKeep = 10
	}
	if c.StopOrder == "" {
		c.StopOrder = "stop"
	}
}

func (c *Config) validate() error {
	var problems []string

	if c.DBPath == "" {
		problems = append(problems, "db_path is required")
	}
	if c.TickRateHz < 0 {
		problems = append(problems, "tick_rate_hz must be positive")
	}
	if c.AutoOrderIntervalTicks < 0 {
		problems = append(problems, "auto_order_interval_ticks must be positive")
	}
	if c.SnapshotIntervalTicks < 0 {
		problems = append(problems, "snapshot_interval_ticks must be positive")
	}
	if c.DefaultAcquisitionRadius < 0 {
		problems = append(problems, "default_acquisition_radius must not be negative")
	}

	if len(problems) > 0 {
		return &domain.EngineError{
			Code:    domain.ErrConfigInvalid.Code,
			Message: fmt.Sprintf("%s: %v", domain.ErrConfigInvalid.Message, problems),
		}
	}
	return nil
}
