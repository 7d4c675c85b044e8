package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/risingsun/risk"
	"github.com/rustyeddy/risingsun/sim"
)

// Config is the complete backtest configuration.
type Config struct {
	Data     DataConfig     `json:"data" yaml:"data"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Session  SessionConfig  `json:"session" yaml:"session"`
	Sizing   SizingConfig   `json:"sizing" yaml:"sizing"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
}

// DataConfig says where candles come from.
type DataConfig struct {
	Instrument string `json:"instrument" yaml:"instrument"`
	Path       string `json:"path" yaml:"path"` // CSV: time,open,high,low,close[,volume]
	Timeframe  string `json:"timeframe,omitempty" yaml:"timeframe,omitempty"`
	From       string `json:"from,omitempty" yaml:"from,omitempty"` // RFC3339, inclusive
	To         string `json:"to,omitempty" yaml:"to,omitempty"`     // RFC3339, exclusive
}

// StrategyConfig holds the indicator and target parameters.
type StrategyConfig struct {
	ATRPeriod  int     `json:"atr_period" yaml:"atr_period"`
	Multiplier float64 `json:"multiplier" yaml:"multiplier"`
	EMAPeriod  int     `json:"ema_period" yaml:"ema_period"`
	RewardRisk float64 `json:"reward_risk" yaml:"reward_risk"`
}

// SessionConfig holds the periodic forced closure and re-entry cooldown.
type SessionConfig struct {
	ForcedClosure    bool `json:"forced_closure" yaml:"forced_closure"`
	BoundaryBase     int  `json:"boundary_base" yaml:"boundary_base"`
	BoundaryInterval int  `json:"boundary_interval" yaml:"boundary_interval"`
	Cooldown         int  `json:"cooldown,omitempty" yaml:"cooldown,omitempty"`
}

// SizingConfig holds the fixed risk budget.
type SizingConfig struct {
	RiskBudget float64 `json:"risk_budget" yaml:"risk_budget"`
	Rounding   string  `json:"rounding,omitempty" yaml:"rounding,omitempty"` // none, floor, nearest, ceil
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	EventsFile string `json:"events_file,omitempty" yaml:"events_file,omitempty"`
	RunsFile   string `json:"runs_file,omitempty" yaml:"runs_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	OrgDir     string `json:"org_dir,omitempty" yaml:"org_dir,omitempty"`
}

// MetricsConfig names the Prometheus textfile written after a run. Empty
// disables it.
type MetricsConfig struct {
	Textfile string `json:"textfile,omitempty" yaml:"textfile,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration as YAML for .yaml/.yml paths and JSON
// otherwise.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// StrategyYAML returns the strategy, session and sizing sections as YAML,
// for storing alongside a journaled run.
func (c *Config) StrategyYAML() ([]byte, error) {
	return yaml.Marshal(struct {
		Strategy StrategyConfig `yaml:"strategy"`
		Session  SessionConfig  `yaml:"session"`
		Sizing   SizingConfig   `yaml:"sizing"`
	}{c.Strategy, c.Session, c.Sizing})
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Data.Instrument == "" {
		return fmt.Errorf("data.instrument is required")
	}
	if c.Data.Path == "" {
		return fmt.Errorf("data.path is required")
	}
	if _, _, err := c.Data.Range(); err != nil {
		return err
	}
	if c.Strategy.ATRPeriod <= 0 {
		return fmt.Errorf("strategy.atr_period must be positive")
	}
	if c.Strategy.Multiplier <= 0 {
		return fmt.Errorf("strategy.multiplier must be positive")
	}
	if c.Strategy.EMAPeriod <= 0 {
		return fmt.Errorf("strategy.ema_period must be positive")
	}
	if c.Strategy.RewardRisk <= 0 {
		return fmt.Errorf("strategy.reward_risk must be positive")
	}
	if c.Session.BoundaryBase <= 0 {
		return fmt.Errorf("session.boundary_base must be positive")
	}
	if c.Session.BoundaryInterval <= 0 {
		return fmt.Errorf("session.boundary_interval must be positive")
	}
	if c.Session.Cooldown < 0 {
		return fmt.Errorf("session.cooldown must not be negative")
	}
	if c.Sizing.RiskBudget <= 0 {
		return fmt.Errorf("sizing.risk_budget must be positive")
	}
	if _, err := risk.ParseRounding(c.Sizing.Rounding); err != nil {
		return fmt.Errorf("sizing.rounding: %w", err)
	}

	switch c.Journal.Type {
	case "none":
	case "csv":
		if c.Journal.EventsFile == "" || c.Journal.RunsFile == "" {
			return fmt.Errorf("journal events_file and runs_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// Range parses From and To. Zero times mean unbounded.
func (d DataConfig) Range() (from, to time.Time, err error) {
	if d.From != "" {
		if from, err = time.Parse(time.RFC3339, d.From); err != nil {
			return from, to, fmt.Errorf("data.from: %w", err)
		}
	}
	if d.To != "" {
		if to, err = time.Parse(time.RFC3339, d.To); err != nil {
			return from, to, fmt.Errorf("data.to: %w", err)
		}
	}
	if !from.IsZero() && !to.IsZero() && !to.After(from) {
		return from, to, fmt.Errorf("data.to must be after data.from")
	}
	return from, to, nil
}

// SimParams maps the configuration onto simulator parameters.
func (c *Config) SimParams() (sim.Params, error) {
	r, err := risk.ParseRounding(c.Sizing.Rounding)
	if err != nil {
		return sim.Params{}, fmt.Errorf("sizing.rounding: %w", err)
	}
	return sim.Params{
		ATRPeriod:        c.Strategy.ATRPeriod,
		Multiplier:       c.Strategy.Multiplier,
		EMAPeriod:        c.Strategy.EMAPeriod,
		RewardRisk:       c.Strategy.RewardRisk,
		RiskBudget:       c.Sizing.RiskBudget,
		Rounding:         r,
		ForcedClosure:    c.Session.ForcedClosure,
		BoundaryBase:     c.Session.BoundaryBase,
		BoundaryInterval: c.Session.BoundaryInterval,
		Cooldown:         c.Session.Cooldown,
	}, nil
}

// Default returns the parameters the strategy was tuned with on 15 minute
// index candles: 71 bars to the first session close, 75 bars per session.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Instrument: "NIFTY",
			Path:       "./candles.csv",
			Timeframe:  "15m",
		},
		Strategy: StrategyConfig{
			ATRPeriod:  12,
			Multiplier: 3,
			EMAPeriod:  5,
			RewardRisk: 4,
		},
		Session: SessionConfig{
			ForcedClosure:    true,
			BoundaryBase:     71,
			BoundaryInterval: 75,
		},
		Sizing: SizingConfig{
			RiskBudget: 500,
			Rounding:   "none",
		},
		Journal: JournalConfig{
			Type:       "csv",
			EventsFile: "./events.csv",
			RunsFile:   "./runs.csv",
		},
	}
}
