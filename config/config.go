// Package config loads and validates the application configuration from
// YAML or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"tradememory/risk"
)

// Config is the complete application configuration.
type Config struct {
	Database   DatabaseConfig   `json:"database" yaml:"database"`
	Risk       RiskConfig       `json:"risk" yaml:"risk"`
	Analysis   AnalysisConfig   `json:"analysis" yaml:"analysis"`
	Reflection ReflectionConfig `json:"reflection" yaml:"reflection"`
}

// DatabaseConfig locates the SQLite file shared by all stores.
type DatabaseConfig struct {
	Path string `json:"path" yaml:"path"`
}

// RiskConfig feeds the adaptive risk calculator's policy.
type RiskConfig struct {
	MaxLotSize           float64 `json:"max_lot_size" yaml:"max_lot_size"`
	DailyLossLimit       float64 `json:"daily_loss_limit" yaml:"daily_loss_limit"`
	ConsecutiveLossLimit int     `json:"consecutive_loss_limit" yaml:"consecutive_loss_limit"`
	LookbackDays         int     `json:"lookback_days" yaml:"lookback_days"`
	MinTrades            int     `json:"min_trades" yaml:"min_trades"`
	MinLotSize           float64 `json:"min_lot_size" yaml:"min_lot_size"`
}

// AnalysisConfig parameterizes pattern detection.
type AnalysisConfig struct {
	BaselineEquity     float64 `json:"baseline_equity" yaml:"baseline_equity"`
	DiagnosticStrategy string  `json:"diagnostic_strategy" yaml:"diagnostic_strategy"`
}

// ReflectionConfig parameterizes narrative summaries.
type ReflectionConfig struct {
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
}

// Policy converts the risk section into a calculator policy.
func (c *Config) Policy() risk.Policy {
	return risk.Policy{
		MaxLotSize:           c.Risk.MaxLotSize,
		DailyLossLimit:       c.Risk.DailyLossLimit,
		ConsecutiveLossLimit: c.Risk.ConsecutiveLossLimit,
		LookbackDays:         c.Risk.LookbackDays,
		MinTrades:            c.Risk.MinTrades,
		MinLotSize:           c.Risk.MinLotSize,
		BaselineEquity:       c.Analysis.BaselineEquity,
	}.Normalize()
}

// LoadFromFile loads configuration from a file (JSON or YAML based on content)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
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

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Risk.MaxLotSize < 0 {
		return fmt.Errorf("risk.max_lot_size must not be negative")
	}
	if c.Risk.DailyLossLimit < 0 {
		return fmt.Errorf("risk.daily_loss_limit must not be negative")
	}
	if c.Risk.ConsecutiveLossLimit < 0 {
		return fmt.Errorf("risk.consecutive_loss_limit must not be negative")
	}
	if c.Risk.LookbackDays < 0 {
		return fmt.Errorf("risk.lookback_days must not be negative")
	}
	if c.Risk.MinLotSize < 0 {
		return fmt.Errorf("risk.min_lot_size must not be negative")
	}
	if c.Risk.MaxLotSize > 0 && c.Risk.MinLotSize > c.Risk.MaxLotSize {
		return fmt.Errorf("risk.min_lot_size must not exceed risk.max_lot_size")
	}
	if c.Analysis.BaselineEquity < 0 {
		return fmt.Errorf("analysis.baseline_equity must not be negative")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	policy := risk.DefaultPolicy()
	return &Config{
		Database: DatabaseConfig{
			Path: "./tradememory.db",
		},
		Risk: RiskConfig{
			MaxLotSize:           policy.MaxLotSize,
			DailyLossLimit:       policy.DailyLossLimit,
			ConsecutiveLossLimit: policy.ConsecutiveLossLimit,
			LookbackDays:         policy.LookbackDays,
			MinTrades:            policy.MinTrades,
			MinLotSize:           policy.MinLotSize,
		},
		Analysis: AnalysisConfig{
			BaselineEquity:     policy.BaselineEquity,
			DiagnosticStrategy: "MeanReversion",
		},
		Reflection: ReflectionConfig{},
	}
}
