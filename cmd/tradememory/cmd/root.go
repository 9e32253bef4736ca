package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tradememory/config"
)

var rootCmd = &cobra.Command{
	Use:   "tradememory",
	Short: "A trade-memory and adaptive risk engine for discretionary trading agents",
	Long: `Tradememory records trade decisions and outcomes in a SQLite journal and
turns the accumulated history into actionable feedback.

It provides tools for:
  - Journaling trade decisions with full market context
  - Discovering performance patterns in closed-trade history
  - Generating parameter adjustments from high-confidence patterns
  - Recalculating adaptive risk constraints per agent
  - Producing daily, weekly and monthly reflection reports`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

var (
	dbPath  string
	cfgPath string
	verbose bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "path to SQLite database (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// loadConfig resolves the effective configuration: the config file when one
// is given, built-in defaults otherwise. The --db flag wins over both.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.LoadFromFile(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	return cfg, nil
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
