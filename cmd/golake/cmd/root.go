package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile          string
	logLevel         string
	logFormat        string
	watermarkBackend string
	lookback         time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "golake",
	Short: "Watermark-driven incremental database-to-lake exporter",
	Long: `A CLI tool for incrementally exporting changed rows from a relational
database into an S3 data lake as partitioned Parquet files.

Each table carries a persisted watermark, the timestamp it has been
processed through. A run selects only rows whose change-tracking columns
are newer than the watermark, transforms and loads them, then advances
the watermark. Reruns after a failure re-select the same window.

Features:
  - Per-table timestamp watermarks (file or S3 backed)
  - Strictly incremental selection across multiple timestamp columns
  - Hive-partitioned Parquet output (year=/month=/day=)
  - Derived columns: processing metadata, segments, value categories
  - Advisory locking against concurrent runs on the same table`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "golake.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Watermark overrides
	rootCmd.PersistentFlags().StringVar(&watermarkBackend, "watermark-backend", "",
		"Override watermark backend (file, s3)")
	rootCmd.PersistentFlags().DurationVar(&lookback, "lookback", 0,
		"Override the first-run lookback window (e.g. 720h)")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel         string
	LogFormat        string
	WatermarkBackend string
	Lookback         time.Duration
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:         logLevel,
		LogFormat:        logFormat,
		WatermarkBackend: watermarkBackend,
		Lookback:         lookback,
	}
}
