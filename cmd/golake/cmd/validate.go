package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/golake/internal/database"
	"github.com/dbsmedya/golake/internal/logger"
)

var validateSkipConnect bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and run connectivity checks",
	Long: `Validate checks the configuration file and verifies that the source
database is reachable.

Checks performed:
  - Configuration syntax and required fields
  - Per-table change-tracking settings (primary key, timestamp columns)
  - Derived-column (transform) settings
  - Source database connectivity

Example:
  golake validate --config golake.yaml`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateSkipConnect, "skip-connect", false,
		"Skip the source database connectivity check")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cmd.Printf("=== Configuration Validation ===\n")
	cmd.Printf("Config file: %s\n", GetConfigFile())
	cmd.Printf("Tables found: %d\n\n", len(cfg.Tables))

	if err := cfg.Validate(); err != nil {
		cmd.Printf("Configuration invalid:\n%v\n", err)
		return fmt.Errorf("configuration validation failed")
	}
	cmd.Println("Configuration valid")

	if validateSkipConnect {
		cmd.Println("\nSkipping connectivity check (--skip-connect)")
		return nil
	}

	// Initialize logger
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Info("Checking source database connectivity...")

	// Create database manager
	dbManager := database.NewManager(cfg)

	ctx := context.Background()
	if err := dbManager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.Ping(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	cmd.Printf("Source database reachable (%s://%s:%d/%s)\n",
		cfg.Source.Driver, cfg.Source.Host, cfg.Source.Port, cfg.Source.Database)

	cmd.Println("\n=== Validation Complete ===")
	return nil
}
