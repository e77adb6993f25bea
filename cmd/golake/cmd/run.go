package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/golake/internal/database"
	"github.com/dbsmedya/golake/internal/lock"
	"github.com/dbsmedya/golake/internal/logger"
	"github.com/dbsmedya/golake/internal/runner"
)

var (
	runTable string
	runAll   bool
	runForce bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run incremental cycles for configured tables",
	Long: `Run executes one incremental cycle per selected table.

Each cycle follows these steps:
  1. Read the table's watermark (or fall back to the lookback window)
  2. Extract rows whose timestamp columns are newer than the watermark
  3. Transform: stamp processing metadata and derive configured columns
  4. Load partitioned Parquet files into the data lake
  5. Advance the watermark to the run's start instant

The watermark only advances after a fully successful load, so a failed
run re-selects the same window next time.

Example:
  golake run --config golake.yaml --table orders
  golake run --config golake.yaml --all`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runTable, "table", "t", "",
		"Table name from configuration file")
	runCmd.Flags().BoolVar(&runAll, "all", false,
		"Run all configured tables sequentially")
	runCmd.Flags().BoolVar(&runForce, "force", false,
		"Force execution even if the run lock cannot be acquired (use with caution)")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tables, err := resolveTables(cfg, runTable, runAll)
	if err != nil {
		return err
	}

	// Initialize logger
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Infow("Starting incremental run",
		"tables", tables,
		"config", GetConfigFile(),
	)

	// Create database manager
	dbManager := database.NewManager(cfg)

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to the source database
	if err := dbManager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.Ping(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	r, err := newRunner(cfg, dbManager, log)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Warn("Received shutdown signal - finishing current table...")
		cancel()
	}()

	dialect := dialectFor(cfg)
	var results []*runner.RunResult
	var failed []string

	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			log.Warn("Run cancelled by user")
			break
		}

		var result *runner.RunResult
		runOne := func() error {
			var runErr error
			result, runErr = r.Run(ctx, table)
			return runErr
		}

		// Advisory lock prevents concurrent runs racing on one table's
		// watermark.
		if runForce {
			log.Warnw("Skipping advisory lock acquisition (--force flag used)", "table", table)
			err = runOne()
		} else {
			err = lock.WithRunLock(ctx, dbManager.Source, dialect, table, runOne)
			if errors.Is(err, lock.ErrLockHeld) {
				err = fmt.Errorf("table '%s' is already being processed by another instance (use --force to override)", table)
				result = &runner.RunResult{Table: table, Status: runner.StatusFailed, Err: err}
			}
		}

		if result != nil {
			results = append(results, result)
		}
		if err != nil {
			failed = append(failed, table)
		}
	}

	// Display results
	fmt.Printf("\n=== Run Complete ===\n")
	for _, result := range results {
		fmt.Printf("\nTable: %s\n", result.Table)
		fmt.Printf("Status: %s\n", result.Status)
		fmt.Printf("Records Processed: %d\n", result.RecordsProcessed)
		if result.FirstRun {
			fmt.Printf("First Run: scanned lookback window\n")
		}
		if !result.WatermarkBefore.IsZero() {
			fmt.Printf("Watermark Before: %s\n", result.WatermarkBefore)
		}
		if result.Status == runner.StatusSucceeded {
			fmt.Printf("Watermark After: %s\n", result.WatermarkAfter)
		}
		fmt.Printf("Duration: %s\n", result.Duration)
		if result.Err != nil {
			fmt.Printf("Error: %v\n", result.Err)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("run failed for %d table(s): %v", len(failed), failed)
	}
	return nil
}
