package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/golake/internal/database"
	"github.com/dbsmedya/golake/internal/logger"
	"github.com/dbsmedya/golake/internal/seed"
)

var (
	simNewCustomers     int
	simUpdatedCustomers int
	simNewOrders        int
	simUpdatedOrders    int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate incremental changes in the source tables",
	Long: `Simulate produces a round of changes against the demo tables: new
customers, renamed customer profiles, fresh orders, and quantity/price
updates on recent orders. Every change bumps a timestamp column, so the
next run picks it up.

Example:
  golake simulate --config golake.yaml
  golake simulate --new-customers 3 --updated-customers 2 --new-orders 8 --updated-orders 3`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&simNewCustomers, "new-customers", 3,
		"Number of new customers to add")
	simulateCmd.Flags().IntVar(&simUpdatedCustomers, "updated-customers", 2,
		"Number of existing customers to update")
	simulateCmd.Flags().IntVar(&simNewOrders, "new-orders", 8,
		"Number of new orders to add")
	simulateCmd.Flags().IntVar(&simUpdatedOrders, "updated-orders", 3,
		"Number of recent orders to update")

	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Initialize logger
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Create database manager
	dbManager := database.NewManager(cfg)

	ctx := context.Background()
	if err := dbManager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	defer dbManager.Close()

	seeder := seed.NewSeeder(dbManager.Source, dialectFor(cfg), log)

	result, err := seeder.Simulate(ctx,
		simNewCustomers, simUpdatedCustomers, simNewOrders, simUpdatedOrders)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	cmd.Printf("\n=== Simulation Complete ===\n")
	cmd.Printf("Customers added: %d\n", result.CustomersAdded)
	cmd.Printf("Customers updated: %d\n", result.CustomersUpdated)
	cmd.Printf("Orders added: %d\n", result.OrdersAdded)
	cmd.Printf("Orders updated: %d\n", result.OrdersUpdated)
	cmd.Printf("\nRun the pipeline to pick up the changes:\n")
	cmd.Printf("  golake run --config %s --all\n", GetConfigFile())
	return nil
}
