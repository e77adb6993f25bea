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
	seedCustomers int
	seedOrders    int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create and populate the demo source tables",
	Long: `Seed creates the demo customers and orders tables in the source
database and fills them with sample data, spreading order dates over
the past 90 days. Reseeding skips customers that already exist.

Example:
  golake seed --config golake.yaml --customers 10 --orders 50`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedCustomers, "customers", 10,
		"Number of sample customers to insert")
	seedCmd.Flags().IntVar(&seedOrders, "orders", 50,
		"Number of random orders to insert")

	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
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

	if err := seeder.CreateTables(ctx); err != nil {
		return err
	}

	customers, orders, err := seeder.Seed(ctx, seedCustomers, seedOrders)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	cmd.Printf("\n=== Seed Complete ===\n")
	cmd.Printf("Customers inserted: %d\n", customers)
	cmd.Printf("Orders inserted: %d\n", orders)
	return nil
}
