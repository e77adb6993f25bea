package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/golake/internal/watermark"
)

var (
	resetTable string
	resetAll   bool
	resetYes   bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete stored watermarks to force reprocessing",
	Long: `Reset deletes a table's stored watermark. The next run falls back to
the lookback window, re-selecting rows from that window. Loads are
append-only, so reprocessed rows arrive as new run-scoped files and
duplicates are possible downstream.

Example:
  golake reset --config golake.yaml --table orders --yes
  golake reset --config golake.yaml --all --yes`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().StringVarP(&resetTable, "table", "t", "",
		"Table name from configuration file")
	resetCmd.Flags().BoolVar(&resetAll, "all", false,
		"Reset all configured tables")
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false,
		"Skip the confirmation prompt")

	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tables, err := resolveTables(cfg, resetTable, resetAll)
	if err != nil {
		return err
	}

	if !resetYes {
		cmd.Printf("This deletes the watermark(s) for %v and forces the next run\n", tables)
		cmd.Printf("to re-select the lookback window. Continue? [y/N]: ")

		var answer string
		fmt.Fscanln(cmd.InOrStdin(), &answer)
		if answer != "y" && answer != "Y" && answer != "yes" {
			cmd.Println("Aborted")
			return nil
		}
	}

	store, err := newWatermarkStore(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	for _, table := range tables {
		w, err := store.Read(ctx, table)
		if errors.Is(err, watermark.ErrNotFound) {
			cmd.Printf("%s: no watermark stored\n", table)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read watermark for %s: %w", table, err)
		}

		if err := store.Delete(ctx, table); err != nil {
			return fmt.Errorf("failed to reset watermark for %s: %w", table, err)
		}
		cmd.Printf("%s: watermark %s deleted\n", table, w)
	}

	return nil
}
