package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/golake/internal/watermark"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-table watermarks and their age",
	Long: `Status reads each configured table's watermark from the configured
backend and reports how far behind it is.

Tables without a stored watermark will scan the lookback window on
their next run.

Example:
  golake status --config golake.yaml`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tables := cfg.ListTables()
	if len(tables) == 0 {
		cmd.Printf("No tables defined in %s\n", GetConfigFile())
		return nil
	}

	store, err := newWatermarkStore(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	now := time.Now().UTC()

	type row struct {
		table     string
		watermark string
		age       string
		ageColor  color.Color
	}

	rows := make([]row, 0, len(tables))
	for _, table := range tables {
		w, err := store.Read(ctx, table)
		switch {
		case errors.Is(err, watermark.ErrNotFound):
			rows = append(rows, row{
				table:     table,
				watermark: "(none)",
				age:       fmt.Sprintf("next run scans last %s", cfg.EffectiveLookback(table)),
				ageColor:  color.Yellow,
			})
		case err != nil:
			rows = append(rows, row{
				table:     table,
				watermark: "(error)",
				age:       err.Error(),
				ageColor:  color.Red,
			})
		default:
			age := now.Sub(w.Time()).Round(time.Second)
			c := color.Green
			if age > 24*time.Hour {
				c = color.Yellow
			}
			if age > 7*24*time.Hour {
				c = color.Red
			}
			rows = append(rows, row{
				table:     table,
				watermark: w.String(),
				age:       age.String(),
				ageColor:  c,
			})
		}
	}

	// Column widths from the widest cell
	tableWidth := runewidth.StringWidth("TABLE")
	markWidth := runewidth.StringWidth("WATERMARK")
	for _, r := range rows {
		if w := runewidth.StringWidth(r.table); w > tableWidth {
			tableWidth = w
		}
		if w := runewidth.StringWidth(r.watermark); w > markWidth {
			markWidth = w
		}
	}

	cmd.Printf("Watermarks (%s backend):\n\n", cfg.Watermarks.Backend)
	cmd.Printf("%s  %s  %s\n",
		runewidth.FillRight("TABLE", tableWidth),
		runewidth.FillRight("WATERMARK", markWidth),
		"AGE")

	for _, r := range rows {
		cmd.Printf("%s  %s  %s\n",
			runewidth.FillRight(r.table, tableWidth),
			runewidth.FillRight(r.watermark, markWidth),
			r.ageColor.Render(r.age))
	}

	cmd.Printf("\nTotal: %d table(s)\n", len(rows))
	return nil
}
