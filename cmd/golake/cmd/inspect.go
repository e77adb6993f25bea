package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/golake/internal/lake"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect the data lake bucket contents",
	Long: `Inspect lists the lake bucket and summarizes what the pipeline has
written: per-folder file counts and sizes, the most recent files, and
any watermark metadata objects stored alongside the data.

Example:
  golake inspect --config golake.yaml`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := newObjectStore(cfg)
	if err != nil {
		return err
	}

	report, err := lake.Inspect(context.Background(), store, cfg.Lake.Prefix)
	if err != nil {
		return err
	}

	cmd.Printf("Bucket: s3://%s\n", cfg.Lake.Bucket)
	if cfg.Lake.Prefix != "" {
		cmd.Printf("Prefix: %s\n", cfg.Lake.Prefix)
	}

	if report.TotalFiles == 0 {
		cmd.Println("\nBucket is empty - no data has been loaded yet")
		return nil
	}

	cmd.Printf("\nTotal: %d file(s), %s\n", report.TotalFiles, formatSize(report.TotalSize))

	for _, folder := range report.Folders {
		cmd.Printf("\n--- %s ---\n", folder.Folder)
		cmd.Printf("Files: %d, Size: %s\n", folder.FileCount, formatSize(folder.TotalSize))

		if len(folder.Recent) > 0 {
			cmd.Println("Recent files:")
			for _, obj := range folder.Recent {
				cmd.Printf("  %s  %s  %s\n",
					obj.LastModified.Format("2006-01-02 15:04:05"),
					formatSize(obj.Size),
					obj.Key)
			}
		}
	}

	if len(report.Metadata) > 0 {
		cmd.Printf("\nWatermark metadata: %d object(s)\n", len(report.Metadata))
		for _, obj := range report.Metadata {
			cmd.Printf("  %s (updated %s)\n",
				obj.Key, obj.LastModified.Format("2006-01-02 15:04:05"))
		}
	}

	return nil
}

// formatSize renders a byte count in a human-readable unit.
func formatSize(size int64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
		gb = 1 << 30
	)
	switch {
	case size >= gb:
		return fmt.Sprintf("%.2f GB", float64(size)/gb)
	case size >= mb:
		return fmt.Sprintf("%.2f MB", float64(size)/mb)
	case size >= kb:
		return fmt.Sprintf("%.2f KB", float64(size)/kb)
	default:
		return fmt.Sprintf("%d B", size)
	}
}
