package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var listTablesCmd = &cobra.Command{
	Use:   "list-tables",
	Short: "List all tables defined in configuration",
	Long: `List-tables displays all tables defined in the configuration file
along with their change-tracking settings.

Example:
  golake list-tables --config golake.yaml`,
	RunE: runListTables,
}

func init() {
	rootCmd.AddCommand(listTablesCmd)
}

func runListTables(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tableNames := cfg.ListTables()

	if len(tableNames) == 0 {
		cmd.Printf("No tables defined in %s\n", GetConfigFile())
		return nil
	}

	cmd.Printf("Tables defined in %s:\n\n", GetConfigFile())

	for i, name := range tableNames {
		table, err := cfg.GetTable(name)
		if err != nil {
			return err
		}

		// Table header
		cmd.Printf("%d. %s\n", i+1, name)
		cmd.Printf("   Primary Key:       %s\n", table.PrimaryKey)
		cmd.Printf("   Timestamp Columns: %s\n", strings.Join(table.TimestampColumns, ", "))

		if table.PartitionColumn != "" {
			cmd.Printf("   Partition Column:  %s\n", table.PartitionColumn)
		} else {
			cmd.Printf("   Partition Column:  (processing time)\n")
		}

		cmd.Printf("   Lookback:          %s\n", cfg.EffectiveLookback(name))

		// Derived-column settings
		if table.Transform != nil {
			if table.Transform.Segment != nil {
				cmd.Printf("   Segment:           %s -> %s (%d bucket(s))\n",
					table.Transform.Segment.SourceColumn,
					table.Transform.Segment.TargetColumn,
					len(table.Transform.Segment.Buckets))
			}
			if table.Transform.ValueCategory != nil {
				cmd.Printf("   Value Category:    %s * %s -> %s (%d bucket(s))\n",
					table.Transform.ValueCategory.QuantityColumn,
					table.Transform.ValueCategory.PriceColumn,
					table.Transform.ValueCategory.TargetColumn,
					len(table.Transform.ValueCategory.Buckets))
			}
		}

		// Add spacing between tables
		if i < len(tableNames)-1 {
			cmd.Println()
		}
	}

	cmd.Printf("\nTotal: %d table(s)\n", len(tableNames))
	return nil
}
