package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/H2OKing89/shelfr-sub001/internal/catalog"
	"github.com/H2OKing89/shelfr-sub001/internal/util"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the import audit trail",
	Long: `Show the append-only import audit trail, newest first.

Every reconciliation appends a row: admissions, replacements,
duplicates, skips, and errors. Rows are never updated or deleted.`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().String("asin", "", "show history for one identifier only")
	historyCmd.Flags().Int("limit", 50, "maximum rows to show (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	setLogLevels()

	store, err := catalog.Open(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer store.Close()

	asin, _ := cmd.Flags().GetString("asin")
	limit, _ := cmd.Flags().GetInt("limit")

	records, err := store.ImportHistory(asin, limit)
	if err != nil {
		return fmt.Errorf("failed to read import history: %w", err)
	}

	if len(records) == 0 {
		util.InfoLog("No import history")
		return nil
	}

	for _, rec := range records {
		line := fmt.Sprintf("%s  %-14s %-10s %s",
			rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.Status, rec.ASIN, rec.SourcePath)
		switch rec.Status {
		case catalog.ImportStatusError:
			util.ErrorLog("%s", line)
		case catalog.ImportStatusSkipped, catalog.ImportStatusDuplicate:
			util.WarnLog("%s", line)
		default:
			util.InfoLog("%s", line)
		}
	}

	return nil
}
