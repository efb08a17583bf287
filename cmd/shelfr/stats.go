package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/H2OKing89/shelfr-sub001/internal/catalog"
	"github.com/H2OKing89/shelfr-sub001/internal/util"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	setLogLevels()

	dbPath := viper.GetString("db")
	store, err := catalog.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer store.Close()

	stats, err := store.Stats()
	if err != nil {
		return fmt.Errorf("failed to collect stats: %w", err)
	}

	util.InfoLog("=== Catalog Statistics ===")
	util.InfoLog("Database: %s", dbPath)
	util.InfoLog("")
	util.InfoLog("Entries: %d", stats.Total)
	util.InfoLog("  With identifier: %d", stats.WithIdentifier)
	util.InfoLog("  Without identifier: %d", stats.WithoutIdentifier)
	util.InfoLog("Unique authors: %d", stats.UniqueAuthors)
	util.InfoLog("Unique series: %d", stats.UniqueSeries)

	lastSync, err := store.LastFullSync()
	if err != nil {
		return err
	}
	if !lastSync.IsZero() {
		util.InfoLog("Last full sync: %s", lastSync.Format("2006-01-02 15:04:05 MST"))
	}

	return nil
}
