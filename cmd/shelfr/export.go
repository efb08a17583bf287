package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/H2OKing89/shelfr-sub001/internal/catalog"
	"github.com/H2OKing89/shelfr-sub001/internal/util"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog as JSON",
	Long: `Export the full catalog (entries, author variants, statistics)
as one JSON document, for backup or external inspection.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("out", "", "output file (default: artifacts/exports/<timestamp>.json, '-' for stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	setLogLevels()

	store, err := catalog.Open(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer store.Close()

	snapshot, err := store.ExportSnapshot()
	if err != nil {
		return fmt.Errorf("failed to export catalog: %w", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	data = append(data, '\n')

	outPath, _ := cmd.Flags().GetString("out")
	if outPath == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if outPath == "" {
		timestamp := time.Now().Format("20060102-150405")
		outPath = filepath.Join("artifacts", "exports", timestamp+".json")
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	util.SuccessLog("Exported %d entries to %s", len(snapshot.Entries), outPath)
	return nil
}
