package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/H2OKing89/shelfr-sub001/internal/catalog"
	"github.com/H2OKing89/shelfr-sub001/internal/util"
)

var variantsCmd = &cobra.Command{
	Use:   "variants",
	Short: "Show author name drift between metadata and folder names",
	Long: `Show author variants: cases where the author name from metadata
and the folder name actually used on disk disagree. The variant table
is derived from the catalog and can be rebuilt at any time.`,
	RunE: runVariants,
}

func init() {
	rootCmd.AddCommand(variantsCmd)

	variantsCmd.Flags().Bool("rebuild", false, "rebuild the variant table from the catalog first")
}

func runVariants(cmd *cobra.Command, args []string) error {
	setLogLevels()

	store, err := catalog.Open(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer store.Close()

	if rebuild, _ := cmd.Flags().GetBool("rebuild"); rebuild {
		count, err := store.RebuildAuthorVariants(time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to rebuild variants: %w", err)
		}
		util.SuccessLog("Rebuilt variant table: %d distinct pairs", count)
	}

	variants, err := store.AuthorVariants()
	if err != nil {
		return fmt.Errorf("failed to list variants: %w", err)
	}

	if len(variants) == 0 {
		util.InfoLog("No author variants recorded")
		return nil
	}

	util.InfoLog("=== Author Variants ===")
	for _, v := range variants {
		util.InfoLog("%q on disk as %q (%d entries)", v.AuthorName, v.AuthorFolder, v.EntryCount)
	}

	return nil
}
