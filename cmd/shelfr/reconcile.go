package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/H2OKing89/shelfr-sub001/internal/catalog"
	"github.com/H2OKing89/shelfr-sub001/internal/probe"
	"github.com/H2OKing89/shelfr-sub001/internal/reconcile"
	"github.com/H2OKing89/shelfr-sub001/internal/report"
	"github.com/H2OKing89/shelfr-sub001/internal/trump"
	"github.com/H2OKing89/shelfr-sub001/internal/util"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile incoming releases against the catalog",
	Long: `Reconcile incoming audiobook releases against the catalog.

For each release the identifier is checked against the catalog. A fresh
identifier is admitted. A collision runs the quality comparison:
the better copy stays in the library, the displaced one moves to the
archival vault with a record of the decision.

Modes:
  --inbox <dir>   reconcile every release folder at the top level of a directory
  --path <dir>    reconcile one release folder
  --asin <id>     identifier for --path when the folder name carries none

Use --dry-run to see every decision without touching the catalog,
the library, or the vault.`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().String("inbox", "", "directory of release folders to reconcile")
	reconcileCmd.Flags().String("path", "", "single release folder to reconcile")
	reconcileCmd.Flags().String("asin", "", "identifier override for --path")
	reconcileCmd.Flags().String("library", "", "library id recorded on admitted entries")
	reconcileCmd.Flags().Bool("dry-run", false, "report decisions without applying them")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	setLogLevels()

	inboxDir, _ := cmd.Flags().GetString("inbox")
	singlePath, _ := cmd.Flags().GetString("path")
	if (inboxDir == "") == (singlePath == "") {
		return fmt.Errorf("%w: exactly one of --inbox or --path is required", util.ErrInvalidConfig)
	}

	prefs, err := loadPreferences()
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	libraryID, _ := cmd.Flags().GetString("library")

	dbPath := viper.GetString("db")
	util.InfoLog("Opening catalog: %s", dbPath)

	store, err := catalog.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer store.Close()

	logger, err := report.NewEventLogger("artifacts", eventLogLevel())
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		logger = report.NullLogger()
	}
	defer logger.Close()

	if logger.Path() != "" {
		util.InfoLog("Event log: %s", logger.Path())
	}

	if dryRun {
		util.InfoLog("Dry run: no files or catalog rows will change")
	}
	util.InfoLog("Trumping: enabled=%v stance=%s", prefs.Enabled, prefs.Aggressiveness)

	r := reconcile.New(&reconcile.Config{
		Store:       store,
		Preferences: prefs,
		LibraryID:   libraryID,
		DryRun:      dryRun,
		Logger:      logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startTime := time.Now()

	if inboxDir != "" {
		result, err := r.Batch(ctx, inboxDir)
		if err != nil {
			return err
		}
		util.InfoLog("Elapsed: %s", time.Since(startTime).Round(time.Millisecond))
		if len(result.Errors) > 0 {
			return fmt.Errorf("%d releases failed to reconcile", len(result.Errors))
		}
		return nil
	}

	asin, _ := cmd.Flags().GetString("asin")
	if asin == "" {
		asin = reconcile.ExtractASIN(filepath.Base(singlePath))
	}
	if asin == "" {
		return fmt.Errorf("%w: no identifier in folder name, pass --asin", util.ErrInvalidConfig)
	}

	release, err := probe.Inspect(singlePath, asin)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", singlePath, err)
	}

	outcome, err := r.Reconcile(ctx, reconcile.IncomingFromRelease(release, singlePath))
	if err != nil {
		return err
	}

	reportOutcome(asin, outcome)
	util.InfoLog("Elapsed: %s", time.Since(startTime).Round(time.Millisecond))
	return nil
}

func reportOutcome(asin string, outcome *reconcile.Outcome) {
	switch outcome.Status {
	case catalog.ImportStatusSuccess:
		util.SuccessLog("Admitted %s", asin)
	case catalog.ImportStatusTrumpReplaced:
		util.SuccessLog("Replaced cataloged copy of %s", asin)
		util.InfoLog("  Reason: %s", outcome.Result.Reason)
		util.InfoLog("  Archived to: %s", outcome.ArchivedPath)
	case catalog.ImportStatusDuplicate:
		if outcome.Result.Decision == trump.KeepBoth {
			util.InfoLog("Keeping both copies of %s: %s", asin, outcome.Result.Reason)
		} else {
			util.InfoLog("Duplicate of %s at %s (trumping disabled)", asin, outcome.ExistingPath)
		}
	case catalog.ImportStatusSkipped:
		util.InfoLog("Skipped %s: %s", asin, outcome.Result.Reason)
	}
}
