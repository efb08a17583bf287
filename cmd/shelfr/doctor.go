package main

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/H2OKing89/shelfr-sub001/internal/catalog"
	"github.com/H2OKing89/shelfr-sub001/internal/util"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the catalog and configuration",
	Long: `Run diagnostic checks to ensure shelfr can operate correctly.

This command checks:
- SQLite version compatibility
- Catalog database accessibility and integrity
- Identifier uniqueness within the catalog
- Archive root existence and write permission
- Disk space under the archive root

Use this command to troubleshoot issues before reconciling.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	setLogLevels()

	util.InfoLog("=== Shelfr Doctor - System Diagnostics ===")
	util.InfoLog("")

	results := []checkResult{}

	// 1. Check SQLite
	results = append(results, checkSQLite())

	// 2. Check catalog database
	dbPath := viper.GetString("db")
	results = append(results, checkDatabase(dbPath))

	// 3. Check identifier uniqueness
	results = append(results, checkDuplicateIdentifiers(dbPath))

	// 4. Check archive root
	prefs, err := loadPreferences()
	if err != nil {
		results = append(results, checkResult{
			name:    "Trump preferences",
			error:   true,
			message: err.Error(),
		})
	} else if prefs.Enabled {
		results = append(results, checkArchiveRoot(prefs.ArchiveRoot))
		results = append(results, checkDiskSpace(prefs.ArchiveRoot, "archive"))
	} else {
		results = append(results, checkResult{
			name:    "Archive root",
			message: "trumping disabled, not checked",
		})
	}

	// Print results
	util.InfoLog("")
	util.InfoLog("=== Diagnostic Results ===")
	util.InfoLog("")

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		if r.error {
			util.ErrorLog("%s", line)
		} else if r.warning {
			util.WarnLog("%s", line)
		} else {
			util.SuccessLog("%s", line)
		}
	}

	// Summary
	util.InfoLog("")
	if hasErrors {
		util.ErrorLog("❌ Some critical checks failed. Please resolve errors before reconciling.")
		return fmt.Errorf("system diagnostics failed")
	} else if hasWarnings {
		util.WarnLog("⚠️  Some checks produced warnings. Review them before proceeding.")
	} else {
		util.SuccessLog("✅ All checks passed! System is ready for shelfr operations.")
	}

	return nil
}

// checkSQLite verifies SQLite version
func checkSQLite() checkResult {
	// We're using modernc.org/sqlite which doesn't require external sqlite
	// Just verify we can get the version
	version := catalog.SQLiteVersion()
	if version == "" {
		return checkResult{
			name:    "SQLite",
			error:   true,
			message: "unable to determine version",
		}
	}

	return checkResult{
		name:    "SQLite",
		message: fmt.Sprintf("version %s (built-in)", version),
	}
}

// checkDatabase verifies catalog database accessibility and integrity
func checkDatabase(dbPath string) checkResult {
	if dbPath == "" {
		return checkResult{
			name:    "Catalog database",
			warning: true,
			message: "no database path specified (use --db flag or config)",
		}
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return checkResult{
				name:    "Catalog database",
				message: fmt.Sprintf("%s (will be created on first run)", dbPath),
			}
		}
		return checkResult{
			name:    "Catalog database",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", dbPath, err),
		}
	}

	if !info.Mode().IsRegular() {
		return checkResult{
			name:    "Catalog database",
			error:   true,
			message: fmt.Sprintf("%s is not a regular file", dbPath),
		}
	}

	store, err := catalog.Open(dbPath)
	if err != nil {
		return checkResult{
			name:    "Catalog database",
			error:   true,
			message: fmt.Sprintf("cannot open %s: %v", dbPath, err),
		}
	}
	defer store.Close()

	if err := store.CheckIntegrity(); err != nil {
		return checkResult{
			name:    "Catalog database",
			error:   true,
			message: fmt.Sprintf("integrity check failed: %v", err),
		}
	}

	stats, err := store.Stats()
	if err != nil {
		return checkResult{
			name:    "Catalog database",
			error:   true,
			message: fmt.Sprintf("cannot read stats: %v", err),
		}
	}

	size := util.FormatBytes(info.Size())
	return checkResult{
		name:    "Catalog database",
		message: fmt.Sprintf("%s (%s, %d entries)", dbPath, size, stats.Total),
	}
}

// checkDuplicateIdentifiers scans for identifiers held by more than one
// entry. Such rows can only come from historical data written before
// the uniqueness constraint; shelfr reports them and never auto-merges.
func checkDuplicateIdentifiers(dbPath string) checkResult {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return checkResult{
			name:    "Identifier uniqueness",
			message: "no database yet, nothing to check",
		}
	}

	store, err := catalog.Open(dbPath)
	if err != nil {
		return checkResult{
			name:    "Identifier uniqueness",
			warning: true,
			message: fmt.Sprintf("cannot open catalog: %v", err),
		}
	}
	defer store.Close()

	dups, err := store.DuplicateASINs()
	if err != nil {
		return checkResult{
			name:    "Identifier uniqueness",
			warning: true,
			message: fmt.Sprintf("scan failed: %v", err),
		}
	}

	if len(dups) > 0 {
		paths := dups[0].Paths
		return checkResult{
			name:    "Identifier uniqueness",
			warning: true,
			message: fmt.Sprintf("%d identifiers held by multiple entries (e.g. %s: %v)", len(dups), dups[0].ASIN, paths),
		}
	}

	return checkResult{
		name:    "Identifier uniqueness",
		message: "every identifier maps to one entry",
	}
}

// checkArchiveRoot verifies the archive root is writable
func checkArchiveRoot(path string) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(path, 0755); err != nil {
				return checkResult{
					name:    "Archive root",
					error:   true,
					message: fmt.Sprintf("cannot create %s: %v", path, err),
				}
			}
			return checkResult{
				name:    "Archive root",
				message: fmt.Sprintf("%s (created)", path),
			}
		}
		return checkResult{
			name:    "Archive root",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", path, err),
		}
	}

	if !info.IsDir() {
		return checkResult{
			name:    "Archive root",
			error:   true,
			message: fmt.Sprintf("%s is not a directory", path),
		}
	}

	// Check write permission by creating a temp file
	testFile := filepath.Join(path, ".shelfr_write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return checkResult{
			name:    "Archive root",
			error:   true,
			message: fmt.Sprintf("cannot write to %s: %v", path, err),
		}
	}
	f.Close()
	os.Remove(testFile)

	return checkResult{
		name:    "Archive root",
		message: fmt.Sprintf("%s (writable)", path),
	}
}

// checkDiskSpace verifies available disk space
func checkDiskSpace(path string, label string) checkResult {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return checkResult{
			name:    fmt.Sprintf("Disk space (%s)", label),
			warning: true,
			message: fmt.Sprintf("cannot determine disk space: %v", err),
		}
	}

	// Available bytes = available blocks * block size
	availBytes := stat.Bavail * uint64(stat.Bsize)
	totalBytes := stat.Blocks * uint64(stat.Bsize)
	usedBytes := totalBytes - (stat.Bfree * uint64(stat.Bsize))

	availGB := float64(availBytes) / (1024 * 1024 * 1024)
	usedPercent := float64(usedBytes) / float64(totalBytes) * 100

	// Warn if less than 10GB available or >90% used
	warning := false
	warningMsg := ""
	if availGB < 10 {
		warning = true
		warningMsg = " (low space!)"
	} else if usedPercent > 90 {
		warning = true
		warningMsg = " (>90% used)"
	}

	return checkResult{
		name:    fmt.Sprintf("Disk space (%s)", label),
		warning: warning,
		message: fmt.Sprintf("%.1f GB available%s", availGB, warningMsg),
	}
}
