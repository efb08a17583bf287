package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/H2OKing89/shelfr-sub001/internal/catalog"
	"github.com/H2OKing89/shelfr-sub001/internal/probe"
	"github.com/H2OKing89/shelfr-sub001/internal/util"
)

// asinPattern matches an Audible-style identifier in a folder name,
// bracketed or bare, e.g. "Project Hail Mary [B08GB58KD5]".
var asinPattern = regexp.MustCompile(`\b(B0[0-9A-Z]{8})\b`)

// ExtractASIN pulls an identifier out of a release folder name.
// Returns "" when the name carries none.
func ExtractASIN(name string) string {
	if match := asinPattern.FindStringSubmatch(name); match != nil {
		return match[1]
	}
	return ""
}

// BatchResult summarizes a batch run over an inbox.
type BatchResult struct {
	Processed int
	Admitted  int
	Replaced  int
	KeptBoth  int
	Skipped   int
	Errors    []error
}

// Batch reconciles every release folder at the top level of an inbox
// directory. Folders without a recognizable identifier are skipped with
// a warning; one failed release does not stop the batch.
func (r *Reconciler) Batch(ctx context.Context, inboxDir string) (*BatchResult, error) {
	entries, err := os.ReadDir(inboxDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox: %w", err)
	}

	var folders []string
	for _, entry := range entries {
		if entry.IsDir() {
			folders = append(folders, filepath.Join(inboxDir, entry.Name()))
		}
	}

	if len(folders) == 0 {
		util.InfoLog("No release folders in %s", inboxDir)
		return &BatchResult{}, nil
	}

	util.InfoLog("Reconciling %d release folders from %s", len(folders), inboxDir)

	// Progress bar only on an interactive terminal
	var bar *progressbar.ProgressBar
	if util.IsTerminal(os.Stderr.Fd()) && !util.IsQuiet() {
		bar = progressbar.NewOptions(len(folders),
			progressbar.OptionSetDescription("Reconciling"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	result := &BatchResult{}

	for _, folder := range folders {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		outcome, err := r.reconcileFolder(ctx, folder)
		if bar != nil {
			bar.Add(1)
		}
		result.Processed++

		if err != nil {
			util.ErrorLog("Failed to reconcile %s: %v", folder, err)
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", folder, err))
			continue
		}
		if outcome == nil {
			result.Skipped++
			continue
		}

		switch outcome.Status {
		case catalog.ImportStatusSuccess:
			result.Admitted++
		case catalog.ImportStatusTrumpReplaced:
			result.Replaced++
		case catalog.ImportStatusDuplicate:
			result.KeptBoth++
		default:
			result.Skipped++
		}
	}

	util.SuccessLog("Batch complete: %d processed, %d admitted, %d replaced, %d kept-both, %d skipped, %d errors",
		result.Processed, result.Admitted, result.Replaced, result.KeptBoth, result.Skipped, len(result.Errors))

	return result, nil
}

// reconcileFolder probes one folder and reconciles it. Returns
// (nil, nil) when the folder carries no identifier.
func (r *Reconciler) reconcileFolder(ctx context.Context, folder string) (*Outcome, error) {
	asin := ExtractASIN(filepath.Base(folder))
	if asin == "" {
		util.WarnLog("No identifier in folder name, skipping: %s", folder)
		return nil, nil
	}

	release, err := probe.Inspect(folder, asin)
	if err != nil {
		return nil, err
	}

	return r.Reconcile(ctx, IncomingFromRelease(release, folder))
}

// IncomingFromRelease builds a reconciler input from probe output.
func IncomingFromRelease(release *probe.Release, folder string) Incoming {
	return Incoming{
		Entry: catalog.Entry{
			ASIN:       release.Profile.ASIN,
			Title:      release.Title,
			AuthorName: release.Author,
			FolderPath: folder,
			AudioPath:  release.PrimaryAudio,
			MtimeUnix:  release.MtimeUnix,
			SizeBytes:  release.SizeBytes,
			IndexedAt:  time.Now().UTC(),
		},
		Profile: release.Profile,
	}
}
