// Package vault retires superseded audiobook folders into a retention
// root instead of deleting them. The whole folder moves, sidecar files
// included, and a provenance record is written next to it so a human
// or a restore tool can later decide whether to reinstate the copy.
package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/H2OKing89/shelfr-sub001/internal/quality"
	"github.com/H2OKing89/shelfr-sub001/internal/trump"
	"github.com/H2OKing89/shelfr-sub001/internal/util"
)

// SidecarName is the provenance record filename written at the
// archived location.
const SidecarName = "trump-record.json"

// Archiver relocates superseded folders under the retention root.
type Archiver struct {
	prefs       trump.Preferences
	dryRun      bool
	bufferSize  int
	retryConfig *util.RetryConfig
}

// Config holds archiver configuration.
type Config struct {
	Preferences trump.Preferences
	DryRun      bool
	BufferSize  int               // Buffer size for the copy fallback (0 = default)
	RetryConfig *util.RetryConfig // nil = no retries
}

// New creates a new Archiver.
func New(cfg *Config) *Archiver {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 128 * 1024
	}
	if cfg.RetryConfig == nil {
		cfg.RetryConfig = &util.RetryConfig{MaxAttempts: 1}
	}

	return &Archiver{
		prefs:       cfg.Preferences,
		dryRun:      cfg.DryRun,
		bufferSize:  cfg.BufferSize,
		retryConfig: cfg.RetryConfig,
	}
}

// Archive moves the superseded folder to
// {root}/[{year}/]{asin}/{timestamp}/ and writes the provenance
// sidecar there. In dry-run mode nothing is touched and the returned
// path is empty. The sidecar is written after the move: a crash in
// between leaves the archived copy identifiable by its location alone.
func (a *Archiver) Archive(folderPath string, existing, incoming quality.Profile, res trump.Result) (string, error) {
	if a.prefs.ArchiveRoot == "" {
		return "", fmt.Errorf("%w: cannot archive %s", util.ErrNoArchiveRoot, folderPath)
	}

	if a.dryRun {
		util.DebugLog("DRY-RUN: would archive %s (%s)", folderPath, res.Reason)
		return "", nil
	}

	now := time.Now()
	dest := a.destinationPath(existing.ASIN, now)

	if err := util.RetryableMkdirAll(filepath.Dir(dest), 0755, a.retryConfig); err != nil {
		return "", fmt.Errorf("failed to create archive parent: %w", err)
	}

	if err := a.moveFolder(folderPath, dest); err != nil {
		return "", fmt.Errorf("failed to archive %s -> %s: %w", folderPath, dest, err)
	}

	if err := writeSidecar(dest, existing, incoming, res, now); err != nil {
		// The move already happened; the archived copy is recoverable
		// from its location even without the sidecar.
		util.WarnLog("Archived %s but failed to write sidecar: %v", dest, err)
	}

	util.InfoLog("Archived %s -> %s (%s)", folderPath, dest, res.Reason)
	return dest, nil
}

// destinationPath builds {root}/[{year}/]{asin}/{timestamp}.
func (a *Archiver) destinationPath(asin string, now time.Time) string {
	parts := []string{a.prefs.ArchiveRoot}
	if a.prefs.ArchiveByYear {
		parts = append(parts, fmt.Sprintf("%d", now.Year()))
	}
	parts = append(parts, asin, now.Format("20060102-150405"))
	return filepath.Join(parts...)
}

// moveFolder renames the folder when possible and falls back to
// copy-verify-delete across volumes. The source is never deleted
// before every copied file has verified.
func (a *Archiver) moveFolder(src, dest string) error {
	if err := util.RetryableRename(src, dest, a.retryConfig); err == nil {
		return nil
	}

	if same, statErr := util.IsSameFilesystem(src, filepath.Dir(dest)); statErr == nil && same {
		util.WarnLog("Rename failed on same filesystem, falling back to copy for %s", src)
	}

	if err := a.copyTree(src, dest); err != nil {
		return err
	}

	if err := os.RemoveAll(src); err != nil {
		// Copy is complete and verified; a stale source is an operator
		// cleanup, not data loss.
		util.WarnLog("Failed to remove source folder %s after archive: %v", src, err)
	}

	return nil
}

// copyTree copies a folder recursively and verifies each file's size
// before returning.
func (a *Archiver) copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		if d.IsDir() {
			return util.RetryableMkdirAll(target, 0755, a.retryConfig)
		}

		return a.copyFile(path, target)
	})
}

// copyFile copies one file through a .part temp file, renames it into
// place, and verifies the destination size against the source.
func (a *Archiver) copyFile(srcPath, destPath string) error {
	in, err := util.RetryableOpen(srcPath, a.retryConfig)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	tempPath := destPath + ".part"
	out, err := util.RetryableCreate(tempPath, a.retryConfig)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	written, err := io.CopyBuffer(out, in, make([]byte, a.bufferSize))
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		util.RetryableRemove(tempPath, a.retryConfig)
		return fmt.Errorf("failed to copy: %w", err)
	}

	if err := util.RetryableRename(tempPath, destPath, a.retryConfig); err != nil {
		util.RetryableRemove(tempPath, a.retryConfig)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	srcInfo, err := util.RetryableStat(srcPath, a.retryConfig)
	if err != nil {
		return fmt.Errorf("failed to stat source for verification: %w", err)
	}
	if written != srcInfo.Size() {
		return fmt.Errorf("%w: %s copied %d of %d bytes",
			util.ErrVerifyFailed, srcPath, written, srcInfo.Size())
	}

	return nil
}
