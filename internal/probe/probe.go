// Package probe builds a best-effort quality profile and catalog hints
// from an incoming release folder. It reads cheap evidence only: file
// layout, extensions, sizes, and embedded tags. Anything it cannot see
// stays unknown; full technical extraction belongs to the surrounding
// pipeline, and unknown fields never drive a replacement decision.
package probe

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dhowden/tag"

	"github.com/H2OKing89/shelfr-sub001/internal/layout"
	"github.com/H2OKing89/shelfr-sub001/internal/quality"
	"github.com/H2OKing89/shelfr-sub001/internal/util"
)

// Release is what could be learned about an incoming folder.
type Release struct {
	Profile      quality.Profile
	Layout       layout.Kind
	PrimaryAudio string // largest audio file in the folder
	Title        string
	Author       string
	SizeBytes    int64 // total size of all audio files
	MtimeUnix    int64
}

// Inspect examines a release folder and returns profile hints for it.
// Tag read failures are not fatal; the release just carries fewer hints.
func Inspect(folderPath, asin string) (*Release, error) {
	info, err := os.Stat(folderPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat release: %w", err)
	}

	files, err := layout.AudioFiles(folderPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list audio files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no audio files in %s", util.ErrNotFound, folderPath)
	}

	kind, err := layout.Detect(folderPath)
	if err != nil {
		return nil, fmt.Errorf("failed to classify layout: %w", err)
	}

	var primary string
	var primarySize, totalSize int64
	for _, path := range files {
		fi, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		totalSize += fi.Size()
		if fi.Size() >= primarySize {
			primary = path
			primarySize = fi.Size()
		}
	}

	release := &Release{
		Profile: quality.Profile{
			ASIN:   asin,
			Format: quality.ParseFormat(filepath.Ext(primary)),
		},
		Layout:       kind,
		PrimaryAudio: primary,
		SizeBytes:    totalSize,
		MtimeUnix:    info.ModTime().Unix(),
	}

	readTags(primary, release)

	// A single-file m4b carries embedded chapters in practice.
	if kind == layout.SingleFile && release.Profile.Format == quality.FormatM4B {
		release.Profile.Chapters = true
	}

	return release, nil
}

// readTags fills in title/author hints and refines the format from the
// file header. Best effort: unreadable tags leave the release as-is.
func readTags(path string, release *Release) {
	f, err := os.Open(path)
	if err != nil {
		util.DebugLog("Probe: cannot open %s for tags: %v", path, err)
		return
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		util.DebugLog("Probe: cannot read tags from %s: %v", path, err)
		return
	}

	release.Title = m.Title()
	if release.Title == "" {
		release.Title = m.Album()
	}
	release.Author = m.AlbumArtist()
	if release.Author == "" {
		release.Author = m.Artist()
	}

	// The header is better format evidence than the extension.
	if headerFormat := quality.ParseFormat(string(m.FileType())); headerFormat != quality.FormatUnknown {
		release.Profile.Format = headerFormat
	}
}
