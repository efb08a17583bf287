package probe

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/H2OKing89/shelfr-sub001/internal/layout"
	"github.com/H2OKing89/shelfr-sub001/internal/quality"
	"github.com/H2OKing89/shelfr-sub001/internal/util"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestInspectSingleFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "book.m4b"), 4096)
	writeFile(t, filepath.Join(dir, "cover.jpg"), 128)

	release, err := Inspect(dir, "B00TEST0001")
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}

	if release.Profile.ASIN != "B00TEST0001" {
		t.Errorf("expected asin on profile, got %q", release.Profile.ASIN)
	}
	if release.Profile.Format != quality.FormatM4B {
		t.Errorf("expected m4b format, got %s", release.Profile.Format)
	}
	if !release.Profile.Chapters {
		t.Error("expected single-file m4b to be treated as chaptered")
	}
	if release.Layout != layout.SingleFile {
		t.Errorf("expected single-file layout, got %s", release.Layout)
	}
	if release.SizeBytes != 4096 {
		t.Errorf("expected audio size 4096, got %d", release.SizeBytes)
	}
}

func TestInspectMultiFilePicksLargestPrimary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "part1.mp3"), 1000)
	writeFile(t, filepath.Join(dir, "part2.mp3"), 3000)

	release, err := Inspect(dir, "B00TEST0002")
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}

	if release.Layout != layout.MultiFile {
		t.Errorf("expected multi-file layout, got %s", release.Layout)
	}
	if filepath.Base(release.PrimaryAudio) != "part2.mp3" {
		t.Errorf("expected largest file as primary, got %s", release.PrimaryAudio)
	}
	if release.Profile.Format != quality.FormatMP3 {
		t.Errorf("expected mp3 format, got %s", release.Profile.Format)
	}
	if release.Profile.Chapters {
		t.Error("expected no chapters flag for multi-file mp3")
	}
	if release.SizeBytes != 4000 {
		t.Errorf("expected aggregate size 4000, got %d", release.SizeBytes)
	}
}

func TestInspectNoAudioFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "notes.txt"), 10)

	_, err := Inspect(dir, "B00TEST0003")
	if err == nil {
		t.Fatal("expected error for folder without audio")
	}
	if !errors.Is(err, util.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInspectUnreadableTagsAreNotFatal(t *testing.T) {
	// Garbage bytes carry no parseable tags; the profile still builds
	// from layout and extension evidence.
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "book.opus"), 2048)

	release, err := Inspect(dir, "B00TEST0004")
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if release.Profile.Format != quality.FormatOpus {
		t.Errorf("expected opus from extension, got %s", release.Profile.Format)
	}
	if release.Title != "" || release.Author != "" {
		t.Errorf("expected empty hints for unreadable tags, got %q/%q", release.Title, release.Author)
	}
}
