package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/H2OKing89/shelfr-sub001/internal/quality"
	"github.com/H2OKing89/shelfr-sub001/internal/trump"
	"github.com/H2OKing89/shelfr-sub001/internal/util"
)

func testProfiles() (quality.Profile, quality.Profile, trump.Result) {
	existing := quality.Profile{ASIN: "B00TEST0001", Format: quality.FormatMP3, BitrateKbps: 128}
	incoming := quality.Profile{ASIN: "B00TEST0001", Format: quality.FormatM4B, BitrateKbps: 128}
	res := trump.Result{
		Decision: trump.ReplaceWithNew,
		Rule:     trump.RuleFormatUpgrade,
		Reason:   "format upgrade (mp3 -> m4b)",
	}
	return existing, incoming, res
}

func makeReleaseFolder(t *testing.T) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "Andy Weir", "Project Hail Mary")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	for name, content := range map[string]string{
		"phm.mp3":       "audio-bytes",
		"cover.jpg":     "jpeg-bytes",
		"metadata.json": "{}",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	return dir
}

func newTestArchiver(t *testing.T, archiveByYear, dryRun bool) (*Archiver, string) {
	t.Helper()

	root := t.TempDir()
	prefs := trump.DefaultPreferences()
	prefs.ArchiveRoot = root
	prefs.ArchiveByYear = archiveByYear

	return New(&Config{Preferences: prefs, DryRun: dryRun}), root
}

func TestArchiveMovesFolderAndWritesSidecar(t *testing.T) {
	archiver, root := newTestArchiver(t, false, false)
	src := makeReleaseFolder(t)
	existing, incoming, res := testProfiles()

	archived, err := archiver.Archive(src, existing, incoming, res)
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if archived == "" {
		t.Fatal("expected archived path")
	}
	if !strings.HasPrefix(archived, filepath.Join(root, "B00TEST0001")) {
		t.Errorf("expected destination under {root}/{asin}, got %s", archived)
	}

	// Source is gone, all files made it over
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("expected source folder to be gone after archive")
	}
	for _, name := range []string{"phm.mp3", "cover.jpg", "metadata.json"} {
		if _, err := os.Stat(filepath.Join(archived, name)); err != nil {
			t.Errorf("expected %s at archived location: %v", name, err)
		}
	}

	// Sidecar documents the decision
	data, err := os.ReadFile(filepath.Join(archived, SidecarName))
	if err != nil {
		t.Fatalf("failed to read sidecar: %v", err)
	}
	var record SidecarRecord
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("sidecar is not valid JSON: %v", err)
	}
	if record.Decision != string(trump.ReplaceWithNew) {
		t.Errorf("expected decision in sidecar, got %q", record.Decision)
	}
	if record.Reason != res.Reason {
		t.Errorf("expected reason in sidecar, got %q", record.Reason)
	}
	if record.Existing["format"] != "mp3" || record.Incoming["format"] != "m4b" {
		t.Errorf("expected both profiles in sidecar: %+v", record)
	}
	if _, err := time.Parse(time.RFC3339, record.ArchivedAt); err != nil {
		t.Errorf("expected ISO-8601 timestamp, got %q", record.ArchivedAt)
	}
}

func TestArchiveYearBucket(t *testing.T) {
	archiver, root := newTestArchiver(t, true, false)
	src := makeReleaseFolder(t)
	existing, incoming, res := testProfiles()

	archived, err := archiver.Archive(src, existing, incoming, res)
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	year := fmt.Sprintf("%d", time.Now().Year())
	if !strings.HasPrefix(archived, filepath.Join(root, year, "B00TEST0001")) {
		t.Errorf("expected year bucket in %s", archived)
	}
}

func TestArchiveWithoutYearBucket(t *testing.T) {
	archiver, root := newTestArchiver(t, false, false)
	src := makeReleaseFolder(t)
	existing, incoming, res := testProfiles()

	archived, err := archiver.Archive(src, existing, incoming, res)
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	year := fmt.Sprintf("%d", time.Now().Year())
	rel, err := filepath.Rel(root, archived)
	if err != nil {
		t.Fatalf("rel failed: %v", err)
	}
	if strings.HasPrefix(rel, year+string(filepath.Separator)) {
		t.Errorf("expected no year bucket, got %s", rel)
	}
}

func TestArchiveDryRun(t *testing.T) {
	archiver, root := newTestArchiver(t, true, true)
	src := makeReleaseFolder(t)
	existing, incoming, res := testProfiles()

	archived, err := archiver.Archive(src, existing, incoming, res)
	if err != nil {
		t.Fatalf("dry-run archive failed: %v", err)
	}
	if archived != "" {
		t.Errorf("expected empty path in dry-run, got %s", archived)
	}

	// Nothing moved, nothing created
	if _, err := os.Stat(src); err != nil {
		t.Errorf("expected source untouched in dry-run: %v", err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read archive root failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty archive root in dry-run, found %d entries", len(entries))
	}
}

func TestArchiveFailsWithoutRoot(t *testing.T) {
	prefs := trump.DefaultPreferences()
	prefs.ArchiveRoot = ""
	archiver := New(&Config{Preferences: prefs})

	existing, incoming, res := testProfiles()
	_, err := archiver.Archive(t.TempDir(), existing, incoming, res)
	if err == nil {
		t.Fatal("expected error without archive root")
	}
	if !errors.Is(err, util.ErrNoArchiveRoot) {
		t.Errorf("expected ErrNoArchiveRoot, got %v", err)
	}
}

func TestRepeatedArchivalsDoNotCollide(t *testing.T) {
	archiver, _ := newTestArchiver(t, false, false)
	existing, incoming, res := testProfiles()

	first, err := archiver.Archive(makeReleaseFolder(t), existing, incoming, res)
	if err != nil {
		t.Fatalf("first archive failed: %v", err)
	}

	// The timestamp segment has second resolution
	time.Sleep(1100 * time.Millisecond)

	second, err := archiver.Archive(makeReleaseFolder(t), existing, incoming, res)
	if err != nil {
		t.Fatalf("second archive failed: %v", err)
	}

	if first == second {
		t.Errorf("expected distinct archive paths, both were %s", first)
	}
}

func TestCopyTreeFallbackPreservesStructure(t *testing.T) {
	archiver, _ := newTestArchiver(t, false, false)

	src := filepath.Join(t.TempDir(), "book")
	if err := os.MkdirAll(filepath.Join(src, "extras"), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "part1.mp3"), []byte("one"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "extras", "pdf.pdf"), []byte("two"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "archived")
	if err := archiver.copyTree(src, dest); err != nil {
		t.Fatalf("copy tree failed: %v", err)
	}

	for _, rel := range []string{"part1.mp3", filepath.Join("extras", "pdf.pdf")} {
		srcInfo, err := os.Stat(filepath.Join(src, rel))
		if err != nil {
			t.Fatalf("stat source failed: %v", err)
		}
		destInfo, err := os.Stat(filepath.Join(dest, rel))
		if err != nil {
			t.Fatalf("expected %s at destination: %v", rel, err)
		}
		if srcInfo.Size() != destInfo.Size() {
			t.Errorf("size mismatch for %s", rel)
		}
	}
}
