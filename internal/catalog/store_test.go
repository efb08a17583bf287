package catalog

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/H2OKing89/shelfr-sub001/internal/util"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestStoreOpenAndMigrate(t *testing.T) {
	store := openTestStore(t)

	version, err := store.schemaVersion()
	if err != nil {
		t.Fatalf("failed to get schema version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("expected schema version %d, got %d", currentSchemaVersion, version)
	}

	tables := []string{"catalog_meta", "catalog_entries", "author_variants", "import_log"}
	for _, table := range tables {
		var count int
		err := store.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Fatalf("failed to query table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("expected table %s to exist", table)
		}
	}

	var count int
	err = store.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_entries_asin'").Scan(&count)
	if err != nil {
		t.Fatalf("failed to query unique index: %v", err)
	}
	if count != 1 {
		t.Error("expected unique asin index to exist")
	}
}

func TestUpsertAndLookup(t *testing.T) {
	store := openTestStore(t)

	entry := &Entry{
		ASIN:         "B00TEST0001",
		LibraryID:    "main",
		Title:        "Project Hail Mary",
		AuthorName:   "Andy Weir",
		AuthorFolder: "Andy Weir",
		FolderPath:   "/library/Andy Weir/Project Hail Mary",
		AudioPath:    "/library/Andy Weir/Project Hail Mary/phm.m4b",
		SizeBytes:    512 * 1024 * 1024,
	}

	if err := store.Upsert(entry); err != nil {
		t.Fatalf("failed to upsert: %v", err)
	}
	if entry.ID == 0 {
		t.Error("expected entry ID to be set after upsert")
	}

	exists, err := store.Exists("B00TEST0001")
	if err != nil {
		t.Fatalf("exists check failed: %v", err)
	}
	if !exists {
		t.Error("expected entry to exist after upsert")
	}

	got, err := store.Lookup("B00TEST0001")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected lookup to return the entry")
	}
	if got.Title != entry.Title || got.FolderPath != entry.FolderPath {
		t.Errorf("lookup returned mismatched entry: %+v", got)
	}

	// Lookup miss is (nil, nil), not an error
	missing, err := store.Lookup("B00NOPE0000")
	if err != nil {
		t.Fatalf("lookup of unknown asin errored: %v", err)
	}
	if missing != nil {
		t.Error("expected nil entry for unknown asin")
	}
}

func TestUpsertIsLastWriteWins(t *testing.T) {
	store := openTestStore(t)

	first := &Entry{
		ASIN:       "B00TEST0002",
		Title:      "Old Title",
		FolderPath: "/library/a",
	}
	if err := store.Upsert(first); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	second := &Entry{
		ASIN:       "B00TEST0002",
		Title:      "New Title",
		FolderPath: "/library/b",
	}
	if err := store.Upsert(second); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected upsert to reuse row %d, got %d", first.ID, second.ID)
	}

	got, err := store.Lookup("B00TEST0002")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.Title != "New Title" || got.FolderPath != "/library/b" {
		t.Errorf("expected last write to win, got %+v", got)
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Total != 1 {
		t.Errorf("expected 1 entry after repeated upsert, got %d", stats.Total)
	}
}

func TestInsertRejectsDuplicateASIN(t *testing.T) {
	store := openTestStore(t)

	entry := &Entry{ASIN: "B00TEST0003", Title: "Dune", FolderPath: "/library/dune"}
	if err := store.Insert(entry); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	dup := &Entry{ASIN: "B00TEST0003", Title: "Dune again", FolderPath: "/library/dune2"}
	err := store.Insert(dup)
	if err == nil {
		t.Fatal("expected duplicate insert to fail")
	}
	if !errors.Is(err, util.ErrDuplicateIdentifier) {
		t.Errorf("expected ErrDuplicateIdentifier, got %v", err)
	}

	// Entries without an ASIN never collide
	for i := 0; i < 2; i++ {
		if err := store.Insert(&Entry{Title: "No ASIN", FolderPath: "/library/x"}); err != nil {
			t.Fatalf("insert without asin failed: %v", err)
		}
	}
}

func TestCheckDuplicate(t *testing.T) {
	store := openTestStore(t)

	isDup, path, err := store.CheckDuplicate("B00UNSEEN01")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if isDup || path != "" {
		t.Errorf("expected (false, \"\") for unseen asin, got (%t, %q)", isDup, path)
	}

	entry := &Entry{ASIN: "B00TEST0004", Title: "Hyperion", FolderPath: "/library/hyperion"}
	if err := store.Upsert(entry); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	isDup, path, err = store.CheckDuplicate("B00TEST0004")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !isDup {
		t.Error("expected duplicate after upsert")
	}
	if path != "/library/hyperion" {
		t.Errorf("expected existing path, got %q", path)
	}
}

func TestQueriesAndStats(t *testing.T) {
	store := openTestStore(t)

	entries := []*Entry{
		{ASIN: "B001", LibraryID: "main", Title: "A", AuthorName: "Brandon Sanderson", AuthorFolder: "Brandon Sanderson", SeriesName: "Mistborn", FolderPath: "/l/a"},
		{ASIN: "B002", LibraryID: "main", Title: "B", AuthorName: "Brandon Sanderson", AuthorFolder: "Brandon Sanderson", SeriesName: "Mistborn", FolderPath: "/l/b"},
		{LibraryID: "kids", Title: "C", AuthorName: "Roald Dahl", AuthorFolder: "Dahl, Roald", FolderPath: "/l/c"},
	}
	for _, e := range entries {
		if err := store.Upsert(e); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	byAuthor, err := store.EntriesByAuthorFolder("Brandon Sanderson")
	if err != nil {
		t.Fatalf("author query failed: %v", err)
	}
	if len(byAuthor) != 2 {
		t.Errorf("expected 2 entries by author folder, got %d", len(byAuthor))
	}

	byLib, err := store.EntriesByLibrary("kids")
	if err != nil {
		t.Fatalf("library query failed: %v", err)
	}
	if len(byLib) != 1 {
		t.Errorf("expected 1 entry in kids library, got %d", len(byLib))
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Total != 3 || stats.WithIdentifier != 2 || stats.WithoutIdentifier != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.UniqueAuthors != 2 {
		t.Errorf("expected 2 unique authors, got %d", stats.UniqueAuthors)
	}
	if stats.UniqueSeries != 1 {
		t.Errorf("expected 1 unique series, got %d", stats.UniqueSeries)
	}
}

func TestRebuildAuthorVariants(t *testing.T) {
	store := openTestStore(t)

	entries := []*Entry{
		// Same name on disk and in metadata: not a variant
		{ASIN: "B101", Title: "A", AuthorName: "Andy Weir", AuthorFolder: "andy weir", FolderPath: "/l/a"},
		// Display/folder drift
		{ASIN: "B102", Title: "B", AuthorName: "J.R.R. Tolkien", AuthorFolder: "Tolkien, J.R.R.", FolderPath: "/l/b"},
		{ASIN: "B103", Title: "C", AuthorName: "J.R.R. Tolkien", AuthorFolder: "Tolkien, J.R.R.", FolderPath: "/l/c"},
		{ASIN: "B104", Title: "D", AuthorName: "Ursula K. Le Guin", AuthorFolder: "Le Guin, Ursula K.", FolderPath: "/l/d"},
	}
	for _, e := range entries {
		if err := store.Upsert(e); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	count, err := store.RebuildAuthorVariants(time.Now())
	if err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 variant pairs, got %d", count)
	}

	variants, err := store.AuthorVariants()
	if err != nil {
		t.Fatalf("variants query failed: %v", err)
	}
	if len(variants) != 2 {
		t.Fatalf("expected 2 variant rows, got %d", len(variants))
	}

	for _, v := range variants {
		if v.AuthorName == "J.R.R. Tolkien" && v.EntryCount != 2 {
			t.Errorf("expected Tolkien variant count 2, got %d", v.EntryCount)
		}
	}

	// Idempotent
	count2, err := store.RebuildAuthorVariants(time.Now())
	if err != nil {
		t.Fatalf("second rebuild failed: %v", err)
	}
	if count2 != count {
		t.Errorf("rebuild not idempotent: %d then %d", count, count2)
	}
}

func TestImportLog(t *testing.T) {
	store := openTestStore(t)

	if err := store.LogImport("B00TEST0005", "/in/book", "/library/book", "main", ImportStatusSuccess); err != nil {
		t.Fatalf("log import failed: %v", err)
	}
	if err := store.LogImport("B00TEST0005", "/in/book2", "", "main", ImportStatusSkipped); err != nil {
		t.Fatalf("log import failed: %v", err)
	}
	if err := store.LogImport("B00OTHER001", "/in/other", "/library/other", "main", ImportStatusTrumpReplaced); err != nil {
		t.Fatalf("log import failed: %v", err)
	}

	all, err := store.ImportHistory("", 0)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	// Newest first
	if all[0].ASIN != "B00OTHER001" {
		t.Errorf("expected newest record first, got %s", all[0].ASIN)
	}

	filtered, err := store.ImportHistory("B00TEST0005", 0)
	if err != nil {
		t.Fatalf("filtered history failed: %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("expected 2 records for asin, got %d", len(filtered))
	}

	limited, err := store.ImportHistory("", 1)
	if err != nil {
		t.Fatalf("limited history failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected 1 record with limit, got %d", len(limited))
	}
}

func TestDuplicateASINsDiagnostic(t *testing.T) {
	store := openTestStore(t)

	if err := store.Upsert(&Entry{ASIN: "B00TEST0006", Title: "A", FolderPath: "/l/a"}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	dups, err := store.DuplicateASINs()
	if err != nil {
		t.Fatalf("diagnostic failed: %v", err)
	}
	if len(dups) != 0 {
		t.Errorf("expected no duplicates while invariant holds, got %d", len(dups))
	}

	// Force an invariant violation past the unique index to prove the
	// diagnostic reports rather than corrects.
	if _, err := store.db.Exec("DROP INDEX idx_entries_asin"); err != nil {
		t.Fatalf("failed to drop index: %v", err)
	}
	if _, err := store.db.Exec(`
		INSERT INTO catalog_entries (asin, title, folder_path) VALUES ('B00TEST0006', 'A again', '/l/b')
	`); err != nil {
		t.Fatalf("failed to force duplicate: %v", err)
	}

	dups, err = store.DuplicateASINs()
	if err != nil {
		t.Fatalf("diagnostic failed: %v", err)
	}
	if len(dups) != 1 {
		t.Fatalf("expected 1 duplicate asin, got %d", len(dups))
	}
	if dups[0].ASIN != "B00TEST0006" || dups[0].Count != 2 || len(dups[0].Paths) != 2 {
		t.Errorf("unexpected diagnostic row: %+v", dups[0])
	}
}

func TestExportSnapshot(t *testing.T) {
	store := openTestStore(t)

	if err := store.Upsert(&Entry{ASIN: "B00TEST0007", Title: "A", AuthorName: "X Y", AuthorFolder: "Y, X", FolderPath: "/l/a"}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if _, err := store.RebuildAuthorVariants(time.Now()); err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}

	snap, err := store.ExportSnapshot()
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if snap.ExportedAt.IsZero() {
		t.Error("expected export timestamp")
	}
	if snap.Stats.Total != 1 || len(snap.Entries) != 1 || len(snap.AuthorVariants) != 1 {
		t.Errorf("unexpected snapshot: stats=%+v entries=%d variants=%d",
			snap.Stats, len(snap.Entries), len(snap.AuthorVariants))
	}
}

func TestMetaRoundTrip(t *testing.T) {
	store := openTestStore(t)

	now := time.Now().Truncate(time.Second)
	if err := store.MarkFullSync(now); err != nil {
		t.Fatalf("mark sync failed: %v", err)
	}

	got, err := store.LastFullSync()
	if err != nil {
		t.Fatalf("last sync failed: %v", err)
	}
	if !got.Equal(now) {
		t.Errorf("expected %v, got %v", now, got)
	}
}
