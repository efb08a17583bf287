package catalog

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/H2OKing89/shelfr-sub001/internal/util"
)

// Entry is one cataloged audiobook.
type Entry struct {
	ID             int64
	ASIN           string // external catalog identifier, unique when non-empty
	LibraryID      string
	SourceID       string
	Title          string
	Subtitle       string
	AuthorName     string // display name from metadata
	AuthorFolder   string // name actually used on disk; kept separate to detect drift
	SeriesName     string
	SeriesPosition string
	FolderPath     string
	AudioPath      string // primary audio file within the folder
	MtimeUnix      int64
	SizeBytes      int64
	IndexedAt      time.Time
}

const entryColumns = `
	id, COALESCE(asin, ''), COALESCE(library_id, ''), COALESCE(source_id, ''),
	title, COALESCE(subtitle, ''),
	COALESCE(author_name, ''), COALESCE(author_folder, ''),
	COALESCE(series_name, ''), COALESCE(series_position, ''),
	folder_path, COALESCE(audio_path, ''),
	COALESCE(mtime_unix, 0), COALESCE(size_bytes, 0), indexed_at
`

func scanEntry(row interface{ Scan(...any) error }) (*Entry, error) {
	e := &Entry{}
	err := row.Scan(
		&e.ID, &e.ASIN, &e.LibraryID, &e.SourceID,
		&e.Title, &e.Subtitle,
		&e.AuthorName, &e.AuthorFolder,
		&e.SeriesName, &e.SeriesPosition,
		&e.FolderPath, &e.AudioPath,
		&e.MtimeUnix, &e.SizeBytes, &e.IndexedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Lookup retrieves the entry for an ASIN. A miss returns (nil, nil),
// never an error.
func (s *Store) Lookup(asin string) (*Entry, error) {
	row := s.db.QueryRow(`
		SELECT`+entryColumns+`
		FROM catalog_entries WHERE asin = ?
	`, asin)

	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup entry: %w", err)
	}

	return e, nil
}

// Exists reports whether an entry with the given ASIN is cataloged.
func (s *Store) Exists(asin string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM catalog_entries WHERE asin = ?", asin,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return count > 0, nil
}

// CheckDuplicate reports whether the ASIN collides with a cataloged
// entry, and if so, where that entry lives on disk. Called by the
// reconciler before any comparison work.
func (s *Store) CheckDuplicate(asin string) (bool, string, error) {
	if asin == "" {
		return false, "", nil
	}

	var folderPath string
	err := s.db.QueryRow(
		"SELECT folder_path FROM catalog_entries WHERE asin = ?", asin,
	).Scan(&folderPath)
	if err == sql.ErrNoRows {
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("failed to check duplicate: %w", err)
	}

	return true, folderPath, nil
}

// Insert adds a new entry and fails with ErrDuplicateIdentifier when
// the ASIN is already cataloged. Use Upsert for the documented
// last-write-wins path.
func (s *Store) Insert(e *Entry) error {
	result, err := s.db.Exec(`
		INSERT INTO catalog_entries (
			asin, library_id, source_id, title, subtitle,
			author_name, author_folder, series_name, series_position,
			folder_path, audio_path, mtime_unix, size_bytes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ASIN, e.LibraryID, e.SourceID, e.Title, e.Subtitle,
		e.AuthorName, e.AuthorFolder, e.SeriesName, e.SeriesPosition,
		e.FolderPath, e.AudioPath, e.MtimeUnix, e.SizeBytes,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: asin %s", util.ErrDuplicateIdentifier, e.ASIN)
		}
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	if id, idErr := result.LastInsertId(); idErr == nil {
		e.ID = id
	}

	return nil
}

// Upsert inserts a new entry or replaces the row carrying the same
// ASIN. Last write wins for that one identifier; entries without an
// ASIN are always inserted. The whole operation is transactional.
func (s *Store) Upsert(e *Entry) error {
	return s.Transaction(func(tx *sql.Tx) error {
		if e.ASIN != "" {
			var existingID int64
			err := tx.QueryRow(
				"SELECT id FROM catalog_entries WHERE asin = ?", e.ASIN,
			).Scan(&existingID)

			if err == nil {
				_, err = tx.Exec(`
					UPDATE catalog_entries SET
						library_id = ?, source_id = ?, title = ?, subtitle = ?,
						author_name = ?, author_folder = ?,
						series_name = ?, series_position = ?,
						folder_path = ?, audio_path = ?,
						mtime_unix = ?, size_bytes = ?,
						indexed_at = CURRENT_TIMESTAMP
					WHERE id = ?
				`,
					e.LibraryID, e.SourceID, e.Title, e.Subtitle,
					e.AuthorName, e.AuthorFolder,
					e.SeriesName, e.SeriesPosition,
					e.FolderPath, e.AudioPath,
					e.MtimeUnix, e.SizeBytes,
					existingID,
				)
				if err != nil {
					return fmt.Errorf("failed to update entry: %w", err)
				}
				e.ID = existingID
				return nil
			}
			if err != sql.ErrNoRows {
				return fmt.Errorf("failed to query entry: %w", err)
			}
		}

		result, err := tx.Exec(`
			INSERT INTO catalog_entries (
				asin, library_id, source_id, title, subtitle,
				author_name, author_folder, series_name, series_position,
				folder_path, audio_path, mtime_unix, size_bytes
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			e.ASIN, e.LibraryID, e.SourceID, e.Title, e.Subtitle,
			e.AuthorName, e.AuthorFolder, e.SeriesName, e.SeriesPosition,
			e.FolderPath, e.AudioPath, e.MtimeUnix, e.SizeBytes,
		)
		if err != nil {
			return fmt.Errorf("failed to insert entry: %w", err)
		}
		if id, idErr := result.LastInsertId(); idErr == nil {
			e.ID = id
		}
		return nil
	})
}

func (s *Store) queryEntries(query string, args ...any) ([]*Entry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// EntriesByAuthorFolder retrieves all entries filed under an on-disk
// author folder name.
func (s *Store) EntriesByAuthorFolder(name string) ([]*Entry, error) {
	return s.queryEntries(`
		SELECT`+entryColumns+`
		FROM catalog_entries WHERE author_folder = ?
		ORDER BY id
	`, name)
}

// EntriesByLibrary retrieves all entries belonging to a library.
func (s *Store) EntriesByLibrary(libraryID string) ([]*Entry, error) {
	return s.queryEntries(`
		SELECT`+entryColumns+`
		FROM catalog_entries WHERE library_id = ?
		ORDER BY id
	`, libraryID)
}

// AllEntries retrieves the whole catalog ordered by id.
func (s *Store) AllEntries() ([]*Entry, error) {
	return s.queryEntries(`
		SELECT` + entryColumns + `
		FROM catalog_entries
		ORDER BY id
	`)
}

// Stats summarizes the catalog.
type Stats struct {
	Total             int `json:"total"`
	WithIdentifier    int `json:"with_identifier"`
	WithoutIdentifier int `json:"without_identifier"`
	UniqueAuthors     int `json:"unique_authors"`
	UniqueSeries      int `json:"unique_series"`
}

// Stats returns catalog-wide counts.
func (s *Store) Stats() (*Stats, error) {
	st := &Stats{}
	err := s.db.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(CASE WHEN asin IS NOT NULL AND asin != '' THEN 1 END),
			COUNT(CASE WHEN asin IS NULL OR asin = '' THEN 1 END),
			COUNT(DISTINCT CASE WHEN author_name != '' THEN author_name END),
			COUNT(DISTINCT CASE WHEN series_name != '' THEN series_name END)
		FROM catalog_entries
	`).Scan(&st.Total, &st.WithIdentifier, &st.WithoutIdentifier, &st.UniqueAuthors, &st.UniqueSeries)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	return st, nil
}

// DuplicateASIN is one identifier that appears on more than one entry.
// The uniqueness invariant should make this impossible; the diagnostic
// exists to detect violations from historical or concurrent writes, and
// reports them instead of auto-correcting.
type DuplicateASIN struct {
	ASIN  string   `json:"asin"`
	Count int      `json:"count"`
	Paths []string `json:"paths"`
}

// DuplicateASINs scans for identifiers carried by more than one entry.
func (s *Store) DuplicateASINs() ([]DuplicateASIN, error) {
	rows, err := s.db.Query(`
		SELECT asin, COUNT(*), GROUP_CONCAT(folder_path, '|')
		FROM catalog_entries
		WHERE asin IS NOT NULL AND asin != ''
		GROUP BY asin
		HAVING COUNT(*) > 1
		ORDER BY asin
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for duplicates: %w", err)
	}
	defer rows.Close()

	var dups []DuplicateASIN
	for rows.Next() {
		var d DuplicateASIN
		var paths string
		if err := rows.Scan(&d.ASIN, &d.Count, &paths); err != nil {
			return nil, fmt.Errorf("failed to scan duplicate: %w", err)
		}
		d.Paths = strings.Split(paths, "|")
		dups = append(dups, d)
	}

	return dups, rows.Err()
}

// Snapshot is a full export of the catalog for backup or inspection.
type Snapshot struct {
	ExportedAt     time.Time       `json:"exported_at"`
	Stats          *Stats          `json:"stats"`
	Entries        []*Entry        `json:"entries"`
	AuthorVariants []AuthorVariant `json:"author_variants"`
}

// ExportSnapshot collects the whole catalog into one serializable value.
func (s *Store) ExportSnapshot() (*Snapshot, error) {
	stats, err := s.Stats()
	if err != nil {
		return nil, err
	}

	entries, err := s.AllEntries()
	if err != nil {
		return nil, err
	}

	variants, err := s.AuthorVariants()
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		ExportedAt:     time.Now().UTC(),
		Stats:          stats,
		Entries:        entries,
		AuthorVariants: variants,
	}, nil
}
