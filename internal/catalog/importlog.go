package catalog

import (
	"fmt"
	"time"
)

// Import statuses recorded in the audit trail.
const (
	ImportStatusSuccess       = "success"
	ImportStatusSkipped       = "skipped"
	ImportStatusDuplicate     = "duplicate"
	ImportStatusTrumpReplaced = "trump-replaced"
	ImportStatusError         = "error"
)

// ImportRecord is one append-only audit row. Never updated after insertion.
type ImportRecord struct {
	ID         int64     `json:"id"`
	ASIN       string    `json:"asin"`
	SourcePath string    `json:"source_path"`
	TargetPath string    `json:"target_path"`
	LibraryID  string    `json:"library_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// LogImport appends one record to the import audit trail.
func (s *Store) LogImport(asin, sourcePath, targetPath, libraryID, status string) error {
	_, err := s.db.Exec(`
		INSERT INTO import_log (asin, source_path, target_path, library_id, status)
		VALUES (?, ?, ?, ?, ?)
	`, asin, sourcePath, targetPath, libraryID, status)
	if err != nil {
		return fmt.Errorf("failed to log import: %w", err)
	}
	return nil
}

// ImportHistory returns audit records, newest first. An empty asin
// returns history across the whole catalog; limit <= 0 means no limit.
func (s *Store) ImportHistory(asin string, limit int) ([]*ImportRecord, error) {
	query := `
		SELECT id, COALESCE(asin, ''), COALESCE(source_path, ''),
		       COALESCE(target_path, ''), COALESCE(library_id, ''),
		       status, created_at
		FROM import_log
	`
	var args []any
	if asin != "" {
		query += " WHERE asin = ?"
		args = append(args, asin)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query import history: %w", err)
	}
	defer rows.Close()

	var records []*ImportRecord
	for rows.Next() {
		r := &ImportRecord{}
		err := rows.Scan(&r.ID, &r.ASIN, &r.SourcePath, &r.TargetPath,
			&r.LibraryID, &r.Status, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import record: %w", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}
