package catalog

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// AuthorVariant pairs an author display name with the folder name
// actually used on disk, for entries where the two drift apart. The
// table is a reporting projection: fully recomputable, never hand-edited.
type AuthorVariant struct {
	AuthorName   string `json:"author_name"`
	AuthorFolder string `json:"author_folder"`
	EntryCount   int    `json:"entry_count"`
}

// foldName normalizes an author name for case-insensitive comparison.
func foldName(name string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(name)))
}

// RebuildAuthorVariants recomputes the author_variants table from
// scratch inside one transaction and returns the number of distinct
// variant pairs found. Idempotent: rebuilding twice yields the same rows.
func (s *Store) RebuildAuthorVariants(asOf time.Time) (int, error) {
	type pair struct{ name, folder string }

	rows, err := s.db.Query(`
		SELECT author_name, author_folder FROM catalog_entries
		WHERE author_name != '' AND author_folder != ''
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to query authors: %w", err)
	}

	counts := make(map[pair]int)
	for rows.Next() {
		var name, folder string
		if err := rows.Scan(&name, &folder); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan author: %w", err)
		}
		// Only pairs that differ case-insensitively are drift
		if foldName(name) == foldName(folder) {
			continue
		}
		counts[pair{name, folder}]++
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	err = s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM author_variants"); err != nil {
			return fmt.Errorf("failed to clear variants: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO author_variants (author_name, author_folder, entry_count, rebuilt_at)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare variant insert: %w", err)
		}
		defer stmt.Close()

		for p, count := range counts {
			if _, err := stmt.Exec(p.name, p.folder, count, asOf.UTC()); err != nil {
				return fmt.Errorf("failed to insert variant: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(counts), nil
}

// AuthorVariants returns the current variant projection.
func (s *Store) AuthorVariants() ([]AuthorVariant, error) {
	rows, err := s.db.Query(`
		SELECT author_name, author_folder, entry_count
		FROM author_variants
		ORDER BY author_name, author_folder
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}
	defer rows.Close()

	var variants []AuthorVariant
	for rows.Next() {
		var v AuthorVariant
		if err := rows.Scan(&v.AuthorName, &v.AuthorFolder, &v.EntryCount); err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		variants = append(variants, v)
	}

	return variants, rows.Err()
}
