package catalog

import (
	"database/sql"
	"fmt"
	"time"
)

// Keys used in the catalog_meta table.
const (
	metaSchemaVersion = "schema_version"
	metaLastFullSync  = "last_full_sync"
)

func setMetaTx(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(`
		INSERT INTO catalog_meta (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

// SetMeta stores a key/value metadata pair.
func (s *Store) SetMeta(key, value string) error {
	return s.Transaction(func(tx *sql.Tx) error {
		return setMetaTx(tx, key, value)
	})
}

// GetMeta retrieves a metadata value, or "" when the key is unset.
func (s *Store) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM catalog_meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get meta %s: %w", key, err)
	}
	return value, nil
}

// MarkFullSync records the timestamp of the last full library sync.
func (s *Store) MarkFullSync(at time.Time) error {
	return s.SetMeta(metaLastFullSync, at.UTC().Format(time.RFC3339))
}

// LastFullSync returns the last full sync timestamp, zero when never synced.
func (s *Store) LastFullSync() (time.Time, error) {
	value, err := s.GetMeta(metaLastFullSync)
	if err != nil || value == "" {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, value)
}
