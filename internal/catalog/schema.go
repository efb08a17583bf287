package catalog

// Schema v1 - Initial catalog schema
const schemaV1 = `
-- Key/value metadata (schema version, last full sync timestamp)
CREATE TABLE IF NOT EXISTS catalog_meta (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- One row per cataloged audiobook
CREATE TABLE IF NOT EXISTS catalog_entries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  asin TEXT,
  library_id TEXT,
  source_id TEXT,
  title TEXT NOT NULL,
  subtitle TEXT,
  author_name TEXT,
  author_folder TEXT,
  series_name TEXT,
  series_position TEXT,
  folder_path TEXT NOT NULL,
  audio_path TEXT,
  mtime_unix INTEGER,
  size_bytes INTEGER,
  indexed_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- At most one entry per non-empty ASIN
CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_asin
  ON catalog_entries(asin) WHERE asin IS NOT NULL AND asin != '';

CREATE INDEX IF NOT EXISTS idx_entries_author_folder ON catalog_entries(author_folder);
CREATE INDEX IF NOT EXISTS idx_entries_library ON catalog_entries(library_id);

-- Derived author display-name / folder-name variants, fully rebuildable
CREATE TABLE IF NOT EXISTS author_variants (
  author_name TEXT NOT NULL,
  author_folder TEXT NOT NULL,
  entry_count INTEGER NOT NULL DEFAULT 0,
  rebuilt_at DATETIME,
  PRIMARY KEY (author_name, author_folder)
);

-- Append-only audit trail of import decisions
CREATE TABLE IF NOT EXISTS import_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  asin TEXT,
  source_path TEXT,
  target_path TEXT,
  library_id TEXT,
  status TEXT NOT NULL,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_import_log_asin ON import_log(asin);
`

// Schema v2 - Performance indexes
const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_entries_series ON catalog_entries(series_name);
CREATE INDEX IF NOT EXISTS idx_import_log_status ON import_log(status);
CREATE INDEX IF NOT EXISTS idx_import_log_created ON import_log(created_at);
`
