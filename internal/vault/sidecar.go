package vault

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/H2OKing89/shelfr-sub001/internal/quality"
	"github.com/H2OKing89/shelfr-sub001/internal/trump"
)

// SidecarRecord documents why a folder was archived. It is advisory:
// written for humans and restore tooling, never read back by this core.
type SidecarRecord struct {
	ArchivedAt string            `json:"archived_at"` // ISO-8601
	Decision   string            `json:"decision"`
	Rule       string            `json:"rule"`
	Reason     string            `json:"reason"`
	Existing   map[string]string `json:"existing_profile"`
	Incoming   map[string]string `json:"incoming_profile"`
}

func writeSidecar(dir string, existing, incoming quality.Profile, res trump.Result, at time.Time) error {
	record := SidecarRecord{
		ArchivedAt: at.UTC().Format(time.RFC3339),
		Decision:   string(res.Decision),
		Rule:       string(res.Rule),
		Reason:     res.Reason,
		Existing:   existing.Record(),
		Incoming:   incoming.Record(),
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sidecar: %w", err)
	}

	path := filepath.Join(dir, SidecarName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write sidecar: %w", err)
	}

	return nil
}
