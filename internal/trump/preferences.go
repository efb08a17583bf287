package trump

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/H2OKing89/shelfr-sub001/internal/util"
)

// Aggressiveness is the operator-selected policy stance. It widens or
// narrows which comparisons count as an improvement; it is not part of
// the comparison itself.
type Aggressiveness string

const (
	Conservative Aggressiveness = "conservative"
	Balanced     Aggressiveness = "balanced"
	Aggressive   Aggressiveness = "aggressive"
)

// ParseAggressiveness normalizes a case-insensitive stance name.
func ParseAggressiveness(s string) (Aggressiveness, error) {
	switch Aggressiveness(strings.ToLower(strings.TrimSpace(s))) {
	case Conservative:
		return Conservative, nil
	case Balanced, "":
		return Balanced, nil
	case Aggressive:
		return Aggressive, nil
	default:
		return "", fmt.Errorf("%w: unknown aggressiveness %q", util.ErrInvalidConfig, s)
	}
}

// Preferences is the validated trumping policy. It is configuration,
// not runtime state: validate once, then treat as read-only.
type Preferences struct {
	Enabled                bool
	ArchiveRoot            string
	Aggressiveness         Aggressiveness
	MinBitrateIncreaseKbps int
	PreferChapters         bool
	PreferStereo           bool
	MinDurationRatio       float64
	MaxDurationRatio       float64
	ArchiveByYear          bool
}

// DefaultPreferences returns the balanced defaults.
func DefaultPreferences() Preferences {
	return Preferences{
		Enabled:                true,
		Aggressiveness:         Balanced,
		MinBitrateIncreaseKbps: 64,
		PreferChapters:         true,
		PreferStereo:           true,
		MinDurationRatio:       0.9,
		MaxDurationRatio:       1.1,
		ArchiveByYear:          true,
	}
}

// Validate checks ranges and required fields, normalizes the stance to
// its canonical lowercase name, and cleans the archive root path.
func (p *Preferences) Validate() error {
	stance, err := ParseAggressiveness(string(p.Aggressiveness))
	if err != nil {
		return err
	}
	p.Aggressiveness = stance

	if p.MinBitrateIncreaseKbps < 0 {
		return fmt.Errorf("%w: min bitrate increase must be >= 0, got %d",
			util.ErrInvalidConfig, p.MinBitrateIncreaseKbps)
	}
	if p.MinDurationRatio < 0.5 || p.MinDurationRatio > 1.0 {
		return fmt.Errorf("%w: min duration ratio must be in [0.5, 1.0], got %.2f",
			util.ErrInvalidConfig, p.MinDurationRatio)
	}
	if p.MaxDurationRatio < 1.0 || p.MaxDurationRatio > 2.0 {
		return fmt.Errorf("%w: max duration ratio must be in [1.0, 2.0], got %.2f",
			util.ErrInvalidConfig, p.MaxDurationRatio)
	}

	if p.ArchiveRoot != "" {
		p.ArchiveRoot = filepath.Clean(p.ArchiveRoot)
	}
	if p.Enabled && p.ArchiveRoot == "" {
		return fmt.Errorf("%w: archive root is required when trumping is enabled",
			util.ErrNoArchiveRoot)
	}
	if p.ArchiveRoot != "" && !filepath.IsAbs(p.ArchiveRoot) {
		return fmt.Errorf("%w: archive root must be an absolute path, got %q",
			util.ErrInvalidConfig, p.ArchiveRoot)
	}

	return nil
}
