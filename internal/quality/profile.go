// Package quality defines the immutable technical profile of one
// audiobook candidate and the format ranking used to compare two of
// them. Profiles are plain values: construct once, never mutate.
package quality

import (
	"fmt"
	"strings"
)

// Format is the audio container/codec tag of a release.
type Format string

const (
	// FormatM4B is a single-file audiobook container with embedded chapters.
	FormatM4B Format = "m4b"
	// FormatM4A is an AAC companion container, usually chaptered per part.
	FormatM4A Format = "m4a"
	// FormatOpus is the modern efficient lossy codec.
	FormatOpus Format = "opus"
	// FormatMP3 is the legacy lossy codec.
	FormatMP3 Format = "mp3"
	// FormatFLAC is lossless. For audiobooks this is almost always an
	// untranscoded rip artifact, not an intentional hi-fi release, so it
	// ranks below every lossy format.
	FormatFLAC Format = "flac"
	// FormatUnknown is anything we could not classify.
	FormatUnknown Format = ""
)

// formatRanks is the fixed total order over formats, highest first.
var formatRanks = map[Format]int{
	FormatM4B:     5,
	FormatM4A:     4,
	FormatOpus:    3,
	FormatMP3:     2,
	FormatFLAC:    1,
	FormatUnknown: 0,
}

// Rank returns the format's position in the fixed quality order.
// Higher is better. Unknown formats rank lowest.
func (f Format) Rank() int {
	return formatRanks[f]
}

// ParseFormat maps a container/extension tag to a Format.
// Input is case-insensitive and may carry a leading dot.
func ParseFormat(s string) Format {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
	switch s {
	case "m4b":
		return FormatM4B
	case "m4a", "aac", "mp4":
		return FormatM4A
	case "opus", "ogg":
		return FormatOpus
	case "mp3":
		return FormatMP3
	case "flac":
		return FormatFLAC
	default:
		return FormatUnknown
	}
}

func (f Format) String() string {
	if f == FormatUnknown {
		return "unknown"
	}
	return string(f)
}

// Flag is a tri-state boolean for fields that may be unreported.
type Flag int

const (
	FlagUnknown Flag = iota
	FlagFalse
	FlagTrue
)

// Known reports whether the flag carries a real value.
func (fl Flag) Known() bool { return fl != FlagUnknown }

// True reports whether the flag is known and set.
func (fl Flag) True() bool { return fl == FlagTrue }

func (fl Flag) String() string {
	switch fl {
	case FlagTrue:
		return "true"
	case FlagFalse:
		return "false"
	default:
		return "unknown"
	}
}

// FlagOf converts a known boolean into a Flag.
func FlagOf(b bool) Flag {
	if b {
		return FlagTrue
	}
	return FlagFalse
}

// Profile is an immutable snapshot of one candidate's technical audio
// characteristics. Zero numeric fields and empty strings mean
// "unknown"; comparison rules only fire on known values.
type Profile struct {
	ASIN         string  // external catalog identifier, required
	Format       Format
	BitrateKbps  int     // 0 = unknown
	SampleRateHz int     // 0 = unknown
	Stereo       Flag
	Chapters     bool
	DurationSec  float64 // 0 = unknown
	Language     string  // BCP-47-ish tag, "" = unknown
	Abridged     Flag
}

// FormatRank returns the rank of the profile's format.
func (p Profile) FormatRank() int {
	return p.Format.Rank()
}

// HasBitrate reports whether the bitrate is known.
func (p Profile) HasBitrate() bool { return p.BitrateKbps > 0 }

// HasSampleRate reports whether the sample rate is known.
func (p Profile) HasSampleRate() bool { return p.SampleRateHz > 0 }

// HasDuration reports whether the duration is known.
func (p Profile) HasDuration() bool { return p.DurationSec > 0 }

// DurationRatio returns incoming/existing duration where the receiver
// is the existing side. The second return is false when either side is
// unknown.
func (p Profile) DurationRatio(incoming Profile) (float64, bool) {
	if !p.HasDuration() || !incoming.HasDuration() {
		return 0, false
	}
	return incoming.DurationSec / p.DurationSec, true
}

// Record flattens the profile into string key/value pairs for the
// provenance sidecar and the audit log.
func (p Profile) Record() map[string]string {
	rec := map[string]string{
		"asin":     p.ASIN,
		"format":   p.Format.String(),
		"chapters": fmt.Sprintf("%t", p.Chapters),
	}
	if p.HasBitrate() {
		rec["bitrate_kbps"] = fmt.Sprintf("%d", p.BitrateKbps)
	}
	if p.HasSampleRate() {
		rec["sample_rate_hz"] = fmt.Sprintf("%d", p.SampleRateHz)
	}
	if p.Stereo.Known() {
		rec["stereo"] = p.Stereo.String()
	}
	if p.HasDuration() {
		rec["duration_sec"] = fmt.Sprintf("%.1f", p.DurationSec)
	}
	if p.Language != "" {
		rec["language"] = p.Language
	}
	if p.Abridged.Known() {
		rec["abridged"] = p.Abridged.String()
	}
	return rec
}
