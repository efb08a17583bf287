// Package trump decides whether an incoming audiobook release should
// supersede an already-cataloged copy with the same ASIN. The
// comparison is a fixed, ordered waterfall of guards; the first guard
// that matches decides the outcome.
package trump

import (
	"fmt"

	"github.com/H2OKing89/shelfr-sub001/internal/quality"
)

// Decision is the outcome of comparing an incoming release against an
// existing cataloged copy.
type Decision string

const (
	// KeepExisting means no action; the existing copy wins on a tie.
	KeepExisting Decision = "keep_existing"
	// KeepBoth means the two copies are legitimately distinct editions.
	KeepBoth Decision = "keep_both"
	// ReplaceWithNew means the incoming copy supersedes the existing one.
	ReplaceWithNew Decision = "replace_with_new"
	// RejectNew means the incoming copy is strictly worse and is discarded.
	RejectNew Decision = "reject_new"
)

// Rule identifies which waterfall guard produced a decision. The
// aggressiveness modifier and the audit log key off this, not off the
// free-text reason.
type Rule string

const (
	RuleDifferentASIN      Rule = "different_asin"
	RuleLanguageMismatch   Rule = "language_mismatch"
	RuleAbridgedMismatch   Rule = "abridged_mismatch"
	RuleMuchShorter        Rule = "much_shorter"
	RuleMuchLonger         Rule = "much_longer"
	RuleFormatUpgrade      Rule = "format_upgrade"
	RuleFormatDowngrade    Rule = "format_downgrade"
	RuleBitrateUpgrade     Rule = "bitrate_upgrade"
	RuleBitrateDowngrade   Rule = "bitrate_downgrade"
	RuleSampleRateUpgrade  Rule = "sample_rate_upgrade"
	RuleChaptersAdded      Rule = "chapters_added"
	RuleStereoUpgrade      Rule = "stereo_upgrade"
	RuleNoImprovement      Rule = "no_improvement"
	RuleConservativeVeto   Rule = "conservative_veto"
)

// Result is a decision plus its justification.
type Result struct {
	Decision Decision
	Rule     Rule
	Reason   string
}

// Decide compares an existing profile against an incoming one and
// returns exactly one of the four outcomes. It is pure and
// deterministic: no I/O, no randomness, same inputs always produce the
// same result. The guards run in a fixed order and the first match
// wins; absence of evidence never triggers a replacement.
func Decide(existing, incoming quality.Profile, prefs Preferences) Result {
	// Different ASINs are different titles, full stop.
	if existing.ASIN != incoming.ASIN {
		return Result{
			Decision: KeepBoth,
			Rule:     RuleDifferentASIN,
			Reason:   fmt.Sprintf("different catalog identifier (%s vs %s)", existing.ASIN, incoming.ASIN),
		}
	}

	if existing.Language != "" && incoming.Language != "" && existing.Language != incoming.Language {
		return Result{
			Decision: KeepBoth,
			Rule:     RuleLanguageMismatch,
			Reason:   fmt.Sprintf("language mismatch (%s vs %s)", existing.Language, incoming.Language),
		}
	}

	if existing.Abridged.Known() && incoming.Abridged.Known() && existing.Abridged != incoming.Abridged {
		return Result{
			Decision: KeepBoth,
			Rule:     RuleAbridgedMismatch,
			Reason:   fmt.Sprintf("abridgement mismatch (existing %s, incoming %s)", existing.Abridged, incoming.Abridged),
		}
	}

	// Duration gate runs before any format/bitrate comparison: a much
	// shorter candidate is junk no matter how good it sounds, and a much
	// longer one is probably a different edition.
	if ratio, ok := existing.DurationRatio(incoming); ok {
		if ratio < prefs.MinDurationRatio {
			return Result{
				Decision: RejectNew,
				Rule:     RuleMuchShorter,
				Reason:   fmt.Sprintf("incoming is materially shorter (ratio %.2f < %.2f)", ratio, prefs.MinDurationRatio),
			}
		}
		if ratio > prefs.MaxDurationRatio {
			return Result{
				Decision: KeepBoth,
				Rule:     RuleMuchLonger,
				Reason:   fmt.Sprintf("incoming is materially longer (ratio %.2f > %.2f), likely a different edition", ratio, prefs.MaxDurationRatio),
			}
		}
	}

	// Format rank dominates bitrate: a better container at a worse
	// bitrate still wins.
	if incoming.FormatRank() > existing.FormatRank() {
		return Result{
			Decision: ReplaceWithNew,
			Rule:     RuleFormatUpgrade,
			Reason:   fmt.Sprintf("format upgrade (%s -> %s)", existing.Format, incoming.Format),
		}
	}
	if incoming.FormatRank() < existing.FormatRank() {
		return Result{
			Decision: RejectNew,
			Rule:     RuleFormatDowngrade,
			Reason:   fmt.Sprintf("format downgrade (%s -> %s)", existing.Format, incoming.Format),
		}
	}

	if existing.HasBitrate() && incoming.HasBitrate() {
		delta := incoming.BitrateKbps - existing.BitrateKbps
		if delta >= prefs.MinBitrateIncreaseKbps {
			return Result{
				Decision: ReplaceWithNew,
				Rule:     RuleBitrateUpgrade,
				Reason:   fmt.Sprintf("bitrate upgrade (%d -> %d kbps)", existing.BitrateKbps, incoming.BitrateKbps),
			}
		}
		if delta <= -prefs.MinBitrateIncreaseKbps {
			return Result{
				Decision: RejectNew,
				Rule:     RuleBitrateDowngrade,
				Reason:   fmt.Sprintf("bitrate downgrade (%d -> %d kbps)", existing.BitrateKbps, incoming.BitrateKbps),
			}
		}
	}

	if existing.HasSampleRate() && incoming.HasSampleRate() && incoming.SampleRateHz > existing.SampleRateHz {
		return Result{
			Decision: ReplaceWithNew,
			Rule:     RuleSampleRateUpgrade,
			Reason:   fmt.Sprintf("sample-rate upgrade (%d -> %d Hz)", existing.SampleRateHz, incoming.SampleRateHz),
		}
	}

	if prefs.PreferChapters && incoming.Chapters && !existing.Chapters {
		return Result{
			Decision: ReplaceWithNew,
			Rule:     RuleChaptersAdded,
			Reason:   "chapter data added",
		}
	}

	if prefs.PreferStereo && incoming.Stereo.True() && existing.Stereo.Known() && !existing.Stereo.True() {
		return Result{
			Decision: ReplaceWithNew,
			Rule:     RuleStereoUpgrade,
			Reason:   "stereo upgrade",
		}
	}

	return Result{
		Decision: KeepExisting,
		Rule:     RuleNoImprovement,
		Reason:   "no quality improvement",
	}
}
