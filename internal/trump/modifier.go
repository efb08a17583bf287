package trump

import "fmt"

// Apply post-processes a decision according to the operator stance. It
// never re-derives the underlying comparison.
//
// Conservative demotes a replacement whose only justification is a
// bitrate bump back to KeepExisting; format, sample-rate, and tie-break
// upgrades stand. Balanced passes through. Aggressive currently passes
// through as well; the case is kept so a future threshold relaxation
// slots in without touching call sites.
func Apply(res Result, stance Aggressiveness) Result {
	switch stance {
	case Conservative:
		if res.Decision == ReplaceWithNew && res.Rule == RuleBitrateUpgrade {
			return Result{
				Decision: KeepExisting,
				Rule:     RuleConservativeVeto,
				Reason:   fmt.Sprintf("conservative stance overrides bitrate-only upgrade (%s)", res.Reason),
			}
		}
		return res
	case Aggressive:
		return res
	default:
		return res
	}
}
