// Package reconcile ties the catalog, the decision waterfall, and the
// archival vault together for one incoming release at a time: check
// for a collision, compare quality, then admit, replace, or discard,
// recording every outcome in the import log and the event trail.
package reconcile

import (
	"context"
	"fmt"

	"github.com/H2OKing89/shelfr-sub001/internal/catalog"
	"github.com/H2OKing89/shelfr-sub001/internal/probe"
	"github.com/H2OKing89/shelfr-sub001/internal/quality"
	"github.com/H2OKing89/shelfr-sub001/internal/report"
	"github.com/H2OKing89/shelfr-sub001/internal/trump"
	"github.com/H2OKing89/shelfr-sub001/internal/util"
	"github.com/H2OKing89/shelfr-sub001/internal/vault"
)

// Reconciler decides the fate of incoming releases.
type Reconciler struct {
	store     *catalog.Store
	prefs     trump.Preferences
	archiver  *vault.Archiver
	logger    *report.EventLogger
	libraryID string
	dryRun    bool
}

// Config holds reconciler configuration.
type Config struct {
	Store       *catalog.Store
	Preferences trump.Preferences
	LibraryID   string
	DryRun      bool
	Logger      *report.EventLogger
}

// New creates a new Reconciler.
func New(cfg *Config) *Reconciler {
	return &Reconciler{
		store: cfg.Store,
		prefs: cfg.Preferences,
		archiver: vault.New(&vault.Config{
			Preferences: cfg.Preferences,
			DryRun:      cfg.DryRun,
		}),
		logger:    cfg.Logger,
		libraryID: cfg.LibraryID,
		dryRun:    cfg.DryRun,
	}
}

// Incoming is one release to reconcile. Entry describes where the
// release would live in the catalog; Profile is its quality snapshot.
// Existing optionally supplies the cataloged copy's profile; when nil
// the reconciler probes the existing folder for a best-effort one.
type Incoming struct {
	Entry    catalog.Entry
	Profile  quality.Profile
	Existing *quality.Profile
}

// Outcome is the applied result of one reconciliation.
type Outcome struct {
	Status       string // import log status tag
	Collision    bool
	ExistingPath string
	ArchivedPath string
	Result       trump.Result // zero when there was no collision
}

// Reconcile runs the full decision for one incoming release. The whole
// call is the unit of cancellation: a decision is either fully applied
// or not applied.
func (r *Reconciler) Reconcile(ctx context.Context, in Incoming) (*Outcome, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	asin := in.Profile.ASIN
	if asin == "" {
		return nil, fmt.Errorf("%w: incoming release has no identifier", util.ErrInvalidConfig)
	}
	in.Entry.ASIN = asin
	if r.libraryID != "" && in.Entry.LibraryID == "" {
		in.Entry.LibraryID = r.libraryID
	}

	isDup, existingPath, err := r.store.CheckDuplicate(asin)
	if err != nil {
		return nil, err
	}

	if !isDup {
		return r.admit(&in, "")
	}

	if !r.prefs.Enabled {
		// Trumping disabled: collisions are reported, never resolved.
		util.InfoLog("Trumping disabled, skipping duplicate %s (%s)", asin, in.Entry.FolderPath)
		r.logImport(asin, in.Entry.FolderPath, "", catalog.ImportStatusDuplicate)
		r.logger.LogAdmit(asin, in.Entry.FolderPath, "", true)
		return &Outcome{Status: catalog.ImportStatusDuplicate, Collision: true, ExistingPath: existingPath}, nil
	}

	existing, err := r.existingProfile(&in, existingPath)
	if err != nil {
		r.logger.LogError(asin, in.Entry.FolderPath, err)
		return nil, err
	}

	res := trump.Decide(existing, in.Profile, r.prefs)
	res = trump.Apply(res, r.prefs.Aggressiveness)
	r.logger.LogDecision(asin, in.Entry.FolderPath, string(res.Decision), string(res.Rule), res.Reason)

	outcome := &Outcome{Collision: true, ExistingPath: existingPath, Result: res}

	switch res.Decision {
	case trump.ReplaceWithNew:
		archivedPath, err := r.archiver.Archive(existingPath, existing, in.Profile, res)
		if err != nil {
			r.logger.LogError(asin, in.Entry.FolderPath, err)
			return nil, err
		}
		outcome.ArchivedPath = archivedPath
		r.logger.LogArchive(asin, existingPath, archivedPath, res.Reason)

		// Archive first, upsert second: a crash in between leaves the
		// archived copy recoverable under the retention root and no
		// trump-replaced row in the import log.
		if !r.dryRun {
			if err := r.store.Upsert(&in.Entry); err != nil {
				return nil, fmt.Errorf("archived %s but failed to re-catalog: %w", archivedPath, err)
			}
		}
		outcome.Status = catalog.ImportStatusTrumpReplaced
		r.logImport(asin, in.Entry.FolderPath, in.Entry.FolderPath, outcome.Status)
		util.SuccessLog("Replaced %s: %s", asin, res.Reason)
		return outcome, nil

	case trump.KeepBoth:
		// A parallel copy coexists with the original; the identifier
		// stays with the cataloged entry so the uniqueness invariant holds.
		in.Entry.ASIN = ""
		admitted, err := r.admit(&in, catalog.ImportStatusDuplicate)
		if err != nil {
			return nil, err
		}
		outcome.Status = admitted.Status
		util.InfoLog("Keeping both copies of %s: %s", asin, res.Reason)
		return outcome, nil

	case trump.RejectNew, trump.KeepExisting:
		outcome.Status = catalog.ImportStatusSkipped
		r.logImport(asin, in.Entry.FolderPath, "", outcome.Status)
		r.logger.LogReject(asin, in.Entry.FolderPath, res.Reason)
		util.InfoLog("Skipping %s: %s", asin, res.Reason)
		return outcome, nil

	default:
		return nil, fmt.Errorf("unknown decision: %s", res.Decision)
	}
}

// admit catalogs an incoming release that faces no competition.
func (r *Reconciler) admit(in *Incoming, status string) (*Outcome, error) {
	if status == "" {
		status = catalog.ImportStatusSuccess
	}

	if !r.dryRun {
		if err := r.store.Upsert(&in.Entry); err != nil {
			r.logger.LogError(in.Profile.ASIN, in.Entry.FolderPath, err)
			return nil, err
		}
	}

	r.logImport(in.Profile.ASIN, in.Entry.FolderPath, in.Entry.FolderPath, status)
	r.logger.LogAdmit(in.Profile.ASIN, in.Entry.FolderPath, in.Entry.FolderPath, status == catalog.ImportStatusDuplicate)
	util.DebugLog("Admitted %s -> %s (%s)", in.Profile.ASIN, in.Entry.FolderPath, status)

	return &Outcome{Status: status}, nil
}

// existingProfile resolves the cataloged copy's quality profile.
func (r *Reconciler) existingProfile(in *Incoming, existingPath string) (quality.Profile, error) {
	if in.Existing != nil {
		return *in.Existing, nil
	}

	release, err := probe.Inspect(existingPath, in.Profile.ASIN)
	if err != nil {
		return quality.Profile{}, fmt.Errorf("failed to profile existing copy %s: %w", existingPath, err)
	}
	return release.Profile, nil
}

func (r *Reconciler) logImport(asin, sourcePath, targetPath, status string) {
	if r.dryRun {
		return
	}
	if err := r.store.LogImport(asin, sourcePath, targetPath, r.libraryID, status); err != nil {
		util.WarnLog("Failed to append import log for %s: %v", asin, err)
	}
}
