package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"realty-scraper/models"
	"realty-scraper/utils"
)

const stampLayout = "20060102_150405"

// ArtifactConfig names every persisted artifact location explicitly; no
// component hardcodes paths.
type ArtifactConfig struct {
	// DataDir holds all artifacts.
	DataDir string
	// Basename prefixes the per-run raw and filtered artifacts.
	Basename string
	// HistoryFile and LatestFile are the singleton artifacts, relative
	// to DataDir.
	HistoryFile string
	LatestFile  string
}

// HistoryPath returns the absolute history artifact path.
func (c ArtifactConfig) HistoryPath() string { return filepath.Join(c.DataDir, c.HistoryFile) }

// LatestPath returns the absolute latest-view artifact path.
func (c ArtifactConfig) LatestPath() string { return filepath.Join(c.DataDir, c.LatestFile) }

func (c ArtifactConfig) rawPath(stamp string) string {
	return filepath.Join(c.DataDir, fmt.Sprintf("%s_raw_%s.csv", c.Basename, stamp))
}

func (c ArtifactConfig) filteredPath(stamp string) string {
	return filepath.Join(c.DataDir, fmt.Sprintf("%s_%s.csv", c.Basename, stamp))
}

// Result reports what one reconciliation produced.
type Result struct {
	RawPath      string
	FilteredPath string
	RawSize      int
	SnapshotSize int
	// Duplicates counts priced rows collapsed out of the snapshot because
	// their (id, price) pair was already observed earlier in the same run.
	Duplicates  int
	HistorySize int
	// NoOp is true when the snapshot was empty: the raw artifact was
	// still written but history and latest were left untouched.
	NoOp bool
}

// Reconciler merges one run's listings into the persisted history and
// latest-view artifacts without ever duplicating an (id, price) pair.
// Every singleton write is temp-then-rename, so a crash mid-reconcile
// leaves the previous history and latest view intact for readers.
type Reconciler struct {
	cfg    ArtifactConfig
	logger *utils.Logger
}

// NewReconciler creates a Reconciler writing under cfg's locations.
func NewReconciler(cfg ArtifactConfig, logger *utils.Logger) *Reconciler {
	return &Reconciler{cfg: cfg, logger: logger}
}

// HistoryPath returns the singleton history artifact path.
func (r *Reconciler) HistoryPath() string { return r.cfg.HistoryPath() }

// LatestPath returns the singleton latest-view artifact path.
func (r *Reconciler) LatestPath() string { return r.cfg.LatestPath() }

type dedupKey struct {
	id    string
	price int
}

// Reconcile persists the run's artifacts. The raw audit copy is written
// unconditionally, even for an empty run; it is the only record of a
// failed-to-price run. An empty snapshot is a valid no-op outcome, not an
// error. Any I/O failure, including an unreadable existing history, is
// returned for the runner to retry.
func (r *Reconciler) Reconcile(listings []*models.Listing, runTime time.Time) (*Result, error) {
	stamp := runTime.Format(stampLayout)
	res := &Result{
		RawPath:      r.cfg.rawPath(stamp),
		FilteredPath: r.cfg.filteredPath(stamp),
		RawSize:      len(listings),
	}

	priced := 0
	for _, l := range listings {
		if l.Priced() {
			priced++
		}
	}
	// The raw set goes to the audit artifact verbatim; only the snapshot
	// collapses repeated (id, price) observations. Distinct prices for the
	// same advert within one run both survive into history.
	snapshot := dedupe(listings)
	res.Duplicates = priced - len(snapshot)

	// Stable, so equal-price listings keep capture order.
	sort.SliceStable(snapshot, func(i, j int) bool {
		return *snapshot[i].Price < *snapshot[j].Price
	})
	res.SnapshotSize = len(snapshot)

	if err := WriteListings(res.RawPath, listings); err != nil {
		return nil, fmt.Errorf("raw artifact: %w", err)
	}
	r.logger.Info("[reconcile] Raw audit written — %d rows → %s", len(listings), res.RawPath)

	if len(snapshot) == 0 {
		r.logger.Warn("[reconcile] Empty snapshot — leaving history and latest view untouched")
		res.NoOp = true
		return res, nil
	}

	if err := WriteListings(res.FilteredPath, snapshot); err != nil {
		return nil, fmt.Errorf("filtered artifact: %w", err)
	}

	history, err := r.loadHistory()
	if err != nil {
		return nil, err
	}

	merged := dedupe(append(history, snapshot...))
	res.HistorySize = len(merged)

	if err := WriteListings(r.cfg.HistoryPath(), merged); err != nil {
		return nil, fmt.Errorf("history artifact: %w", err)
	}
	if err := WriteListings(r.cfg.LatestPath(), snapshot); err != nil {
		return nil, fmt.Errorf("latest artifact: %w", err)
	}

	r.logger.Info("[reconcile] History now holds %d rows (+%d this run); latest view replaced with %d rows",
		len(merged), len(merged)-len(history), len(snapshot))
	return res, nil
}

// loadHistory reads the existing history artifact, treating a missing file
// as the empty first-run history.
func (r *Reconciler) loadHistory() ([]*models.Listing, error) {
	path := r.cfg.HistoryPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		r.logger.Info("[reconcile] No existing history at %s — starting fresh", path)
		return nil, nil
	}
	history, err := ReadListings(path)
	if err != nil {
		return nil, fmt.Errorf("existing history: %w", err)
	}
	return history, nil
}

// dedupe keeps one priced row per (id, price) pair, first occurrence wins.
// For the history merge the existing rows precede the new snapshot in the
// input, so a pair observed in an earlier run retains its original
// timestamp; for the snapshot build it collapses same-run repeats.
func dedupe(rows []*models.Listing) []*models.Listing {
	seen := make(map[dedupKey]struct{}, len(rows))
	out := make([]*models.Listing, 0, len(rows))
	for _, l := range rows {
		if !l.Priced() {
			continue
		}
		key := dedupKey{id: l.ID, price: *l.Price}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}
