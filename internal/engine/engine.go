package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/navisync/navisync/internal/models"
	"github.com/navisync/navisync/internal/shared"
)

const (
	defaultExpiry  = 7 * 24 * time.Hour
	defaultWorkers = 10
	// Records sampled from the snapshot when checking whether enrichment
	// metadata is present (migration check).
	defaultSampleSize = 20
)

// Client is the remote catalog surface the engine needs.
type Client interface {
	ListAlbums(ctx context.Context) ([]models.Album, error)
	GetAlbum(ctx context.Context, id string) (*models.Album, error)
	GetScanStatus(ctx context.Context) (*models.ScanStatus, error)
}

// Store persists snapshots and the scan fingerprint.
type Store interface {
	LoadSnapshot() (map[string]models.Album, error)
	SaveSnapshot(albums map[string]models.Album) error
	LoadFingerprint() (*models.ScanStatus, error)
	SaveFingerprint(st *models.ScanStatus) error
}

// Options tune a synchronization pass.
type Options struct {
	ExpiryHorizon time.Duration // staleness threshold, default 7 days
	Workers       int           // concurrent detail fetches, default 10
	SampleSize    int           // gate migration-check sample, default 20
}

func (o Options) withDefaults() Options {
	if o.ExpiryHorizon <= 0 {
		o.ExpiryHorizon = defaultExpiry
	}
	if o.Workers <= 0 {
		o.Workers = defaultWorkers
	}
	if o.SampleSize <= 0 {
		o.SampleSize = defaultSampleSize
	}
	return o
}

// Result is the outcome of one synchronization pass.
type Result struct {
	Albums    map[string]models.Album // the new snapshot, keyed by album ID
	Skipped   bool                    // fingerprint gate short-circuited the pass
	New       int
	Deleted   int
	Expired   int
	Fallbacks int // enrichments that degraded to the listing entry
}

// List returns the snapshot as a slice, for the query layer.
func (r *Result) List() []models.Album {
	albums := make([]models.Album, 0, len(r.Albums))
	for _, a := range r.Albums {
		albums = append(albums, a)
	}
	return albums
}

// Engine runs synchronization passes. It is not safe for concurrent
// self-invocation; callers serialize passes (the CLI runner holds a mutex).
type Engine struct {
	client Client
	store  Store
	logger *log.Logger
	opts   Options
}

// New creates an Engine with the given collaborators.
func New(client Client, store Store, logger *log.Logger, opts Options) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{
		client: client,
		store:  store,
		logger: logger,
		opts:   opts.withDefaults(),
	}
}

// Synchronize brings the local snapshot up to date with the remote catalog
// and returns it. With force, the fingerprint gate and the cached snapshot are
// both bypassed and every album is re-fetched.
//
// Remote listing and authentication failures abort the pass with an error,
// leaving the prior snapshot untouched. Per-album enrichment failures and
// persistence failures never abort: the pass degrades and still returns its
// in-memory result.
func (e *Engine) Synchronize(ctx context.Context, force bool, progress chan<- ProgressUpdate) (*Result, error) {
	if e.client == nil || e.store == nil {
		return nil, fmt.Errorf("%w: engine not initialized", shared.ErrCacheUnavailable)
	}

	logger := shared.WithLogger(e.logger, "pass", shared.GenerateID())
	start := time.Now()

	if !force {
		sendProgress(progress, phaseUpdate(PhaseGate, "Checking scan status..."))
		if snapshot, ok := e.trySkip(ctx, logger); ok {
			logger.Info("scan status unchanged, reusing snapshot", "albums", len(snapshot))
			return &Result{Albums: snapshot, Skipped: true}, nil
		}
	}

	cached := map[string]models.Album{}
	if !force {
		loaded, err := e.store.LoadSnapshot()
		if err != nil {
			logger.Warn("snapshot load failed, starting fresh", "err", err)
		} else {
			cached = loaded
		}
	}

	sendProgress(progress, phaseUpdate(PhaseListing, "Fetching album listing..."))
	listing, err := e.client.ListAlbums(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing failed: %w", err)
	}

	currentIDs := make([]string, 0, len(listing))
	byID := make(map[string]models.Album, len(listing))
	for _, album := range listing {
		if album.ID == "" {
			continue
		}
		currentIDs = append(currentIDs, album.ID)
		byID[album.ID] = album
	}

	sendProgress(progress, phaseUpdate(PhaseDiff, "Computing delta..."))
	d := diffCatalog(currentIDs, cached, start, e.opts.ExpiryHorizon)
	toFetch := d.toFetch()

	logger.Info("sync status",
		"total", len(currentIDs),
		"new", len(d.newIDs),
		"deleted", len(d.deletedIDs),
		"expired", len(d.expiredIDs),
	)

	enriched, fallbacks := e.enrich(ctx, logger, toFetch, byID, progress)

	final := reconcile(cached, d, enriched)

	sendProgress(progress, phaseUpdate(PhasePersist, "Persisting snapshot..."))
	if err := e.store.SaveSnapshot(final); err != nil {
		// Write-behind: the in-memory snapshot is still good.
		logger.Error("failed to persist snapshot", "err", err)
	} else {
		logger.Info("snapshot updated", "albums", len(final), "took", time.Since(start))
	}

	return &Result{
		Albums:    final,
		New:       len(d.newIDs),
		Deleted:   len(d.deletedIDs),
		Expired:   len(d.expiredIDs),
		Fallbacks: fallbacks,
	}, nil
}

// trySkip implements the fingerprint gate. The pass can be skipped when the
// remote is not scanning, the fingerprint matches the persisted one, and a
// non-empty sample of the snapshot already carries enrichment metadata. An
// empty snapshot never skips: a matching fingerprint may survive a failed or
// interrupted snapshot write, and skipping then would serve an empty library. Any failure here
// just disables the optimization. When the gate decides to proceed, it
// persists the fresh fingerprint before enrichment starts.
func (e *Engine) trySkip(ctx context.Context, logger *log.Logger) (map[string]models.Album, bool) {
	status, err := e.client.GetScanStatus(ctx)
	if err != nil {
		logger.Warn("scan status check failed, proceeding with full sync", "err", err)
		return nil, false
	}
	if status.Scanning {
		logger.Info("remote scan in progress, proceeding with full sync")
		return nil, false
	}

	saved, err := e.store.LoadFingerprint()
	if err != nil {
		logger.Warn("fingerprint load failed", "err", err)
	}

	if saved != nil && saved.Equal(*status) {
		snapshot, err := e.store.LoadSnapshot()
		if err == nil && len(snapshot) > 0 && e.sampleEnriched(snapshot) {
			return snapshot, true
		}
		logger.Info("snapshot empty or missing enrichment metadata, sync required")
	}

	if err := e.store.SaveFingerprint(status); err != nil {
		logger.Warn("failed to persist fingerprint", "err", err)
	}
	return nil, false
}

// sampleEnriched checks a bounded sample of the snapshot for the aggregated
// size field. A record without it predates enrichment and forces a full pass.
func (e *Engine) sampleEnriched(snapshot map[string]models.Album) bool {
	checked := 0
	for _, album := range snapshot {
		if !album.Enriched() {
			return false
		}
		checked++
		if checked >= e.opts.SampleSize {
			break
		}
	}
	return true
}

// reconcile merges surviving cached records with freshly enriched ones.
// Deleted and expired records are dropped first; enriched records cover both
// the new and the expired sets, so every expired record is replaced rather
// than lost.
func reconcile(cached map[string]models.Album, d diffResult, enriched []models.Album) map[string]models.Album {
	final := make(map[string]models.Album, len(cached)+len(enriched))
	for id, album := range cached {
		if d.deletedIDs.has(id) || d.expiredIDs.has(id) {
			continue
		}
		final[id] = album
	}
	for _, album := range enriched {
		final[album.ID] = album
	}
	return final
}
