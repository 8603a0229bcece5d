package engine

import (
	"time"

	"github.com/navisync/navisync/internal/models"
)

// idSet is a set of album identifiers.
type idSet map[string]struct{}

func (s idSet) has(id string) bool {
	_, ok := s[id]
	return ok
}

// diffResult partitions identifiers into the work the pass must do.
type diffResult struct {
	newIDs     idSet // remote but not cached
	deletedIDs idSet // cached but gone from remote
	expiredIDs idSet // cached and still remote, but stale or unenriched
}

// toFetch returns newIDs ∪ expiredIDs. Order carries no meaning; the enricher
// processes it as a set.
func (d diffResult) toFetch() []string {
	ids := make([]string, 0, len(d.newIDs)+len(d.expiredIDs))
	for id := range d.newIDs {
		ids = append(ids, id)
	}
	for id := range d.expiredIDs {
		ids = append(ids, id)
	}
	return ids
}

// diffCatalog computes the new, deleted and expired identifier sets between
// the remote listing and the cached snapshot. Age is measured from now; a
// record with a missing or unparsable fetch timestamp, or without the
// aggregated size, is treated as expired so it gets re-fetched rather than
// trusted.
func diffCatalog(currentIDs []string, cached map[string]models.Album, now time.Time, horizon time.Duration) diffResult {
	current := make(idSet, len(currentIDs))
	for _, id := range currentIDs {
		current[id] = struct{}{}
	}

	d := diffResult{
		newIDs:     make(idSet),
		deletedIDs: make(idSet),
		expiredIDs: make(idSet),
	}

	for id := range current {
		if _, ok := cached[id]; !ok {
			d.newIDs[id] = struct{}{}
		}
	}

	for id, album := range cached {
		if !current.has(id) {
			d.deletedIDs[id] = struct{}{}
			continue
		}

		expired := true
		if fetched, ok := album.FetchedTime(); ok {
			expired = now.Sub(fetched) >= horizon
		}
		if expired || !album.Enriched() {
			d.expiredIDs[id] = struct{}{}
		}
	}

	return d
}
