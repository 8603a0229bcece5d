package engine

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/navisync/navisync/internal/models"
)

// enrichResult is one completed detail fetch. fallback marks records built
// from the lightweight listing entry after the detail call failed.
type enrichResult struct {
	album    models.Album
	fallback bool
	ok       bool
}

// enrich fetches detail records for ids across a bounded worker pool and
// returns them in completion order. Every returned record carries a fresh
// fetch timestamp; a failed fetch degrades to the listing entry with a zero
// aggregated size so it is not retried until the expiry horizon passes.
func (e *Engine) enrich(ctx context.Context, logger *log.Logger, ids []string, listing map[string]models.Album, progress chan<- ProgressUpdate) ([]models.Album, int) {
	if len(ids) == 0 {
		return nil, 0
	}

	jobs := make(chan string, len(ids))
	results := make(chan enrichResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < e.opts.Workers; i++ {
		wg.Add(1)
		go e.enrichWorker(ctx, logger, &wg, jobs, results, listing)
	}

	for _, id := range ids {
		jobs <- id
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	enriched := make([]models.Album, 0, len(ids))
	fallbacks := 0
	completed := 0
	for res := range results {
		completed++
		if !res.ok {
			continue
		}
		if res.fallback {
			fallbacks++
		}
		enriched = append(enriched, res.album)

		if completed%50 == 0 {
			logger.Info("enriching albums", "done", completed, "total", len(ids))
		}
		sendProgress(progress, enrichUpdate(completed, len(ids), res.album.ID))
	}

	return enriched, fallbacks
}

// enrichWorker consumes album IDs from jobs and produces one result per ID.
// Failures never abort the pool; they degrade to the lightweight entry.
func (e *Engine) enrichWorker(ctx context.Context, logger *log.Logger, wg *sync.WaitGroup, jobs <-chan string, results chan<- enrichResult, listing map[string]models.Album) {
	defer wg.Done()

	for id := range jobs {
		album, err := e.client.GetAlbum(ctx, id)
		now := time.Now()

		if err != nil || album == nil {
			fallback, known := listing[id]
			if !known {
				logger.Error("failed to enrich album with no listing fallback", "id", id, "err", err)
				results <- enrichResult{ok: false}
				continue
			}
			logger.Warn("detail fetch failed, using listing entry", "id", id, "err", err)
			fallback.SetSize(0)
			fallback.Stamp(now)
			results <- enrichResult{album: fallback, fallback: true, ok: true}
			continue
		}

		record := *album
		record.Stamp(now)
		results <- enrichResult{album: record, ok: true}
	}
}
