// package query filters and aggregates the synchronized snapshot: new
// arrivals, release-date anniversaries, play-count aggregation and library
// statistics.
package query

import (
	"sort"
	"time"

	"github.com/navisync/navisync/internal/models"
)

// NewArrivals returns the albums added to the library within the trailing
// cutoff window, newest first. Records with unparsable creation timestamps are
// skipped.
func NewArrivals(albums []models.Album, now time.Time, cutoff time.Duration) []models.Album {
	threshold := now.Add(-cutoff)

	var fresh []models.Album
	for _, album := range albums {
		created, ok := album.CreatedTime()
		if !ok {
			continue
		}
		if created.After(threshold) {
			fresh = append(fresh, album)
		}
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		ti, _ := fresh[i].CreatedTime()
		tj, _ := fresh[j].CreatedTime()
		return ti.After(tj)
	})
	return fresh
}

// Anniversaries returns the albums released on the given day and month in any
// year. Records without a usable day-level release date are excluded.
func Anniversaries(albums []models.Album, day, month int) []models.Album {
	var matches []models.Album
	for _, album := range albums {
		date, ok := album.BestReleaseDate()
		if !ok || date.Detail() < 3 {
			continue
		}
		if date.Day == day && date.Month == month {
			matches = append(matches, album)
		}
	}
	return matches
}

// AlbumPlays is an aggregated play count for one album.
type AlbumPlays struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Artist   string `json:"artist,omitempty"`
	CoverArt string `json:"coverArt,omitempty"`
	Plays    int    `json:"playCount"`
}

// TopPlayed groups raw play events by album and returns the most-played
// albums within the trailing window, at most limit entries. Events with
// undecodable timestamps or without an album identifier are skipped; ties keep
// insertion order.
func TopPlayed(events []models.PlayEvent, now time.Time, window time.Duration, limit int) []AlbumPlays {
	cutoff := now.Add(-window)

	counts := make(map[string]*AlbumPlays)
	var order []string

	for _, ev := range events {
		played, ok := ev.Played.Time()
		if !ok || played.Before(cutoff) {
			continue
		}
		if ev.AlbumID == "" {
			continue
		}

		entry, seen := counts[ev.AlbumID]
		if !seen {
			entry = &AlbumPlays{
				ID:       ev.AlbumID,
				Name:     ev.Album,
				Artist:   ev.Artist,
				CoverArt: ev.CoverArt,
			}
			counts[ev.AlbumID] = entry
			order = append(order, ev.AlbumID)
		}
		entry.Plays++
	}

	top := make([]AlbumPlays, 0, len(order))
	for _, id := range order {
		top = append(top, *counts[id])
	}

	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Plays > top[j].Plays
	})

	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}
	return top
}

// Statistics summarizes the snapshot.
type Statistics struct {
	Albums         int   `json:"albums"`
	Artists        int   `json:"artists"`
	Songs          int   `json:"songs"`
	TotalSizeBytes int64 `json:"size_bytes"`
}

// Stats derives library statistics from the snapshot. Artist names are
// compared case-sensitively with no normalization.
func Stats(albums []models.Album) Statistics {
	artists := make(map[string]struct{})
	stats := Statistics{Albums: len(albums)}

	for _, album := range albums {
		if album.Artist != "" {
			artists[album.Artist] = struct{}{}
		}
		stats.Songs += album.SongCount
		stats.TotalSizeBytes += album.Size()
	}

	stats.Artists = len(artists)
	return stats
}
