// package formatter renders query results to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/navisync/navisync/internal/models"
	"github.com/navisync/navisync/internal/query"
	"github.com/navisync/navisync/internal/shared"
)

// AlbumsToCSV converts albums to CSV with columns: ID, Name, Artist, Year, Songs, Size, Created
func AlbumsToCSV(albums []models.Album) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Artist", "Year", "Songs", "Size", "Created"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, album := range albums {
		record := []string{
			album.ID,
			album.Name,
			album.Artist,
			strconv.Itoa(album.Year),
			strconv.Itoa(album.SongCount),
			strconv.FormatInt(album.Size(), 10),
			album.Created,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// AlbumsToMarkdown converts albums to a Markdown list under the given title
func AlbumsToMarkdown(albums []models.Album, title string) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Albums**: %d\n\n", len(albums)))

	for i, album := range albums {
		yearPart := ""
		if album.Year != 0 {
			yearPart = fmt.Sprintf(" (%d)", album.Year)
		}
		buf.WriteString(fmt.Sprintf("%d. **%s** - %s%s\n", i+1, album.Name, album.Artist, yearPart))
	}

	return buf.Bytes()
}

// AlbumsToText converts albums to plain text, one line per album
func AlbumsToText(albums []models.Album) []byte {
	var buf bytes.Buffer

	for i, album := range albums {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, album.Artist, album.Name))
	}

	return buf.Bytes()
}

// TopPlayedToText renders an aggregated play-count ranking
func TopPlayedToText(top []query.AlbumPlays) []byte {
	var buf bytes.Buffer

	for i, entry := range top {
		buf.WriteString(fmt.Sprintf("%d. %s - %s (%d plays)\n", i+1, entry.Name, entry.Artist, entry.Plays))
	}

	return buf.Bytes()
}

// StatsToText renders library statistics
func StatsToText(stats query.Statistics) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Albums:  %d\n", stats.Albums))
	buf.WriteString(fmt.Sprintf("Artists: %d\n", stats.Artists))
	buf.WriteString(fmt.Sprintf("Songs:   %d\n", stats.Songs))
	buf.WriteString(fmt.Sprintf("Size:    %s\n", shared.FormatBytes(stats.TotalSizeBytes)))

	return buf.Bytes()
}
