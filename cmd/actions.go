package main

import (
	"context"
	"fmt"
	"time"

	"github.com/navisync/navisync/internal/formatter"
	"github.com/navisync/navisync/internal/models"
	"github.com/navisync/navisync/internal/query"
	"github.com/navisync/navisync/internal/shared"
	"github.com/navisync/navisync/internal/ui"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file and bootstraps the snapshot database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if err := shared.CreateConfigFile(path); err != nil {
		r.logger.Warn("config not created", "err", err)
	} else {
		r.writePlain("%s\n", ui.OK(fmt.Sprintf("Wrote %s", path)))
	}

	if _, err := r.openStore(); err != nil {
		return err
	}
	r.writePlain("%s\n", ui.OK(fmt.Sprintf("Initialized snapshot database at %s", r.config.Cache.Path)))
	r.writePlain("%s\n", ui.Help("Edit the config with your server credentials, then run `navisync sync`"))
	return nil
}

// Sync runs one synchronization pass and prints its summary.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	result, err := r.synchronize(ctx, cmd.Bool("force"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"albums":    len(result.Albums),
			"skipped":   result.Skipped,
			"new":       result.New,
			"deleted":   result.Deleted,
			"expired":   result.Expired,
			"fallbacks": result.Fallbacks,
		}, true)
	}

	if result.Skipped {
		r.writePlain("%s\n", ui.OK(fmt.Sprintf("Snapshot up to date (%d albums)", len(result.Albums))))
		return nil
	}

	r.writePlain("%s\n", ui.OK(fmt.Sprintf("Synchronized %d albums", len(result.Albums))))
	r.writePlain("  new: %d  deleted: %d  refreshed: %d\n", result.New, result.Deleted, result.Expired)
	if result.Fallbacks > 0 {
		r.writePlain("%s\n", ui.Warn(fmt.Sprintf("  %d albums degraded to listing metadata", result.Fallbacks)))
	}
	return nil
}

// New lists albums added within the trailing window.
func (r *Runner) New(ctx context.Context, cmd *cli.Command) error {
	result, err := r.synchronize(ctx, cmd.Bool("force"))
	if err != nil {
		return err
	}

	window := time.Duration(cmd.Int("hours")) * time.Hour
	fresh := query.NewArrivals(result.List(), time.Now(), window)

	title := fmt.Sprintf("Albums added in the last %dh", cmd.Int("hours"))
	if len(fresh) == 0 {
		r.writePlain("%s\n", ui.Help("No new albums"))
		return nil
	}
	return r.writeAlbums(fresh, title, cmd.String("format"))
}

// Anniversary lists albums released on the given (or today's) day and month.
func (r *Runner) Anniversary(ctx context.Context, cmd *cli.Command) error {
	day := int(cmd.Int("day"))
	month := int(cmd.Int("month"))
	now := time.Now()
	if day == 0 {
		day = now.Day()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return fmt.Errorf("%w: day=%d month=%d", shared.ErrInvalidFlag, day, month)
	}

	result, err := r.synchronize(ctx, cmd.Bool("force"))
	if err != nil {
		return err
	}

	matches := query.Anniversaries(result.List(), day, month)
	if len(matches) == 0 {
		r.writePlain("%s\n", ui.Help("No anniversaries today"))
		return nil
	}

	title := fmt.Sprintf("Released on %02d/%02d in music history", day, month)
	return r.writeAlbums(matches, title, cmd.String("format"))
}

// Top aggregates playback history into a most-played ranking, falling back to
// the server's "frequently played" listing when history is unavailable.
func (r *Runner) Top(ctx context.Context, cmd *cli.Command) error {
	window := time.Duration(cmd.Int("days")) * 24 * time.Hour
	limit := int(cmd.Int("limit"))

	events, err := r.client.GetHistory(ctx, 500)
	if err != nil {
		r.logger.Warn("history unavailable, falling back to frequent albums", "err", err)
		albums, fbErr := r.client.FrequentAlbums(ctx, limit)
		if fbErr != nil {
			return fbErr
		}
		if cmd.Bool("json") {
			return r.writeJSON(albums, true)
		}
		r.writePlain("%s\n", ui.Title("Frequently played albums"))
		return r.writePlain("%s", formatter.AlbumsToText(albums))
	}

	top := query.TopPlayed(events, time.Now(), window, limit)
	if cmd.Bool("json") {
		return r.writeJSON(top, true)
	}

	r.writePlain("%s\n", ui.Title(fmt.Sprintf("Top albums of the last %d days", cmd.Int("days"))))
	return r.writePlain("%s", formatter.TopPlayedToText(top))
}

// Stats prints library statistics derived from the snapshot.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	result, err := r.synchronize(ctx, false)
	if err != nil {
		return err
	}

	stats := query.Stats(result.List())
	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}

	r.writePlain("%s\n", ui.Title("Library statistics"))
	return r.writePlain("%s", formatter.StatsToText(stats))
}

// Search queries the server's search3 endpoint.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	q := cmd.StringArg("query")
	if q == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	albums, err := r.client.Search(ctx, q, int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(albums, true)
	}
	if len(albums) == 0 {
		r.writePlain("%s\n", ui.Help(fmt.Sprintf("No albums matching %q", q)))
		return nil
	}
	r.writePlain("%s\n", ui.Title(fmt.Sprintf("Albums matching %q", q)))
	return r.writePlain("%s", formatter.AlbumsToText(albums))
}

// Random prints one random album.
func (r *Runner) Random(ctx context.Context, cmd *cli.Command) error {
	album, err := r.client.RandomAlbum(ctx)
	if err != nil {
		return err
	}
	if album == nil {
		r.writePlain("%s\n", ui.Help("Library is empty"))
		return nil
	}

	yearPart := ""
	if album.Year != 0 {
		yearPart = fmt.Sprintf(" (%d)", album.Year)
	}
	if err := r.writePlain("%s - %s%s\n", album.Artist, album.Name, yearPart); err != nil {
		return err
	}
	if url := r.client.CoverArtURL(album.CoverArt); url != "" {
		return r.writePlain("%s\n", ui.Help(url))
	}
	return nil
}

// NowPlaying lists what is currently playing on the server.
func (r *Runner) NowPlaying(ctx context.Context, cmd *cli.Command) error {
	entries, err := r.client.NowPlaying(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}
	if len(entries) == 0 {
		r.writePlain("%s\n", ui.Help("Nothing playing"))
		return nil
	}

	r.writePlain("%s\n", ui.Title("Now playing"))
	for i, e := range entries {
		r.writePlain("%d. %s - %s (%s)\n", i+1, e.Artist, e.Title, e.Album)
	}
	return nil
}

// Genres lists genres, or albums for one genre.
func (r *Runner) Genres(ctx context.Context, cmd *cli.Command) error {
	if genre := cmd.String("genre"); genre != "" {
		albums, err := r.client.AlbumsByGenre(ctx, genre, int(cmd.Int("limit")))
		if err != nil {
			return err
		}
		if cmd.Bool("json") {
			return r.writeJSON(albums, true)
		}
		r.writePlain("%s\n", ui.Title(fmt.Sprintf("Albums in %q", genre)))
		return r.writePlain("%s", formatter.AlbumsToText(albums))
	}

	genres, err := r.client.Genres(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(genres, true)
	}
	r.writePlain("%s\n", ui.Title("Genres"))
	for _, g := range genres {
		r.writePlain("%s (%d albums)\n", g.Name, g.AlbumCount)
	}
	return nil
}

// writeAlbums renders an album list in the requested format.
func (r *Runner) writeAlbums(albums []models.Album, title, format string) error {
	switch format {
	case "json":
		return r.writeJSON(albums, true)
	case "csv":
		data, err := formatter.AlbumsToCSV(albums)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	case "markdown":
		return r.writePlain("%s", formatter.AlbumsToMarkdown(albums, title))
	case "text":
		r.writePlain("%s\n", ui.Title(title))
		return r.writePlain("%s", formatter.AlbumsToText(albums))
	default:
		return fmt.Errorf("%w: format %q", shared.ErrInvalidFlag, format)
	}
}
