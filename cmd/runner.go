package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/navisync/navisync/internal/engine"
	"github.com/navisync/navisync/internal/models"
	"github.com/navisync/navisync/internal/shared"
	"github.com/navisync/navisync/internal/store"
	"github.com/navisync/navisync/internal/subsonic"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	client *subsonic.Client
	logger *log.Logger
	output io.Writer

	// The engine is not safe for concurrent self-invocation; every pass,
	// scheduled or on demand, goes through syncMu.
	syncMu sync.Mutex

	storeMu sync.Mutex
	cache   *store.Store
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Client *subsonic.Client
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		client: opts.Client,
		logger: opts.Logger,
		output: opts.Output,
	}
}

// openStore lazily opens the snapshot database so commands that never touch
// the cache work without one.
func (r *Runner) openStore() (*store.Store, error) {
	r.storeMu.Lock()
	defer r.storeMu.Unlock()

	if r.cache != nil {
		return r.cache, nil
	}

	cache, err := store.Open(r.config.Cache.Path, r.logger)
	if err != nil {
		return nil, err
	}
	r.cache = cache
	return cache, nil
}

// synchronize runs one serialized synchronization pass and returns the
// resulting snapshot.
func (r *Runner) synchronize(ctx context.Context, force bool) (*engine.Result, error) {
	cache, err := r.openStore()
	if err != nil {
		return nil, err
	}

	r.syncMu.Lock()
	defer r.syncMu.Unlock()

	eng := engine.New(r.client, cache, r.logger, engine.Options{
		ExpiryHorizon: time.Duration(r.config.Sync.ExpiryDays) * 24 * time.Hour,
		Workers:       r.config.Sync.Workers,
	})

	progress := make(chan engine.ProgressUpdate, 100)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Debug(update.Message, "phase", update.Phase)
		}
	}()

	result, err := eng.Synchronize(ctx, force, progress)
	close(progress)
	<-done
	return result, err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// sortedAlbums flattens a snapshot for display, ordered by artist then name.
func sortedAlbums(snapshot map[string]models.Album) []models.Album {
	albums := make([]models.Album, 0, len(snapshot))
	for _, a := range snapshot {
		albums = append(albums, a)
	}
	sort.Slice(albums, func(i, j int) bool {
		if albums[i].Artist != albums[j].Artist {
			return albums[i].Artist < albums[j].Artist
		}
		return albums[i].Name < albums[j].Name
	})
	return albums
}
