package subsonic

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/navisync/navisync/internal/models"
	"github.com/navisync/navisync/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultAPIVersion = "1.16.1"
	defaultClientName = "navisync"
	defaultPageSize   = 500

	maxAttempts  = 3
	retryBaseoff = time.Second
)

// Config contains the connection settings for a Subsonic server.
type Config struct {
	BaseURL     string
	Username    string
	Password    string
	APIVersion  string
	ClientName  string
	MusicFolder string  // optional: restrict listing to this named folder
	PageSize    int     // listing page size, defaults to 500
	RateLimit   float64 // requests per second, <= 0 disables throttling
}

// Client issues authenticated read-only calls against a Subsonic server.
// Safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *log.Logger
	limiter    *rate.Limiter

	mu             sync.Mutex
	folderID       string
	folderResolved bool
}

// New creates a Client. The HTTP client defaults to one with a 30 second
// timeout; the logger defaults to the shared stderr logger.
func New(cfg Config, httpClient *http.Client, logger *log.Logger) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.ClientName == "" {
		cfg.ClientName = defaultClientName
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger,
		limiter:    limiter,
	}
}

const saltAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// authParams generates the per-request Subsonic authentication parameters:
// username, a random salt and the md5(password+salt) token.
func (c *Client) authParams() url.Values {
	salt := make([]byte, 6)
	for i := range salt {
		salt[i] = saltAlphabet[rand.IntN(len(saltAlphabet))]
	}

	token := fmt.Sprintf("%x", md5.Sum([]byte(c.cfg.Password+string(salt))))

	params := url.Values{}
	params.Set("u", c.cfg.Username)
	params.Set("t", token)
	params.Set("s", string(salt))
	params.Set("v", c.cfg.APIVersion)
	params.Set("c", c.cfg.ClientName)
	params.Set("f", "json")
	return params
}

// retryable reports whether an HTTP status is worth another attempt.
func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// do performs a GET against /rest/{endpoint} with retry-with-backoff on
// transient failures. In-band API failures and undecodable bodies are never
// retried: the first maps to ErrAuthFailed/ErrRemoteAPI, the second to
// ErrMalformedResponse so callers can treat it as "no data".
func (c *Client) do(ctx context.Context, endpoint string, params url.Values) (*payload, error) {
	if c.cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: server URL not set", shared.ErrInvalidConfig)
	}

	full := c.authParams()
	for k, vs := range params {
		for _, v := range vs {
			full.Add(k, v)
		}
	}
	reqURL := fmt.Sprintf("%s/rest/%s?%s", c.cfg.BaseURL, endpoint, full.Encode())

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := retryBaseoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			c.logger.Warn("request failed", "endpoint", endpoint, "attempt", attempt+1, "err", err)
			continue
		}

		if retryable(resp.StatusCode) {
			resp.Body.Close()
			lastErr = fmt.Errorf("%w: status %d", shared.ErrRemoteAPI, resp.StatusCode)
			c.logger.Warn("transient status", "endpoint", endpoint, "status", resp.StatusCode, "attempt", attempt+1)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: status %d", shared.ErrRemoteAPI, resp.StatusCode)
		}

		var env envelope
		err = json.NewDecoder(resp.Body).Decode(&env)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", shared.ErrMalformedResponse, endpoint, err)
		}

		if env.Response.Status == "failed" {
			apiErr := env.Response.Error
			if apiErr == nil {
				apiErr = &apiError{Message: "unknown error"}
			}
			if apiErr.authFailure() {
				return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, apiErr)
			}
			return nil, fmt.Errorf("%w: %v", shared.ErrRemoteAPI, apiErr)
		}

		return &env.Response, nil
	}

	return nil, fmt.Errorf("%w: %s: %v", shared.ErrRetriesExhausted, endpoint, lastErr)
}

// musicFolderID resolves the configured music folder name to its ID via
// getMusicFolders, memoizing the result. Returns "" when no folder is
// configured or the name is unknown.
func (c *Client) musicFolderID(ctx context.Context) string {
	if c.cfg.MusicFolder == "" {
		return ""
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.folderResolved {
		return c.folderID
	}

	resp, err := c.do(ctx, "getMusicFolders", nil)
	if err != nil || resp.MusicFolders == nil {
		c.logger.Warn("could not resolve music folder", "name", c.cfg.MusicFolder, "err", err)
		return ""
	}

	for _, f := range resp.MusicFolders.Folders {
		if f.Name == c.cfg.MusicFolder {
			c.folderID = fmt.Sprint(f.ID)
			c.folderResolved = true
			c.logger.Info("resolved music folder", "name", f.Name, "id", c.folderID)
			return c.folderID
		}
	}

	c.logger.Warn("music folder not found", "name", c.cfg.MusicFolder)
	c.folderResolved = true
	return ""
}

// ListAlbums pages through getAlbumList until an empty page and returns the
// concatenated lightweight entries. A malformed page ends the listing early
// with whatever was collected; any other error aborts.
func (c *Client) ListAlbums(ctx context.Context) ([]models.Album, error) {
	var all []models.Album
	offset := 0

	folderID := c.musicFolderID(ctx)

	for {
		params := url.Values{}
		params.Set("type", "alphabeticalByArtist")
		params.Set("size", strconv.Itoa(c.cfg.PageSize))
		params.Set("offset", strconv.Itoa(offset))
		if folderID != "" {
			params.Set("musicFolderId", folderID)
		}

		resp, err := c.do(ctx, "getAlbumList", params)
		if err != nil {
			if isMalformed(err) {
				c.logger.Warn("listing ended on malformed page", "offset", offset, "err", err)
				return all, nil
			}
			return nil, err
		}
		if resp.AlbumList == nil || len(resp.AlbumList.Albums) == 0 {
			break
		}

		all = append(all, resp.AlbumList.Albums...)
		offset += c.cfg.PageSize

		if offset%2000 == 0 {
			c.logger.Info("listing albums", "fetched", offset)
		}
	}

	return all, nil
}

// GetAlbum fetches the detail record for one album via getAlbum and aggregates
// the per-track sizes into TotalSizeBytes. Missing size data counts as zero.
func (c *Client) GetAlbum(ctx context.Context, id string) (*models.Album, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: album id", shared.ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("id", id)

	resp, err := c.do(ctx, "getAlbum", params)
	if err != nil {
		return nil, err
	}
	if resp.Album == nil {
		return nil, fmt.Errorf("%w: getAlbum %s: empty payload", shared.ErrMalformedResponse, id)
	}

	album := *resp.Album
	var total int64
	for _, s := range album.Songs {
		total += s.Size
	}
	album.SetSize(total)
	return &album, nil
}

// GetScanStatus fetches the remote library scan fingerprint.
func (c *Client) GetScanStatus(ctx context.Context) (*models.ScanStatus, error) {
	resp, err := c.do(ctx, "getScanStatus", nil)
	if err != nil {
		return nil, err
	}
	if resp.ScanStatus == nil {
		return nil, fmt.Errorf("%w: getScanStatus: empty payload", shared.ErrMalformedResponse)
	}
	return resp.ScanStatus, nil
}

// GetHistory fetches raw playback history entries. Servers without the
// endpoint return an error; callers fall back to FrequentAlbums.
func (c *Client) GetHistory(ctx context.Context, size int) ([]models.PlayEvent, error) {
	if size <= 0 {
		size = defaultPageSize
	}
	params := url.Values{}
	params.Set("size", strconv.Itoa(size))

	resp, err := c.do(ctx, "getHistory", params)
	if err != nil {
		return nil, err
	}
	if resp.History == nil {
		return nil, fmt.Errorf("%w: getHistory: empty payload", shared.ErrMalformedResponse)
	}
	return resp.History.Items, nil
}

// FrequentAlbums returns the server-side "frequently played" listing, used as
// the fallback when playback history is unavailable.
func (c *Client) FrequentAlbums(ctx context.Context, limit int) ([]models.Album, error) {
	params := url.Values{}
	params.Set("type", "frequent")
	params.Set("size", strconv.Itoa(limit))

	resp, err := c.do(ctx, "getAlbumList2", params)
	if err != nil {
		return nil, err
	}
	if resp.AlbumList2 == nil {
		return nil, nil
	}
	return resp.AlbumList2.Albums, nil
}

// Search matches albums against artist names and titles via search3.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]models.Album, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("albumCount", strconv.Itoa(limit))
	params.Set("artistCount", "0")
	params.Set("songCount", "0")
	if folderID := c.musicFolderID(ctx); folderID != "" {
		params.Set("musicFolderId", folderID)
	}

	resp, err := c.do(ctx, "search3", params)
	if err != nil {
		return nil, err
	}
	if resp.SearchResult3 == nil {
		return nil, nil
	}
	return resp.SearchResult3.Albums, nil
}

// RandomAlbum fetches a single random album, or nil when the library is empty.
func (c *Client) RandomAlbum(ctx context.Context) (*models.Album, error) {
	params := url.Values{}
	params.Set("type", "random")
	params.Set("size", "1")
	if folderID := c.musicFolderID(ctx); folderID != "" {
		params.Set("musicFolderId", folderID)
	}

	resp, err := c.do(ctx, "getAlbumList2", params)
	if err != nil {
		return nil, err
	}
	if resp.AlbumList2 == nil || len(resp.AlbumList2.Albums) == 0 {
		return nil, nil
	}
	return &resp.AlbumList2.Albums[0], nil
}

// Genres fetches the library genre listing.
func (c *Client) Genres(ctx context.Context) ([]models.Genre, error) {
	resp, err := c.do(ctx, "getGenres", nil)
	if err != nil {
		return nil, err
	}
	if resp.Genres == nil {
		return nil, nil
	}
	return resp.Genres.Genres, nil
}

// AlbumsByGenre returns up to limit albums of the given genre, shuffled so
// repeated calls surface different parts of the library.
func (c *Client) AlbumsByGenre(ctx context.Context, genre string, limit int) ([]models.Album, error) {
	params := url.Values{}
	params.Set("type", "byGenre")
	params.Set("genre", genre)
	params.Set("size", strconv.Itoa(defaultPageSize))
	if folderID := c.musicFolderID(ctx); folderID != "" {
		params.Set("musicFolderId", folderID)
	}

	resp, err := c.do(ctx, "getAlbumList2", params)
	if err != nil {
		return nil, err
	}
	if resp.AlbumList2 == nil {
		return nil, nil
	}

	albums := resp.AlbumList2.Albums
	rand.Shuffle(len(albums), func(i, j int) {
		albums[i], albums[j] = albums[j], albums[i]
	})
	if limit > 0 && len(albums) > limit {
		albums = albums[:limit]
	}
	return albums, nil
}

// NowPlaying returns the entries currently playing for the authenticated user.
func (c *Client) NowPlaying(ctx context.Context) ([]models.PlayEvent, error) {
	resp, err := c.do(ctx, "getNowPlaying", nil)
	if err != nil {
		return nil, err
	}
	if resp.NowPlaying == nil {
		return nil, nil
	}
	return resp.NowPlaying.Entries, nil
}

// CoverArtURL builds an authenticated cover art URL for the given art ID.
func (c *Client) CoverArtURL(coverID string) string {
	if c.cfg.BaseURL == "" || coverID == "" {
		return ""
	}
	params := c.authParams()
	params.Set("id", coverID)
	return fmt.Sprintf("%s/rest/getCoverArt?%s", c.cfg.BaseURL, params.Encode())
}

func isMalformed(err error) bool {
	return errors.Is(err, shared.ErrMalformedResponse)
}
