package subsonic

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/navisync/navisync/internal/shared"
	tu "github.com/navisync/navisync/internal/testing"
)

func newTestClient(rt http.RoundTripper, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://music.local"
	}
	if cfg.Username == "" {
		cfg.Username = "admin"
	}
	if cfg.Password == "" {
		cfg.Password = "hunter2"
	}
	return New(cfg, &http.Client{Transport: rt}, nil)
}

func okBody(inner string) string {
	return fmt.Sprintf(`{"subsonic-response": {"status": "ok", "version": "1.16.1"%s}}`, inner)
}

func TestAuthParams(t *testing.T) {
	c := newTestClient(nil, Config{Password: "hunter2"})
	params := c.authParams()

	if got := params.Get("u"); got != "admin" {
		t.Errorf("u = %q, want admin", got)
	}
	if got := params.Get("v"); got != defaultAPIVersion {
		t.Errorf("v = %q, want %q", got, defaultAPIVersion)
	}
	if got := params.Get("c"); got != defaultClientName {
		t.Errorf("c = %q, want %q", got, defaultClientName)
	}
	if got := params.Get("f"); got != "json" {
		t.Errorf("f = %q, want json", got)
	}

	salt := params.Get("s")
	if len(salt) != 6 {
		t.Fatalf("salt %q has length %d, want 6", salt, len(salt))
	}
	for _, r := range salt {
		if !strings.ContainsRune(saltAlphabet, r) {
			t.Errorf("salt contains %q, outside the alphabet", r)
		}
	}

	want := fmt.Sprintf("%x", md5.Sum([]byte("hunter2"+salt)))
	if got := params.Get("t"); got != want {
		t.Errorf("token = %q, want md5(password+salt) = %q", got, want)
	}
}

func TestListAlbumsPaging(t *testing.T) {
	pages := map[string]string{
		"0": okBody(`, "albumList": {"album": [{"id": "al-1", "name": "One"}, {"id": "al-2", "name": "Two"}]}`),
		"2": okBody(`, "albumList": {"album": [{"id": "al-3", "name": "Three"}]}`),
		"4": okBody(`, "albumList": {"album": []}`),
	}

	var requests []string
	rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		if !strings.Contains(r.URL.Path, "getAlbumList") {
			t.Fatalf("unexpected endpoint %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("type") != "alphabeticalByArtist" {
			t.Errorf("type = %q, want alphabeticalByArtist", q.Get("type"))
		}
		if q.Get("size") != "2" {
			t.Errorf("size = %q, want 2", q.Get("size"))
		}
		offset := q.Get("offset")
		requests = append(requests, offset)
		body, ok := pages[offset]
		if !ok {
			t.Fatalf("unexpected offset %q", offset)
		}
		return tu.JSONResponse(http.StatusOK, body), nil
	})

	c := newTestClient(rt, Config{PageSize: 2})
	albums, err := c.ListAlbums(context.Background())
	if err != nil {
		t.Fatalf("ListAlbums failed: %v", err)
	}

	if len(albums) != 3 {
		t.Errorf("got %d albums, want 3", len(albums))
	}
	if len(requests) != 3 {
		t.Errorf("made %d requests, want 3 (two pages plus the empty one)", len(requests))
	}
}

func TestListAlbumsMalformedPageReturnsPartial(t *testing.T) {
	rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		if r.URL.Query().Get("offset") == "0" {
			return tu.JSONResponse(http.StatusOK, okBody(`, "albumList": {"album": [{"id": "al-1", "name": "One"}]}`)), nil
		}
		return tu.JSONResponse(http.StatusOK, `{"subsonic-response": {`), nil
	})

	c := newTestClient(rt, Config{PageSize: 1})
	albums, err := c.ListAlbums(context.Background())
	if err != nil {
		t.Fatalf("malformed page must not fail the listing: %v", err)
	}
	if len(albums) != 1 || albums[0].ID != "al-1" {
		t.Errorf("got %v, want the first page only", albums)
	}
}

func TestDoRetriesTransientStatus(t *testing.T) {
	attempts := 0
	rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		attempts++
		if attempts == 1 {
			return tu.JSONResponse(http.StatusServiceUnavailable, ""), nil
		}
		return tu.JSONResponse(http.StatusOK, okBody(`, "scanStatus": {"scanning": false, "count": 10}`)), nil
	})

	c := newTestClient(rt, Config{})
	status, err := c.GetScanStatus(context.Background())
	if err != nil {
		t.Fatalf("expected recovery after retry, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("made %d attempts, want 2", attempts)
	}
	if status.Count != 10 {
		t.Errorf("Count = %d, want 10", status.Count)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	attempts := 0
	rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		attempts++
		return tu.JSONResponse(http.StatusBadGateway, ""), nil
	})

	c := newTestClient(rt, Config{})
	_, err := c.GetScanStatus(context.Background())
	if !errors.Is(err, shared.ErrRetriesExhausted) {
		t.Fatalf("err = %v, want ErrRetriesExhausted", err)
	}
	if attempts != maxAttempts {
		t.Errorf("made %d attempts, want %d", attempts, maxAttempts)
	}
}

func TestDoDoesNotRetryHardStatus(t *testing.T) {
	attempts := 0
	rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		attempts++
		return tu.JSONResponse(http.StatusNotFound, ""), nil
	})

	c := newTestClient(rt, Config{})
	_, err := c.GetScanStatus(context.Background())
	if !errors.Is(err, shared.ErrRemoteAPI) {
		t.Fatalf("err = %v, want ErrRemoteAPI", err)
	}
	if attempts != 1 {
		t.Errorf("made %d attempts, want 1", attempts)
	}
}

func TestDoAPIErrors(t *testing.T) {
	tc := []struct {
		name string
		code int
		want error
	}{
		{"wrong credentials", 40, shared.ErrAuthFailed},
		{"token unsupported", 41, shared.ErrAuthFailed},
		{"not authorized", 50, shared.ErrAuthFailed},
		{"generic failure", 70, shared.ErrRemoteAPI},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			body := fmt.Sprintf(
				`{"subsonic-response": {"status": "failed", "error": {"code": %d, "message": "nope"}}}`,
				tt.code,
			)
			rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
				attempts++
				return tu.JSONResponse(http.StatusOK, body), nil
			})

			c := newTestClient(rt, Config{})
			_, err := c.GetScanStatus(context.Background())
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if attempts != 1 {
				t.Errorf("in-band failures must not be retried, made %d attempts", attempts)
			}
		})
	}
}

func TestDoMalformedBody(t *testing.T) {
	rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		return tu.JSONResponse(http.StatusOK, `not json at all`), nil
	})

	c := newTestClient(rt, Config{})
	_, err := c.GetScanStatus(context.Background())
	if !errors.Is(err, shared.ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestGetAlbumAggregatesTrackSizes(t *testing.T) {
	body := okBody(`, "album": {
		"id": "al-1",
		"name": "Album",
		"song": [
			{"id": "s1", "size": 1000},
			{"id": "s2", "size": 2500},
			{"id": "s3"}
		]
	}`)
	rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		if got := r.URL.Query().Get("id"); got != "al-1" {
			t.Errorf("id = %q, want al-1", got)
		}
		return tu.JSONResponse(http.StatusOK, body), nil
	})

	c := newTestClient(rt, Config{})
	album, err := c.GetAlbum(context.Background(), "al-1")
	if err != nil {
		t.Fatalf("GetAlbum failed: %v", err)
	}
	if !album.Enriched() {
		t.Fatal("detail record should carry the aggregated size")
	}
	if album.Size() != 3500 {
		t.Errorf("Size() = %d, want 3500 (missing track sizes count as zero)", album.Size())
	}
}

func TestGetAlbumEmptyPayload(t *testing.T) {
	rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		return tu.JSONResponse(http.StatusOK, okBody(``)), nil
	})

	c := newTestClient(rt, Config{})
	_, err := c.GetAlbum(context.Background(), "al-1")
	if !errors.Is(err, shared.ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestListAlbumsMusicFolderResolution(t *testing.T) {
	var listingFolder string
	folderCalls := 0
	rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		switch {
		case strings.Contains(r.URL.Path, "getMusicFolders"):
			folderCalls++
			return tu.JSONResponse(http.StatusOK, okBody(
				`, "musicFolders": {"musicFolder": [{"id": 0, "name": "Podcasts"}, {"id": 3, "name": "Music"}]}`,
			)), nil
		case strings.Contains(r.URL.Path, "getAlbumList"):
			listingFolder = r.URL.Query().Get("musicFolderId")
			return tu.JSONResponse(http.StatusOK, okBody(`, "albumList": {"album": []}`)), nil
		default:
			t.Fatalf("unexpected endpoint %s", r.URL.Path)
			return nil, nil
		}
	})

	c := newTestClient(rt, Config{MusicFolder: "Music"})
	if _, err := c.ListAlbums(context.Background()); err != nil {
		t.Fatalf("ListAlbums failed: %v", err)
	}
	if listingFolder != "3" {
		t.Errorf("musicFolderId = %q, want 3", listingFolder)
	}

	// Second listing reuses the memoized folder ID.
	if _, err := c.ListAlbums(context.Background()); err != nil {
		t.Fatalf("second ListAlbums failed: %v", err)
	}
	if folderCalls != 1 {
		t.Errorf("getMusicFolders called %d times, want 1", folderCalls)
	}
}

func TestGetHistory(t *testing.T) {
	body := okBody(`, "history": {"item": [
		{"albumId": "al-1", "album": "A", "played": 1700000000000},
		{"albumId": "al-2", "album": "B", "played": "2023-11-14T22:13:20Z"}
	]}`)
	rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		return tu.JSONResponse(http.StatusOK, body), nil
	})

	c := newTestClient(rt, Config{})
	events, err := c.GetHistory(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	for i, ev := range events {
		if _, ok := ev.Played.Time(); !ok {
			t.Errorf("event %d: timestamp not decoded", i)
		}
	}
}

func TestFrequentAlbums(t *testing.T) {
	rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		q := r.URL.Query()
		if q.Get("type") != "frequent" {
			t.Errorf("type = %q, want frequent", q.Get("type"))
		}
		if q.Get("size") != "5" {
			t.Errorf("size = %q, want 5", q.Get("size"))
		}
		return tu.JSONResponse(http.StatusOK, okBody(
			`, "albumList2": {"album": [{"id": "al-1", "name": "One"}]}`,
		)), nil
	})

	c := newTestClient(rt, Config{})
	albums, err := c.FrequentAlbums(context.Background(), 5)
	if err != nil {
		t.Fatalf("FrequentAlbums failed: %v", err)
	}
	if len(albums) != 1 || albums[0].ID != "al-1" {
		t.Errorf("got %v, want the single listing entry", albums)
	}
}

func TestSearch(t *testing.T) {
	rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		q := r.URL.Query()
		if q.Get("query") != "portishead" {
			t.Errorf("query = %q, want portishead", q.Get("query"))
		}
		if q.Get("artistCount") != "0" || q.Get("songCount") != "0" {
			t.Error("search should request albums only")
		}
		return tu.JSONResponse(http.StatusOK, okBody(
			`, "searchResult3": {"album": [{"id": "al-9", "name": "Dummy"}]}`,
		)), nil
	})

	c := newTestClient(rt, Config{})
	albums, err := c.Search(context.Background(), "portishead", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(albums) != 1 || albums[0].Name != "Dummy" {
		t.Errorf("got %v, want one match", albums)
	}
}

func TestRandomAlbumEmptyLibrary(t *testing.T) {
	rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		return tu.JSONResponse(http.StatusOK, okBody(`, "albumList2": {"album": []}`)), nil
	})

	c := newTestClient(rt, Config{})
	album, err := c.RandomAlbum(context.Background())
	if err != nil {
		t.Fatalf("RandomAlbum failed: %v", err)
	}
	if album != nil {
		t.Errorf("got %+v, want nil for an empty library", album)
	}
}

func TestAlbumsByGenreLimit(t *testing.T) {
	rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		if got := r.URL.Query().Get("genre"); got != "Jazz" {
			t.Errorf("genre = %q, want Jazz", got)
		}
		return tu.JSONResponse(http.StatusOK, okBody(
			`, "albumList2": {"album": [{"id": "a"}, {"id": "b"}, {"id": "c"}]}`,
		)), nil
	})

	c := newTestClient(rt, Config{})
	albums, err := c.AlbumsByGenre(context.Background(), "Jazz", 2)
	if err != nil {
		t.Fatalf("AlbumsByGenre failed: %v", err)
	}
	if len(albums) != 2 {
		t.Errorf("got %d albums, want limit of 2", len(albums))
	}
}

func TestGetAlbumRequiresID(t *testing.T) {
	c := newTestClient(nil, Config{})
	_, err := c.GetAlbum(context.Background(), "")
	if !errors.Is(err, shared.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestNowPlaying(t *testing.T) {
	rt := tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		return tu.JSONResponse(http.StatusOK, okBody(
			`, "nowPlaying": {"entry": [{"id": "s1", "title": "Glory Box", "artist": "Portishead", "album": "Dummy"}]}`,
		)), nil
	})

	c := newTestClient(rt, Config{})
	entries, err := c.NowPlaying(context.Background())
	if err != nil {
		t.Fatalf("NowPlaying failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Glory Box" {
		t.Errorf("got %v, want one entry", entries)
	}
}

func TestCoverArtURL(t *testing.T) {
	c := newTestClient(nil, Config{})

	url := c.CoverArtURL("cover-9")
	if !strings.HasPrefix(url, "http://music.local/rest/getCoverArt?") {
		t.Errorf("unexpected URL %q", url)
	}
	if !strings.Contains(url, "id=cover-9") {
		t.Errorf("URL %q missing cover ID", url)
	}
	if !strings.Contains(url, "u=admin") || !strings.Contains(url, "t=") {
		t.Errorf("URL %q missing auth parameters", url)
	}

	if got := c.CoverArtURL(""); got != "" {
		t.Errorf("empty cover ID should yield an empty URL, got %q", got)
	}
}

func TestDoRequiresBaseURL(t *testing.T) {
	c := New(Config{Username: "u", Password: "p"}, nil, nil)
	_, err := c.GetScanStatus(context.Background())
	if !errors.Is(err, shared.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}
