package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want time.Time
		ok   bool
	}{
		{
			name: "rfc3339",
			in:   "2023-11-14T22:13:20Z",
			want: time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC),
			ok:   true,
		},
		{
			name: "fractional seconds without zone",
			in:   "2024-01-02T03:04:05.123456789",
			want: time.Date(2024, 1, 2, 3, 4, 5, 123456789, time.UTC),
			ok:   true,
		},
		{
			name: "space separated",
			in:   "2024-01-02 03:04:05",
			want: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			ok:   true,
		},
		{
			name: "date only",
			in:   "1994-05-17",
			want: time.Date(1994, 5, 17, 0, 0, 0, 0, time.UTC),
			ok:   true,
		},
		{
			name: "empty",
			in:   "",
			ok:   false,
		},
		{
			name: "garbage",
			in:   "not-a-date",
			ok:   false,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTime(tt.in)
			if ok != tt.ok {
				t.Fatalf("ParseTime(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseTime(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestReleaseDateUnmarshal(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want ReleaseDate
	}{
		{
			name: "structured object",
			in:   `{"year": 1994, "month": 5, "day": 17}`,
			want: ReleaseDate{Year: 1994, Month: 5, Day: 17},
		},
		{
			name: "year only object",
			in:   `{"year": 1994}`,
			want: ReleaseDate{Year: 1994},
		},
		{
			name: "iso string",
			in:   `"1994-05-17"`,
			want: ReleaseDate{Year: 1994, Month: 5, Day: 17},
		},
		{
			name: "iso string with time",
			in:   `"1994-05-17T00:00:00Z"`,
			want: ReleaseDate{Year: 1994, Month: 5, Day: 17},
		},
		{
			name: "unparsable string yields zero date",
			in:   `"someday"`,
			want: ReleaseDate{},
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			var got ReleaseDate
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReleaseDateDetail(t *testing.T) {
	tc := []struct {
		name string
		date ReleaseDate
		want int
	}{
		{"unset", ReleaseDate{}, 0},
		{"year", ReleaseDate{Year: 1994}, 1},
		{"year and month", ReleaseDate{Year: 1994, Month: 5}, 2},
		{"full", ReleaseDate{Year: 1994, Month: 5, Day: 17}, 3},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.date.Detail(); got != tt.want {
				t.Errorf("Detail() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBestReleaseDate(t *testing.T) {
	tc := []struct {
		name  string
		album Album
		want  ReleaseDate
		ok    bool
	}{
		{
			name: "release date wins by default",
			album: Album{
				ReleaseDate:         &ReleaseDate{Year: 2010, Month: 3, Day: 9},
				OriginalReleaseDate: &ReleaseDate{Year: 1994, Month: 5, Day: 17},
			},
			want: ReleaseDate{Year: 2010, Month: 3, Day: 9},
			ok:   true,
		},
		{
			name: "original wins when strictly more detailed",
			album: Album{
				ReleaseDate:         &ReleaseDate{Year: 2010},
				OriginalReleaseDate: &ReleaseDate{Year: 1994, Month: 5, Day: 17},
			},
			want: ReleaseDate{Year: 1994, Month: 5, Day: 17},
			ok:   true,
		},
		{
			name:  "falls back to bare year field",
			album: Album{Year: 1987},
			want:  ReleaseDate{Year: 1987},
			ok:    true,
		},
		{
			name:  "nothing usable",
			album: Album{},
			ok:    false,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.album.BestReleaseDate()
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAlbumEnrichment(t *testing.T) {
	var album Album
	if album.Enriched() {
		t.Error("fresh album should not report as enriched")
	}
	if album.Size() != 0 {
		t.Errorf("unenriched Size() = %d, want 0", album.Size())
	}

	album.SetSize(0)
	if !album.Enriched() {
		t.Error("album with recorded zero size should report as enriched")
	}

	album.SetSize(12345)
	if album.Size() != 12345 {
		t.Errorf("Size() = %d, want 12345", album.Size())
	}
}

func TestAlbumStampRoundtrip(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)

	var album Album
	if _, ok := album.FetchedTime(); ok {
		t.Error("unstamped album should have no fetch time")
	}

	album.Stamp(now)
	got, ok := album.FetchedTime()
	if !ok {
		t.Fatal("stamped album should have a fetch time")
	}
	if !got.Equal(now) {
		t.Errorf("FetchedTime() = %v, want %v", got, now)
	}

	album.FetchedAt = "corrupt"
	if _, ok := album.FetchedTime(); ok {
		t.Error("unparsable fetch timestamp should not be ok")
	}
}

func TestAlbumJSONRoundtripKeepsEnrichment(t *testing.T) {
	album := Album{ID: "al-1", Name: "Album", Artist: "Artist"}
	album.SetSize(2048)
	album.Stamp(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	data, err := json.Marshal(album)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded Album
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !decoded.Enriched() || decoded.Size() != 2048 {
		t.Errorf("enrichment lost in roundtrip: %+v", decoded)
	}
	if decoded.FetchedAt != album.FetchedAt {
		t.Errorf("fetch timestamp lost: %q != %q", decoded.FetchedAt, album.FetchedAt)
	}
}

func TestScanStatusEqual(t *testing.T) {
	base := ScanStatus{Count: 100, LastScan: "2024-06-01T00:00:00Z"}

	tc := []struct {
		name  string
		other ScanStatus
		want  bool
	}{
		{"identical", ScanStatus{Count: 100, LastScan: "2024-06-01T00:00:00Z"}, true},
		{"scanning flag ignored", ScanStatus{Scanning: true, Count: 100, LastScan: "2024-06-01T00:00:00Z"}, true},
		{"different count", ScanStatus{Count: 101, LastScan: "2024-06-01T00:00:00Z"}, false},
		{"different last scan", ScanStatus{Count: 100, LastScan: "2024-06-02T00:00:00Z"}, false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Equal(tt.other); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlayedAtUnmarshal(t *testing.T) {
	want := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

	tc := []struct {
		name string
		in   string
		want time.Time
		ok   bool
	}{
		{
			name: "milliseconds",
			in:   `1700000000000`,
			want: want,
			ok:   true,
		},
		{
			name: "seconds",
			in:   `1700000000`,
			want: want,
			ok:   true,
		},
		{
			name: "iso string",
			in:   `"2023-11-14T22:13:20Z"`,
			want: want,
			ok:   true,
		},
		{
			name: "zero",
			in:   `0`,
			ok:   false,
		},
		{
			name: "negative",
			in:   `-5`,
			ok:   false,
		},
		{
			name: "garbage string",
			in:   `"whenever"`,
			ok:   false,
		},
		{
			name: "null",
			in:   `null`,
			ok:   false,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			var p PlayedAt
			if err := json.Unmarshal([]byte(tt.in), &p); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, ok := p.Time()
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("Time() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlayEventDecodingVariants(t *testing.T) {
	// The same instant in the three shapes different server variants emit.
	raw := `[
		{"albumId": "al-1", "album": "A", "played": 1700000000000},
		{"albumId": "al-1", "album": "A", "played": "2023-11-14T22:13:20Z"},
		{"albumId": "al-2", "album": "B", "played": 1700000000}
	]`

	var events []PlayEvent
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	want := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
	for i, ev := range events {
		got, ok := ev.Played.Time()
		if !ok {
			t.Fatalf("event %d: timestamp not decoded", i)
		}
		if !got.Equal(want) {
			t.Errorf("event %d: decoded %v, want %v", i, got, want)
		}
	}
}
