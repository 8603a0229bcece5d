package models

import (
	"encoding/json"
	"time"
)

// timeLayouts are the ISO-8601 shapes the server emits, most specific first.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses an ISO-8601 timestamp. Values without a zone offset are
// interpreted as UTC.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ReleaseDate is a structured release date. Zero-valued fields are unset, so a
// bare year is {Year: 1994} and a full date sets all three fields.
type ReleaseDate struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"`
	Day   int `json:"day,omitempty"`
}

// UnmarshalJSON accepts either the structured {year, month, day} object or an
// ISO-8601 date string. Undecodable values yield the zero date, not an error.
func (d *ReleaseDate) UnmarshalJSON(data []byte) error {
	*d = ReleaseDate{}

	var obj struct {
		Year  int `json:"year"`
		Month int `json:"month"`
		Day   int `json:"day"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		d.Year, d.Month, d.Day = obj.Year, obj.Month, obj.Day
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if len(s) >= 10 {
			s = s[:10]
		}
		if t, err := time.Parse("2006-01-02", s); err == nil {
			d.Year, d.Month, d.Day = t.Year(), int(t.Month()), t.Day()
		}
		return nil
	}

	return nil
}

// Detail reports how specific the date is: 0 unset, 1 year, 2 year+month, 3 full.
func (d ReleaseDate) Detail() int {
	switch {
	case d.Year == 0:
		return 0
	case d.Month == 0:
		return 1
	case d.Day == 0:
		return 2
	default:
		return 3
	}
}

// Song is a single track within an album detail response.
type Song struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Track    int    `json:"track,omitempty"`
	Duration int    `json:"duration,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Suffix   string `json:"suffix,omitempty"`
	BitRate  int    `json:"bitRate,omitempty"`
}

// Album is one catalog record. Lightweight listing entries fill only the basic
// fields; enrichment adds the track list, the aggregated size and a fetch
// timestamp. The JSON tags match both the Subsonic wire shape and the persisted
// snapshot encoding.
type Album struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	Artist              string       `json:"artist,omitempty"`
	ArtistID            string       `json:"artistId,omitempty"`
	CoverArt            string       `json:"coverArt,omitempty"`
	Created             string       `json:"created,omitempty"`
	Year                int          `json:"year,omitempty"`
	Genre               string       `json:"genre,omitempty"`
	SongCount           int          `json:"songCount,omitempty"`
	Duration            int          `json:"duration,omitempty"`
	PlayCount           int64        `json:"playCount,omitempty"`
	ReleaseDate         *ReleaseDate `json:"releaseDate,omitempty"`
	OriginalReleaseDate *ReleaseDate `json:"originalReleaseDate,omitempty"`
	Songs               []Song       `json:"song,omitempty"`

	// Enrichment fields, absent on lightweight listing entries.
	TotalSizeBytes *int64 `json:"total_size_bytes,omitempty"`
	FetchedAt      string `json:"_fetched_at,omitempty"`
}

// Enriched reports whether the record carries the aggregated track size.
func (a Album) Enriched() bool {
	return a.TotalSizeBytes != nil
}

// Size returns the aggregated track size, zero when the record was never
// enriched.
func (a Album) Size() int64 {
	if a.TotalSizeBytes == nil {
		return 0
	}
	return *a.TotalSizeBytes
}

// SetSize records the aggregated track size.
func (a *Album) SetSize(n int64) {
	a.TotalSizeBytes = &n
}

// Stamp records the moment the detail fetch completed.
func (a *Album) Stamp(t time.Time) {
	a.FetchedAt = t.UTC().Format(time.RFC3339)
}

// FetchedTime parses the fetch timestamp. ok is false when the timestamp is
// missing or unparsable, which callers treat as expired.
func (a Album) FetchedTime() (time.Time, bool) {
	return ParseTime(a.FetchedAt)
}

// CreatedTime parses the server-side creation timestamp.
func (a Album) CreatedTime() (time.Time, bool) {
	return ParseTime(a.Created)
}

// BestReleaseDate picks the most useful release date for the record. The
// general release date wins by default; the original release date replaces it
// only when strictly more detailed. ok is false when neither carries a year.
func (a Album) BestReleaseDate() (ReleaseDate, bool) {
	var best ReleaseDate
	if a.ReleaseDate != nil {
		best = *a.ReleaseDate
	}
	if a.OriginalReleaseDate != nil && a.OriginalReleaseDate.Detail() > best.Detail() {
		best = *a.OriginalReleaseDate
	}
	if best.Detail() == 0 && a.Year != 0 {
		best = ReleaseDate{Year: a.Year}
	}
	return best, best.Detail() > 0
}

// ScanStatus is the remote library scan fingerprint: {scanning, count,
// lastScan}. Count and LastScan together act as a cheap change detector.
type ScanStatus struct {
	Scanning bool   `json:"scanning"`
	Count    int64  `json:"count"`
	LastScan string `json:"lastScan,omitempty"`
}

// Equal reports whether two fingerprints describe the same completed scan.
func (s ScanStatus) Equal(other ScanStatus) bool {
	return s.Count == other.Count && s.LastScan == other.LastScan
}

// PlayedAt decodes the "played" field of a history entry, which arrives as
// integer milliseconds, integer seconds or an ISO-8601 string depending on the
// server variant. Integer values below 1e11 are taken as seconds (current time
// is ~1.7e9 s and ~1.7e12 ms).
type PlayedAt struct {
	t  time.Time
	ok bool
}

const millisThreshold = 100_000_000_000

func (p *PlayedAt) UnmarshalJSON(data []byte) error {
	p.t, p.ok = time.Time{}, false

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		if n <= 0 {
			return nil
		}
		ms := int64(n)
		if ms < millisThreshold {
			ms *= 1000
		}
		p.t = time.UnixMilli(ms).UTC()
		p.ok = true
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.t, p.ok = ParseTime(s)
		return nil
	}

	return nil
}

func (p PlayedAt) MarshalJSON() ([]byte, error) {
	if !p.ok {
		return []byte("null"), nil
	}
	return json.Marshal(p.t.Format(time.RFC3339))
}

// Time returns the decoded timestamp; ok is false when the raw value was
// missing or undecodable.
func (p PlayedAt) Time() (time.Time, bool) {
	return p.t, p.ok
}

// NewPlayedAt builds a decoded PlayedAt, used by tests and fallbacks.
func NewPlayedAt(t time.Time) PlayedAt {
	return PlayedAt{t: t.UTC(), ok: true}
}

// PlayEvent is one raw playback history entry.
type PlayEvent struct {
	ID       string   `json:"id,omitempty"`
	Title    string   `json:"title,omitempty"`
	Album    string   `json:"album,omitempty"`
	AlbumID  string   `json:"albumId,omitempty"`
	Artist   string   `json:"artist,omitempty"`
	CoverArt string   `json:"coverArt,omitempty"`
	Played   PlayedAt `json:"played,omitempty"`
}

// Genre is one entry of the server's genre listing.
type Genre struct {
	Name       string `json:"value"`
	SongCount  int    `json:"songCount,omitempty"`
	AlbumCount int    `json:"albumCount,omitempty"`
}
