// package store persists the album snapshot and the scan fingerprint in a
// SQLite database keyed by album identifier.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/navisync/navisync/internal/models"
	"github.com/navisync/navisync/internal/shared"
)

const schema = `
CREATE TABLE IF NOT EXISTS albums (
	id   TEXT PRIMARY KEY,
	data TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS scan_fingerprint (
	id        INTEGER PRIMARY KEY CHECK (id = 1),
	count     INTEGER NOT NULL,
	last_scan TEXT NOT NULL
);
`

// Store is the durable cache for enriched album records. A snapshot is always
// replaced wholesale inside one transaction, so readers never observe a
// partial write.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// Open opens (or creates) the SQLite database at path and ensures the schema
// exists.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCacheUnavailable, err)
	}
	// A single connection keeps SQLite writes serialized.
	shared.ConfigureDatabase(db, 1, 1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: schema: %v", shared.ErrCacheUnavailable, err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadSnapshot returns the persisted snapshot keyed by album ID. Rows that no
// longer decode are skipped with a warning; the next sync pass re-fetches them
// since they look unenriched.
func (s *Store) LoadSnapshot() (map[string]models.Album, error) {
	rows, err := s.db.Query(`SELECT id, data FROM albums`)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	defer rows.Close()

	albums := make(map[string]models.Album)
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}

		var album models.Album
		if err := json.Unmarshal([]byte(data), &album); err != nil {
			s.logger.Warn("skipping undecodable snapshot record", "id", id, "err", err)
			continue
		}
		if album.ID == "" {
			album.ID = id
		}
		albums[album.ID] = album
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	return albums, nil
}

// SaveSnapshot replaces the persisted snapshot with the given records in a
// single transaction.
func (s *Store) SaveSnapshot(albums map[string]models.Album) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM albums`); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO albums (id, data) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for id, album := range albums {
		data, err := json.Marshal(album)
		if err != nil {
			return fmt.Errorf("failed to encode album %s: %w", id, err)
		}
		if _, err := stmt.Exec(id, string(data)); err != nil {
			return fmt.Errorf("failed to insert album %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// LoadFingerprint returns the persisted scan fingerprint, or nil when none has
// been recorded yet.
func (s *Store) LoadFingerprint() (*models.ScanStatus, error) {
	var st models.ScanStatus
	err := s.db.QueryRow(`SELECT count, last_scan FROM scan_fingerprint WHERE id = 1`).
		Scan(&st.Count, &st.LastScan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fingerprint: %w", err)
	}
	return &st, nil
}

// SaveFingerprint upserts the scan fingerprint.
func (s *Store) SaveFingerprint(st *models.ScanStatus) error {
	_, err := s.db.Exec(`
		INSERT INTO scan_fingerprint (id, count, last_scan) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET count = excluded.count, last_scan = excluded.last_scan`,
		st.Count, st.LastScan,
	)
	if err != nil {
		return fmt.Errorf("failed to save fingerprint: %w", err)
	}
	return nil
}
