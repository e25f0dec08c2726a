// Package configstore persists annotation documents: the active config as an
// atomically written JSON file, and a SQLite-backed history of every save so
// an operator can inspect or roll back to an earlier revision.
package configstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/virtualloop/internal/annotation"
	"github.com/banshee-data/virtualloop/internal/timeutil"
)

// DefaultListLimit caps List when the caller passes no limit.
const DefaultListLimit = 50

// timeLayout is fixed-width so stored timestamps sort lexicographically the
// same way they sort chronologically.
const timeLayout = "2006-01-02 15:04:05.000000000"

// Snapshot is one saved revision of the annotation document. Payload is the
// JSON-encoded document and is only populated by Get and Restore; List
// returns metadata alone.
type Snapshot struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"createdAt"`
	Payload   []byte    `json:"-"`
}

// Store keeps snapshot history in a SQLite database. The schema is managed
// by the embedded migrations, applied on Open.
type Store struct {
	*sql.DB
	path  string
	clock timeutil.Clock
}

// Open opens (or creates) the snapshot database at path and applies any
// pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db %s: %w", path, err)
	}

	s := &Store{DB: db, path: path, clock: timeutil.RealClock{}}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Append stores doc as a new snapshot and returns its metadata.
func (s *Store) Append(doc annotation.Document, label string) (Snapshot, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encode snapshot: %w", err)
	}

	snap := Snapshot{
		ID:        uuid.New().String(),
		Label:     label,
		CreatedAt: s.clock.Now().UTC(),
		Payload:   payload,
	}
	_, err = s.Exec(
		`INSERT INTO snapshots (id, label, created_at, payload) VALUES (?, ?, ?, ?)`,
		snap.ID, snap.Label, snap.CreatedAt.Format(timeLayout), string(payload),
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}
	return snap, nil
}

// List returns snapshot metadata, newest first. limit <= 0 applies
// DefaultListLimit.
func (s *Store) List(limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.Query(
		`SELECT id, label, created_at FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		var createdAt string
		if err := rows.Scan(&snap.ID, &snap.Label, &createdAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.CreatedAt, err = time.ParseInLocation(timeLayout, createdAt, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse snapshot time %q: %w", createdAt, err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snaps, nil
}

// Get returns one snapshot including its payload. A missing id reports
// ErrNotFound.
func (s *Store) Get(id string) (Snapshot, error) {
	row := s.QueryRow(`SELECT id, label, created_at, payload FROM snapshots WHERE id = ?`, id)

	var snap Snapshot
	var createdAt, payload string
	err := row.Scan(&snap.ID, &snap.Label, &createdAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get snapshot %s: %w", id, err)
	}
	snap.CreatedAt, err = time.ParseInLocation(timeLayout, createdAt, time.UTC)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot time %q: %w", createdAt, err)
	}
	snap.Payload = []byte(payload)
	return snap, nil
}

// Restore decodes the payload of the given snapshot back into a document.
func (s *Store) Restore(id string) (annotation.Document, error) {
	snap, err := s.Get(id)
	if err != nil {
		return annotation.Document{}, err
	}

	var doc annotation.Document
	if err := json.Unmarshal(snap.Payload, &doc); err != nil {
		return annotation.Document{}, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return doc, nil
}

// RestoreLatest decodes the newest snapshot. An empty store reports
// ErrNotFound.
func (s *Store) RestoreLatest() (annotation.Document, error) {
	row := s.QueryRow(`SELECT payload FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT 1`)

	var payload string
	err := row.Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return annotation.Document{}, fmt.Errorf("latest snapshot: %w", ErrNotFound)
	}
	if err != nil {
		return annotation.Document{}, fmt.Errorf("get latest snapshot: %w", err)
	}

	var doc annotation.Document
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return annotation.Document{}, fmt.Errorf("decode latest snapshot: %w", err)
	}
	return doc, nil
}

// Prune deletes all but the newest keep snapshots and returns how many rows
// were removed.
func (s *Store) Prune(keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("prune: keep must not be negative, got %d", keep)
	}

	res, err := s.Exec(
		`DELETE FROM snapshots WHERE id NOT IN (SELECT id FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT ?)`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Count returns the number of stored snapshots.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return n, nil
}
