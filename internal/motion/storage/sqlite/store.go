// Package sqlite persists exercise sessions and their repetitions.
//
// The schema is owned by embedded golang-migrate migrations; Open runs any
// pending migrations before returning, so callers always see the latest
// schema.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migsqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when a requested session does not exist.
var ErrNotFound = errors.New("sqlite: session not found")

// SessionRecord is one persisted exercise attempt.
type SessionRecord struct {
	ID              string
	Profile         string
	StartedAt       time.Time
	EndedAt         time.Time
	FinalRepCount   int
	MaxROMDegrees   float64
	SmoothnessScore *float64
}

// RepRecord is one persisted repetition within a session.
type RepRecord struct {
	SessionID      string
	RepIndex       int
	ROMDegrees     float64
	CompletedAtSec float64
}

// Store wraps the sessions database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies pending
// migrations. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// modernc's driver serializes per connection; one connection avoids
	// SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrateUp applies all pending embedded migrations.
func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("sqlite: load embedded migrations: %w", err)
	}
	driver, err := migsqlite.WithInstance(s.db, &migsqlite.Config{})
	if err != nil {
		return fmt.Errorf("sqlite: create migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("sqlite: create migrate instance: %w", err)
	}
	// Closing m would close the shared DB connection; let it be collected.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlite: migration up failed: %w", err)
	}
	return nil
}

// SaveSession inserts or replaces a session record.
func (s *Store) SaveSession(ctx context.Context, rec SessionRecord) error {
	var ended any
	if !rec.EndedAt.IsZero() {
		ended = rec.EndedAt
	}
	var smooth any
	if rec.SmoothnessScore != nil {
		smooth = *rec.SmoothnessScore
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, profile, started_at, ended_at, final_rep_count, max_rom_degrees, smoothness_score)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ended_at = excluded.ended_at,
			final_rep_count = excluded.final_rep_count,
			max_rom_degrees = excluded.max_rom_degrees,
			smoothness_score = excluded.smoothness_score`,
		rec.ID, rec.Profile, rec.StartedAt, ended, rec.FinalRepCount, rec.MaxROMDegrees, smooth)
	if err != nil {
		return fmt.Errorf("sqlite: save session %s: %w", rec.ID, err)
	}
	return nil
}

// SaveRep inserts one repetition. Re-saving the same (session, index) pair
// overwrites it, so replays are idempotent.
func (s *Store) SaveRep(ctx context.Context, rec RepRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reps (session_id, rep_index, rom_degrees, completed_at_sec)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id, rep_index) DO UPDATE SET
			rom_degrees = excluded.rom_degrees,
			completed_at_sec = excluded.completed_at_sec`,
		rec.SessionID, rec.RepIndex, rec.ROMDegrees, rec.CompletedAtSec)
	if err != nil {
		return fmt.Errorf("sqlite: save rep %d of session %s: %w", rec.RepIndex, rec.SessionID, err)
	}
	return nil
}

// GetSession fetches one session by id.
func (s *Store) GetSession(ctx context.Context, id string) (SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, profile, started_at, ended_at, final_rep_count, max_rom_degrees, smoothness_score
		FROM sessions WHERE id = ?`, id)
	rec, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, ErrNotFound
	}
	return rec, err
}

// ListSessions returns the most recent sessions, newest first.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile, started_at, ended_at, final_rep_count, max_rom_degrees, smoothness_score
		FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RepsForSession returns a session's repetitions in index order.
func (s *Store) RepsForSession(ctx context.Context, sessionID string) ([]RepRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, rep_index, rom_degrees, completed_at_sec
		FROM reps WHERE session_id = ? ORDER BY rep_index`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reps for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var out []RepRecord
	for rows.Next() {
		var rec RepRecord
		if err := rows.Scan(&rec.SessionID, &rec.RepIndex, &rec.ROMDegrees, &rec.CompletedAtSec); err != nil {
			return nil, fmt.Errorf("sqlite: scan rep: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (SessionRecord, error) {
	var (
		rec    SessionRecord
		ended  sql.NullTime
		smooth sql.NullFloat64
	)
	err := row.Scan(&rec.ID, &rec.Profile, &rec.StartedAt, &ended, &rec.FinalRepCount, &rec.MaxROMDegrees, &smooth)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SessionRecord{}, err
		}
		return SessionRecord{}, fmt.Errorf("sqlite: scan session: %w", err)
	}
	if ended.Valid {
		rec.EndedAt = ended.Time
	}
	if smooth.Valid {
		v := smooth.Float64
		rec.SmoothnessScore = &v
	}
	return rec, nil
}
