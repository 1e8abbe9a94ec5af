package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/babycare/internal/model"
)

const eventCols = `id, family_id, author_id, timestamp, author_role, author_name, kind`

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

func scanEvent(scanner interface{ Scan(...any) error }) (*model.Event, error) {
	var e model.Event
	if err := scanner.Scan(&e.ID, &e.FamilyID, &e.AuthorID, &e.Timestamp, &e.AuthorRole, &e.AuthorName, &e.Kind); err != nil {
		return nil, err
	}
	return &e, nil
}

// Append writes an event. The row is never updated afterwards.
func (s *EventStore) Append(e model.Event) (*model.Event, error) {
	if !e.Kind.Valid() {
		return nil, fmt.Errorf("append event: unknown kind %q", e.Kind)
	}
	result, err := s.db.Exec(
		`INSERT INTO events (family_id, author_id, timestamp, author_role, author_name, kind) VALUES (?, ?, ?, ?, ?, ?)`,
		e.FamilyID, e.AuthorID, e.Timestamp, e.AuthorRole, e.AuthorName, e.Kind,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	e.ID = id
	return &e, nil
}

// LastTimestamp returns the raw timestamp text of the newest event of kind
// for the family, or "" when there is none.
func (s *EventStore) LastTimestamp(familyID int64, kind model.EventKind) (string, error) {
	var ts string
	err := s.db.QueryRow(
		`SELECT timestamp FROM events WHERE family_id = ? AND kind = ? ORDER BY timestamp DESC LIMIT 1`,
		familyID, kind,
	).Scan(&ts)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("last %s: %w", kind, err)
	}
	return ts, nil
}

// ListRecent returns up to limit newest events of kind, newest first.
func (s *EventStore) ListRecent(familyID int64, kind model.EventKind, limit int) ([]model.Event, error) {
	rows, err := s.db.Query(
		`SELECT `+eventCols+` FROM events WHERE family_id = ? AND kind = ? ORDER BY timestamp DESC LIMIT ?`,
		familyID, kind, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent %s: %w", kind, err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListSince returns events of every kind with timestamp >= since, newest
// first. since is compared as text in the stored layout.
func (s *EventStore) ListSince(familyID int64, since string) ([]model.Event, error) {
	rows, err := s.db.Query(
		`SELECT `+eventCols+` FROM events WHERE family_id = ? AND timestamp >= ? ORDER BY timestamp DESC`,
		familyID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("list events since: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// CountBetween counts events of kind with from <= timestamp < to.
func (s *EventStore) CountBetween(familyID int64, kind model.EventKind, from, to string) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM events WHERE family_id = ? AND kind = ? AND timestamp >= ? AND timestamp < ?`,
		familyID, kind, from, to,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return n, nil
}

func scanEvents(rows *sql.Rows) ([]model.Event, error) {
	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}
