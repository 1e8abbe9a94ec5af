package store

import (
	"testing"
	"time"

	"github.com/dukerupert/babycare/internal/model"
)

var bangkok = time.FixedZone("ICT", 7*60*60)

func setupEventTestDB(t *testing.T) (*EventStore, int64) {
	t.Helper()
	db := setupTestDB(t)
	f, err := NewFamilyStore(db).Create("Smith")
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	return NewEventStore(db), f.ID
}

func appendAt(t *testing.T, es *EventStore, familyID int64, kind model.EventKind, at time.Time) {
	t.Helper()
	_, err := es.Append(model.Event{
		FamilyID:   familyID,
		AuthorID:   1,
		Timestamp:  model.FormatTimestamp(at, bangkok),
		AuthorRole: "Parent",
		AuthorName: "Alice",
		Kind:       kind,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
}

func TestEventLastTimestampNone(t *testing.T) {
	es, fid := setupEventTestDB(t)

	ts, err := es.LastTimestamp(fid, model.EventFeeding)
	if err != nil {
		t.Fatalf("last timestamp: %v", err)
	}
	if ts != "" {
		t.Errorf("last timestamp = %q, want empty", ts)
	}
}

func TestEventLastTimestampPerKind(t *testing.T) {
	es, fid := setupEventTestDB(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, bangkok)

	// Inserted out of order; the newest must win regardless of id.
	appendAt(t, es, fid, model.EventFeeding, base.Add(2*time.Hour))
	appendAt(t, es, fid, model.EventFeeding, base)
	appendAt(t, es, fid, model.EventDiaper, base.Add(5*time.Hour))

	ts, err := es.LastTimestamp(fid, model.EventFeeding)
	if err != nil {
		t.Fatalf("last feeding: %v", err)
	}
	if want := model.FormatTimestamp(base.Add(2*time.Hour), bangkok); ts != want {
		t.Errorf("last feeding = %q, want %q", ts, want)
	}

	ts, err = es.LastTimestamp(fid, model.EventDiaper)
	if err != nil {
		t.Fatalf("last diaper: %v", err)
	}
	if want := model.FormatTimestamp(base.Add(5*time.Hour), bangkok); ts != want {
		t.Errorf("last diaper = %q, want %q", ts, want)
	}
}

func TestEventAppendRejectsUnknownKind(t *testing.T) {
	es, fid := setupEventTestDB(t)

	_, err := es.Append(model.Event{FamilyID: fid, AuthorID: 1, Timestamp: "x", Kind: "bath"})
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestEventListRecentAndSince(t *testing.T) {
	es, fid := setupEventTestDB(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, bangkok)

	for i := 0; i < 7; i++ {
		appendAt(t, es, fid, model.EventFeeding, base.Add(time.Duration(i)*3*time.Hour))
	}
	appendAt(t, es, fid, model.EventDiaper, base.Add(4*time.Hour))

	recent, err := es.ListRecent(fid, model.EventFeeding, 5)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 5 {
		t.Fatalf("recent = %d, want 5", len(recent))
	}
	if recent[0].Timestamp < recent[4].Timestamp {
		t.Error("recent events should be newest first")
	}

	since, err := es.ListSince(fid, model.FormatTimestamp(base.Add(12*time.Hour), bangkok))
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	// Feedings at 12h, 15h, 18h.
	if len(since) != 3 {
		t.Errorf("since = %d events, want 3", len(since))
	}

	n, err := es.CountBetween(fid, model.EventFeeding,
		model.FormatTimestamp(base, bangkok), model.FormatTimestamp(base.Add(9*time.Hour), bangkok))
	if err != nil {
		t.Fatalf("count between: %v", err)
	}
	// 0h, 3h, 6h.
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}
