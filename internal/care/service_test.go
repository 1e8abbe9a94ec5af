package care

import (
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/babycare/internal/clock"
	"github.com/dukerupert/babycare/internal/database"
	"github.com/dukerupert/babycare/internal/model"
	"github.com/dukerupert/babycare/internal/store"
)

var ict = time.FixedZone("ICT", 7*60*60)

// testClock is advanced by tests through its now field.
type testClock struct {
	now time.Time
}

func setupService(t *testing.T, tc *testClock) *Service {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clk := clock.Func(ict, func() time.Time { return tc.now })
	return NewService(
		store.NewFamilyStore(db),
		store.NewSettingsStore(db),
		store.NewBabyStore(db),
		store.NewEventStore(db),
		clk,
		nil,
	)
}

func TestCreateFamilyMakesAdministrator(t *testing.T) {
	svc := setupService(t, &testClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, ict)})

	f, err := svc.CreateFamily(100, "Smith", "Alice")
	if err != nil {
		t.Fatalf("create family: %v", err)
	}

	id, err := svc.FamilyOf(100)
	if err != nil || id != f.ID {
		t.Fatalf("FamilyOf = %d, %v; want %d", id, err, f.ID)
	}
	m, err := svc.Member(f.ID, 100)
	if err != nil || m == nil {
		t.Fatalf("member = %v, %v", m, err)
	}
	if m.Role != model.RoleAdministrator || m.Name != "Alice" {
		t.Errorf("member = %+v", m)
	}
}

func TestFamilyOfNonMember(t *testing.T) {
	svc := setupService(t, &testClock{now: time.Now()})
	if _, err := svc.FamilyOf(5); !errors.Is(err, ErrNoFamily) {
		t.Errorf("err = %v, want ErrNoFamily", err)
	}
}

func TestJoinFamily(t *testing.T) {
	svc := setupService(t, &testClock{now: time.Now()})
	f, _ := svc.CreateFamily(1, "Smith", "Alice")

	if _, err := svc.JoinFamily(f.ID, 2, ""); err != nil {
		t.Fatalf("join: %v", err)
	}
	m, _ := svc.Member(f.ID, 2)
	if m == nil || m.Role != model.RoleParent || m.Name != UnknownName {
		t.Errorf("member = %+v", m)
	}

	if _, err := svc.JoinFamily(999, 3, "Bob"); !errors.Is(err, ErrNoFamily) {
		t.Errorf("join missing family err = %v", err)
	}
}

func TestRecordEventStampsReferenceZone(t *testing.T) {
	tc := &testClock{now: time.Date(2026, 3, 10, 5, 30, 0, 0, time.UTC)}
	svc := setupService(t, tc)
	f, _ := svc.CreateFamily(1, "Smith", "Alice")

	msg, err := svc.RecordEvent(RecordRequest{RecipientID: 1, Kind: model.EventFeeding})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if msg != "✅ Feeding recorded!" {
		t.Errorf("confirmation = %q", msg)
	}

	events, err := svc.LastEvents(f.ID, model.EventFeeding, 5)
	if err != nil || len(events) != 1 {
		t.Fatalf("events = %v, %v", events, err)
	}
	e := events[0]
	if e.Timestamp != "2026-03-10T12:30:00.000000+07:00" {
		t.Errorf("timestamp = %q, want reference-zone text", e.Timestamp)
	}
	if e.AuthorRole != model.RoleAdministrator || e.AuthorName != "Alice" {
		t.Errorf("author = %s/%s", e.AuthorRole, e.AuthorName)
	}
}

func TestRecordEventDisplayNameWins(t *testing.T) {
	svc := setupService(t, &testClock{now: time.Now()})
	f, _ := svc.CreateFamily(1, "Smith", "Alice")

	msg, err := svc.RecordEvent(RecordRequest{FamilyID: f.ID, RecipientID: 1, Kind: model.EventDiaper, DisplayName: "Mum"})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if msg != "✅ Diaper change recorded!" {
		t.Errorf("confirmation = %q", msg)
	}
	events, _ := svc.LastEvents(f.ID, model.EventDiaper, 1)
	if len(events) != 1 || events[0].AuthorName != "Mum" {
		t.Errorf("events = %+v", events)
	}
}

func TestRecordEventNoFamily(t *testing.T) {
	svc := setupService(t, &testClock{now: time.Now()})
	if _, err := svc.RecordEvent(RecordRequest{RecipientID: 1, Kind: model.EventFeeding}); !errors.Is(err, ErrNoFamily) {
		t.Errorf("err = %v, want ErrNoFamily", err)
	}
}

func TestSnapshotDefaults(t *testing.T) {
	svc := setupService(t, &testClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, ict)})
	f, _ := svc.CreateFamily(1, "Smith", "Alice")

	snap, err := svc.Snapshot(f.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.HasSettings {
		t.Error("expected no stored settings")
	}
	if snap.Settings.FeedInterval != 3 || snap.Settings.BathTime.Hour != 19 {
		t.Errorf("settings = %+v, want defaults", snap.Settings)
	}
	if snap.Baby.Name != model.DefaultBabyName || snap.Baby.Gender != model.GenderUnspecified {
		t.Errorf("baby = %+v, want seeded defaults", snap.Baby)
	}
	if len(snap.Members) != 1 {
		t.Errorf("members = %+v", snap.Members)
	}

	if _, err := svc.Snapshot(999); !errors.Is(err, ErrNoFamily) {
		t.Errorf("missing family err = %v", err)
	}
}

func TestSnapshotAgeMonths(t *testing.T) {
	svc := setupService(t, &testClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, ict)})
	f, _ := svc.CreateFamily(1, "Smith", "Alice")

	birth := "15.09.2025"
	if _, err := svc.UpdateBaby(f.ID, model.BabyPatch{BirthDate: &birth}); err != nil {
		t.Fatalf("update baby: %v", err)
	}
	snap, _ := svc.Snapshot(f.ID)
	if snap.AgeMonths != 5 {
		t.Errorf("age = %d months, want 5", snap.AgeMonths)
	}
}

func TestToggleIsReadThenInvert(t *testing.T) {
	svc := setupService(t, &testClock{now: time.Now()})
	f, _ := svc.CreateFamily(1, "Smith", "Alice")

	for i, want := range []bool{false, true, false} {
		on, err := svc.ToggleTips(f.ID)
		if err != nil {
			t.Fatalf("toggle tips: %v", err)
		}
		if on != want {
			t.Errorf("toggle %d: tips = %v, want %v", i, on, want)
		}
	}
	on, _ := svc.ToggleBath(f.ID)
	if on {
		t.Error("first bath toggle should disable")
	}
}

func TestRecentActivityLimitAndWindow(t *testing.T) {
	tc := &testClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, ict)}
	svc := setupService(t, tc)
	f, _ := svc.CreateFamily(1, "Smith", "Alice")

	// One old event outside a 7 day window.
	svc.RecordEvent(RecordRequest{FamilyID: f.ID, RecipientID: 1, Kind: model.EventFeeding})

	tc.now = time.Date(2026, 3, 10, 0, 0, 0, 0, ict)
	for i := 0; i < 25; i++ {
		tc.now = tc.now.Add(10 * time.Minute)
		kind := model.EventFeeding
		if i%2 == 1 {
			kind = model.EventDiaper
		}
		if _, err := svc.RecordEvent(RecordRequest{FamilyID: f.ID, RecipientID: 1, Kind: kind}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	events, err := svc.RecentActivity(f.ID, 7)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(events) != RecentActivityLimit {
		t.Fatalf("events = %d, want %d", len(events), RecentActivityLimit)
	}
	if events[0].Timestamp < events[len(events)-1].Timestamp {
		t.Error("activity not newest first")
	}
}

func TestDailyStats(t *testing.T) {
	tc := &testClock{now: time.Date(2026, 3, 8, 23, 50, 0, 0, ict)}
	svc := setupService(t, tc)
	f, _ := svc.CreateFamily(1, "Smith", "Alice")

	svc.RecordEvent(RecordRequest{FamilyID: f.ID, RecipientID: 1, Kind: model.EventFeeding})
	tc.now = time.Date(2026, 3, 10, 0, 5, 0, 0, ict)
	svc.RecordEvent(RecordRequest{FamilyID: f.ID, RecipientID: 1, Kind: model.EventFeeding})
	svc.RecordEvent(RecordRequest{FamilyID: f.ID, RecipientID: 1, Kind: model.EventDiaper})

	stats, err := svc.DailyStats(f.ID, 3)
	if err != nil {
		t.Fatalf("daily stats: %v", err)
	}
	want := []DayStats{
		{Date: "2026-03-08", Feedings: 1},
		{Date: "2026-03-09"},
		{Date: "2026-03-10", Feedings: 1, Diapers: 1},
	}
	if len(stats) != len(want) {
		t.Fatalf("stats = %+v", stats)
	}
	for i := range want {
		if stats[i] != want[i] {
			t.Errorf("day %d = %+v, want %+v", i, stats[i], want[i])
		}
	}
}

func TestClampDays(t *testing.T) {
	tests := []struct{ in, want int }{{-3, 1}, {0, 1}, {7, 7}, {365, MaxStatsDays}}
	for _, tt := range tests {
		if got := clampDays(tt.in); got != tt.want {
			t.Errorf("clampDays(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
