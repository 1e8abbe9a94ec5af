package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/babycare/internal/auth"
	"github.com/dukerupert/babycare/internal/care"
	"github.com/dukerupert/babycare/internal/clock"
	"github.com/dukerupert/babycare/internal/database"
	"github.com/dukerupert/babycare/internal/model"
	"github.com/dukerupert/babycare/internal/store"
)

var ict = time.FixedZone("ICT", 7*60*60)

func setupDashboard(t *testing.T) (*DashboardHandler, *care.Service, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := care.NewService(store.NewFamilyStore(db), store.NewSettingsStore(db), store.NewBabyStore(db),
		store.NewEventStore(db), clock.Fixed(time.Date(2026, 3, 10, 12, 0, 0, 0, ict)), nil)
	f, err := svc.CreateFamily(1, "Smith", "Alice")
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDashboardHandler(svc, logger), svc, f.ID
}

func authorised(method, target string, familyID int64) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(auth.WithDashboard(context.Background(), auth.Dashboard{FamilyID: familyID}))
}

func TestFamilySnapshot(t *testing.T) {
	h, _, fid := setupDashboard(t)

	rec := httptest.NewRecorder()
	h.Family(rec, authorised("GET", "/api/family", fid))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var got care.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Family.Name != "Smith" || len(got.Members) != 1 {
		t.Errorf("snapshot = %+v", got)
	}
	if got.Baby.Name != model.DefaultBabyName {
		t.Errorf("baby = %+v", got.Baby)
	}
}

func TestFamilyMissing(t *testing.T) {
	h, _, _ := setupDashboard(t)

	rec := httptest.NewRecorder()
	h.Family(rec, authorised("GET", "/api/family", 999))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestActivity(t *testing.T) {
	h, svc, fid := setupDashboard(t)
	svc.RecordEvent(care.RecordRequest{FamilyID: fid, RecipientID: 1, Kind: model.EventFeeding})
	svc.RecordEvent(care.RecordRequest{FamilyID: fid, RecipientID: 1, Kind: model.EventDiaper})

	rec := httptest.NewRecorder()
	h.Activity(rec, authorised("GET", "/api/activity?days=3", fid))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var got struct {
		Days   int             `json:"days"`
		Events []activityEntry `json:"events"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Days != 3 || len(got.Events) != 2 {
		t.Fatalf("activity = %+v", got)
	}
	if got.Events[0].AuthorName != "Alice" {
		t.Errorf("author = %q", got.Events[0].AuthorName)
	}
}

func TestStatsDefaultsToAWeek(t *testing.T) {
	h, svc, fid := setupDashboard(t)
	svc.RecordEvent(care.RecordRequest{FamilyID: fid, RecipientID: 1, Kind: model.EventFeeding})

	rec := httptest.NewRecorder()
	h.Stats(rec, authorised("GET", "/api/stats", fid))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got struct {
		Days  int             `json:"days"`
		Stats []care.DayStats `json:"stats"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Days != defaultDays || len(got.Stats) != defaultDays {
		t.Fatalf("stats = %+v", got)
	}
	if today := got.Stats[len(got.Stats)-1]; today.Date != "2026-03-10" || today.Feedings != 1 {
		t.Errorf("today = %+v", today)
	}
}

func TestDaysValidation(t *testing.T) {
	h, _, fid := setupDashboard(t)

	for _, q := range []string{"abc", "0", "-2"} {
		rec := httptest.NewRecorder()
		h.Stats(rec, authorised("GET", "/api/stats?days="+q, fid))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("days=%s: status = %d, want 400", q, rec.Code)
		}
	}
}
