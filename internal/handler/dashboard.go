package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/babycare/internal/auth"
	"github.com/dukerupert/babycare/internal/care"
)

const defaultDays = 7

// DashboardHandler serves the read-only family dashboard. Every route runs
// behind middleware.RequireDashboard, which decides the family.
type DashboardHandler struct {
	care   *care.Service
	logger *slog.Logger
}

func NewDashboardHandler(svc *care.Service, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{care: svc, logger: logger}
}

// Family returns the family snapshot: settings, baby profile with age,
// members.
func (h *DashboardHandler) Family(w http.ResponseWriter, r *http.Request) {
	snap, err := h.care.Snapshot(auth.FamilyID(r.Context()))
	if err != nil {
		h.serverError(w, r, "failed to load family", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type activityEntry struct {
	ID         int64  `json:"id"`
	Kind       string `json:"kind"`
	Timestamp  string `json:"timestamp"`
	AuthorName string `json:"author_name"`
	AuthorRole string `json:"author_role"`
}

// Activity returns the newest events of the last ?days= days.
func (h *DashboardHandler) Activity(w http.ResponseWriter, r *http.Request) {
	days, ok := parseDays(w, r)
	if !ok {
		return
	}
	events, err := h.care.RecentActivity(auth.FamilyID(r.Context()), days)
	if err != nil {
		h.serverError(w, r, "failed to load activity", err)
		return
	}

	out := make([]activityEntry, 0, len(events))
	for _, e := range events {
		out = append(out, activityEntry{
			ID:         e.ID,
			Kind:       string(e.Kind),
			Timestamp:  e.Timestamp,
			AuthorName: e.AuthorName,
			AuthorRole: string(e.AuthorRole),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days, "events": out})
}

// Stats returns per-day feeding and diaper counts for the last ?days= days.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	days, ok := parseDays(w, r)
	if !ok {
		return
	}
	stats, err := h.care.DailyStats(auth.FamilyID(r.Context()), days)
	if err != nil {
		h.serverError(w, r, "failed to load stats", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": len(stats), "stats": stats})
}

func parseDays(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return defaultDays, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "days must be a positive integer"})
		return 0, false
	}
	return days, true
}

func (h *DashboardHandler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, care.ErrNoFamily) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "family not found"})
		return
	}
	h.logger.Error(msg, "family_id", auth.FamilyID(r.Context()), "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
