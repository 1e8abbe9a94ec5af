// Package care is the inbound API of the system: onboarding, event logging,
// profile and settings changes, and the read models the bot and the
// dashboard display. Every mutation is pushed to connected dashboards.
package care

import (
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/babycare/internal/clock"
	"github.com/dukerupert/babycare/internal/model"
	"github.com/dukerupert/babycare/internal/store"
	"github.com/dukerupert/babycare/internal/websocket"
)

// ErrNoFamily is returned when a recipient or family id does not resolve to
// a family.
var ErrNoFamily = errors.New("not in a family")

const (
	RecentActivityLimit = 20
	MaxStatsDays        = 90
	UnknownName         = "Unknown"
)

type Service struct {
	families *store.FamilyStore
	settings *store.SettingsStore
	babies   *store.BabyStore
	events   *store.EventStore
	clock    *clock.Clock
	hub      *websocket.Hub
}

// NewService wires the care service. hub may be nil when no dashboard runs.
func NewService(families *store.FamilyStore, settings *store.SettingsStore, babies *store.BabyStore, events *store.EventStore, clk *clock.Clock, hub *websocket.Hub) *Service {
	return &Service{
		families: families,
		settings: settings,
		babies:   babies,
		events:   events,
		clock:    clk,
		hub:      hub,
	}
}

func (s *Service) broadcast(msg websocket.Message) {
	if s.hub != nil {
		s.hub.Broadcast(msg)
	}
}

// Location is the reference zone timestamps are recorded in.
func (s *Service) Location() *time.Location {
	return s.clock.Location()
}

// FamilyOf returns the family the recipient belongs to, or ErrNoFamily.
func (s *Service) FamilyOf(recipientID int64) (int64, error) {
	id, err := s.families.FamilyIDForUser(recipientID)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, ErrNoFamily
	}
	return id, nil
}

// CreateFamily creates a family and makes the recipient its administrator.
func (s *Service) CreateFamily(recipientID int64, familyName, displayName string) (*model.Family, error) {
	return s.families.CreateWithAdmin(familyName, model.Member{
		UserID: recipientID,
		Role:   model.RoleAdministrator,
		Name:   nameOrUnknown(displayName),
	})
}

// JoinFamily adds the recipient to an existing family as a parent.
func (s *Service) JoinFamily(familyID, recipientID int64, displayName string) (*model.Family, error) {
	f, err := s.families.GetByID(familyID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrNoFamily
	}
	m, err := s.families.UpsertMember(familyID, recipientID, model.RoleParent, nameOrUnknown(displayName))
	if err != nil {
		return nil, err
	}
	s.broadcast(websocket.NewMessage(familyID, websocket.EntityMember, "joined", m.UserID, map[string]any{"name": m.Name}))
	return f, nil
}

// RecordRequest logs one care event on behalf of a recipient.
type RecordRequest struct {
	FamilyID    int64
	RecipientID int64
	Kind        model.EventKind
	DisplayName string
}

// RecordEvent appends the event stamped with the current reference-zone time
// and returns the confirmation text for the recipient. A zero FamilyID is
// resolved from the recipient.
func (s *Service) RecordEvent(req RecordRequest) (string, error) {
	if !req.Kind.Valid() {
		return "", fmt.Errorf("record event: unknown kind %q", req.Kind)
	}
	familyID := req.FamilyID
	if familyID == 0 {
		id, err := s.FamilyOf(req.RecipientID)
		if err != nil {
			return "", err
		}
		familyID = id
	}

	role, name := model.RoleParent, req.DisplayName
	m, err := s.families.GetMember(familyID, req.RecipientID)
	if err != nil {
		return "", err
	}
	if m != nil {
		role = m.Role
		if name == "" {
			name = m.Name
		}
	}

	e, err := s.events.Append(model.Event{
		FamilyID:   familyID,
		AuthorID:   req.RecipientID,
		Timestamp:  model.FormatTimestamp(s.clock.Now(), s.clock.Location()),
		AuthorRole: role,
		AuthorName: nameOrUnknown(name),
		Kind:       req.Kind,
	})
	if err != nil {
		return "", err
	}

	s.broadcast(websocket.NewMessage(familyID, websocket.EntityEvent, "recorded", e.ID, map[string]any{
		"kind":        string(e.Kind),
		"timestamp":   e.Timestamp,
		"author_name": e.AuthorName,
	}))

	if e.Kind == model.EventDiaper {
		return "✅ Diaper change recorded!", nil
	}
	return "✅ Feeding recorded!", nil
}

// Snapshot is everything known about one family. Settings holds the defaults
// when the family never saved any; HasSettings tells the two apart.
type Snapshot struct {
	Family      model.Family   `json:"family"`
	Settings    model.Settings `json:"settings"`
	HasSettings bool           `json:"has_settings"`
	Baby        model.BabyInfo `json:"baby"`
	AgeMonths   int            `json:"age_months"`
	Members     []model.Member `json:"members"`
}

func (s *Service) Snapshot(familyID int64) (*Snapshot, error) {
	f, err := s.families.GetByID(familyID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrNoFamily
	}

	snap := &Snapshot{Family: *f, Settings: model.DefaultSettings(familyID)}
	st, err := s.settings.Get(familyID)
	if err != nil {
		return nil, err
	}
	if st != nil {
		snap.Settings = *st
		snap.HasSettings = true
	}

	if snap.Baby, err = s.babies.GetOrDefault(familyID); err != nil {
		return nil, err
	}
	snap.AgeMonths = snap.Baby.AgeMonths(s.clock.Now())

	if snap.Members, err = s.families.ListMembers(familyID); err != nil {
		return nil, err
	}
	if snap.Members == nil {
		snap.Members = []model.Member{}
	}
	return snap, nil
}

// Member returns the recipient's membership in a family, or nil.
func (s *Service) Member(familyID, recipientID int64) (*model.Member, error) {
	return s.families.GetMember(familyID, recipientID)
}

// Settings returns the family's settings or the defaults.
func (s *Service) Settings(familyID int64) (model.Settings, error) {
	st, err := s.settings.Get(familyID)
	if err != nil {
		return model.Settings{}, err
	}
	if st == nil {
		return model.DefaultSettings(familyID), nil
	}
	return *st, nil
}

func (s *Service) UpdateSettings(familyID int64, p model.SettingsPatch) (*model.Settings, error) {
	st, err := s.settings.Update(familyID, p)
	if err != nil {
		return nil, err
	}
	s.broadcast(websocket.NewMessage(familyID, websocket.EntitySettings, "updated", 0, nil))
	return st, nil
}

// ToggleTips inverts the stored tips flag and returns the new value.
func (s *Service) ToggleTips(familyID int64) (bool, error) {
	on, err := s.settings.ToggleTips(familyID)
	if err != nil {
		return false, err
	}
	s.broadcast(websocket.NewMessage(familyID, websocket.EntitySettings, "updated", 0, map[string]any{"tips_enabled": on}))
	return on, nil
}

// ToggleBath inverts the stored bath reminder flag and returns the new value.
func (s *Service) ToggleBath(familyID int64) (bool, error) {
	on, err := s.settings.ToggleBath(familyID)
	if err != nil {
		return false, err
	}
	s.broadcast(websocket.NewMessage(familyID, websocket.EntitySettings, "updated", 0, map[string]any{"bath_enabled": on}))
	return on, nil
}

func (s *Service) Baby(familyID int64) (model.BabyInfo, error) {
	return s.babies.GetOrDefault(familyID)
}

func (s *Service) UpdateBaby(familyID int64, p model.BabyPatch) (*model.BabyInfo, error) {
	b, err := s.babies.Update(familyID, p)
	if err != nil {
		return nil, err
	}
	s.broadcast(websocket.NewMessage(familyID, websocket.EntityBaby, "updated", 0, nil))
	return b, nil
}

// LastEvents returns up to limit newest events of kind, newest first.
func (s *Service) LastEvents(familyID int64, kind model.EventKind, limit int) ([]model.Event, error) {
	return s.events.ListRecent(familyID, kind, limit)
}

// RecentActivity returns at most RecentActivityLimit events of both kinds
// from the last days days, newest first.
func (s *Service) RecentActivity(familyID int64, days int) ([]model.Event, error) {
	days = clampDays(days)
	since := s.clock.StartOfDay(s.clock.Now()).AddDate(0, 0, -(days - 1))
	events, err := s.events.ListSince(familyID, model.FormatTimestamp(since, s.clock.Location()))
	if err != nil {
		return nil, err
	}
	if len(events) > RecentActivityLimit {
		events = events[:RecentActivityLimit]
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}

// DayStats counts one calendar day of events in the reference zone.
type DayStats struct {
	Date     string `json:"date"`
	Feedings int    `json:"feedings"`
	Diapers  int    `json:"diapers"`
}

// DailyStats returns per-day counts for the last days days, oldest first,
// ending today.
func (s *Service) DailyStats(familyID int64, days int) ([]DayStats, error) {
	days = clampDays(days)
	loc := s.clock.Location()
	today := s.clock.StartOfDay(s.clock.Now())

	stats := make([]DayStats, 0, days)
	for i := days - 1; i >= 0; i-- {
		from := today.AddDate(0, 0, -i)
		to := from.AddDate(0, 0, 1)
		fromTS, toTS := model.FormatTimestamp(from, loc), model.FormatTimestamp(to, loc)

		day := DayStats{Date: from.Format(time.DateOnly)}
		var err error
		if day.Feedings, err = s.events.CountBetween(familyID, model.EventFeeding, fromTS, toTS); err != nil {
			return nil, err
		}
		if day.Diapers, err = s.events.CountBetween(familyID, model.EventDiaper, fromTS, toTS); err != nil {
			return nil, err
		}
		stats = append(stats, day)
	}
	return stats, nil
}

func clampDays(days int) int {
	if days < 1 {
		return 1
	}
	if days > MaxStatsDays {
		return MaxStatsDays
	}
	return days
}

func nameOrUnknown(name string) string {
	if name == "" {
		return UnknownName
	}
	return name
}
