package model

import (
	"fmt"
	"time"
)

// ClockTime is a wall-clock hour and minute with no date.
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c ClockTime) Valid() bool {
	return c.Hour >= 0 && c.Hour < 24 && c.Minute >= 0 && c.Minute < 60
}

// On returns the instant at c on the calendar day of t, in t's location.
func (c ClockTime) On(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.Hour, c.Minute, 0, 0, t.Location())
}

// ParseClockTime parses "HH:MM".
func ParseClockTime(s string) (ClockTime, error) {
	var c ClockTime
	if _, err := fmt.Sscanf(s, "%d:%d", &c.Hour, &c.Minute); err != nil {
		return ClockTime{}, fmt.Errorf("parse clock time %q: %w", s, err)
	}
	if !c.Valid() || len(s) != 5 {
		return ClockTime{}, fmt.Errorf("parse clock time %q: out of range", s)
	}
	return c, nil
}

// Settings holds one family's reminder configuration.
type Settings struct {
	FamilyID       int64     `json:"family_id"`
	FeedInterval   int       `json:"feed_interval"`
	DiaperInterval int       `json:"diaper_interval"`
	TipsEnabled    bool      `json:"tips_enabled"`
	TipsTime       ClockTime `json:"tips_time"`
	BathInterval   int       `json:"bath_interval"`
	BathTime       ClockTime `json:"bath_time"`
	BathEnabled    bool      `json:"bath_enabled"`
}

// DefaultSettings returns the values a new settings row starts with.
func DefaultSettings(familyID int64) Settings {
	return Settings{
		FamilyID:       familyID,
		FeedInterval:   3,
		DiaperInterval: 2,
		TipsEnabled:    true,
		TipsTime:       ClockTime{Hour: 9},
		BathInterval:   1,
		BathTime:       ClockTime{Hour: 19},
		BathEnabled:    true,
	}
}

// SettingsPatch names the fields to change; nil fields are left alone.
type SettingsPatch struct {
	FeedInterval   *int
	DiaperInterval *int
	TipsEnabled    *bool
	TipsTime       *ClockTime
	BathInterval   *int
	BathTime       *ClockTime
	BathEnabled    *bool
}

func (p SettingsPatch) Empty() bool {
	return p.FeedInterval == nil && p.DiaperInterval == nil && p.TipsEnabled == nil &&
		p.TipsTime == nil && p.BathInterval == nil && p.BathTime == nil && p.BathEnabled == nil
}
