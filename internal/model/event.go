package model

import (
	"fmt"
	"time"
)

// TimestampLayout is the fixed-width text form of event timestamps. Values
// within one reference zone sort lexically in time order.
const TimestampLayout = "2006-01-02T15:04:05.000000-07:00"

type EventKind string

const (
	EventFeeding EventKind = "feeding"
	EventDiaper  EventKind = "diaper"
)

// EventKinds lists every recordable kind in display order.
var EventKinds = []EventKind{EventFeeding, EventDiaper}

func (k EventKind) Valid() bool {
	return k == EventFeeding || k == EventDiaper
}

func ParseEventKind(s string) (EventKind, error) {
	k := EventKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown event kind %q", s)
	}
	return k, nil
}

// Event is an immutable log entry. Timestamp keeps the stored text so that
// rows written by older clients remain readable.
type Event struct {
	ID         int64     `json:"id"`
	FamilyID   int64     `json:"family_id"`
	AuthorID   int64     `json:"author_id"`
	Timestamp  string    `json:"timestamp"`
	AuthorRole string    `json:"author_role"`
	AuthorName string    `json:"author_name"`
	Kind       EventKind `json:"kind"`
}

// FormatTimestamp renders t in loc using TimestampLayout.
func FormatTimestamp(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(TimestampLayout)
}

// ParseTimestamp accepts TimestampLayout, RFC 3339 and zone-less ISO 8601
// text. Zone-less values are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q", s)
}
