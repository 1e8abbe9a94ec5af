// Package clock pins wall-clock time to the single reference zone every
// timestamp in the system is recorded and evaluated in.
package clock

import (
	"fmt"
	"time"
)

type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New returns a Clock reading the system time in loc.
func New(loc *time.Location) *Clock {
	return &Clock{loc: loc, now: time.Now}
}

// Load resolves an IANA zone name such as "Asia/Bangkok".
func Load(zone string) (*Clock, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", zone, err)
	}
	return New(loc), nil
}

// Fixed returns a Clock that always reports t. Used by tests.
func Fixed(t time.Time) *Clock {
	return &Clock{loc: t.Location(), now: func() time.Time { return t }}
}

// Func returns a Clock that reads time from now, in loc.
func Func(loc *time.Location, now func() time.Time) *Clock {
	return &Clock{loc: loc, now: now}
}

func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

func (c *Clock) Location() *time.Location {
	return c.loc
}

// StartOfDay returns midnight of t's day in the reference zone.
func (c *Clock) StartOfDay(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}
