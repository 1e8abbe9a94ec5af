// Package reminder decides which reminders are due for one family at one
// instant. It performs no I/O: callers load the settings and the last event
// timestamps and hand them in.
package reminder

import (
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/babycare/internal/model"
)

type Kind string

const (
	KindFeeding Kind = "feeding"
	KindDiaper  Kind = "diaper"
	KindBath    Kind = "bath"
	KindTip     Kind = "tip"
)

// Reminder is a due notification ready to be sent to a family.
type Reminder struct {
	Kind    Kind
	Message string
	// Elapsed is the whole hours since the last event, for feeding and
	// diaper reminders.
	Elapsed int
}

// Input is everything a decision for one family depends on. Settings is nil
// when the family has never saved any. LastFeeding and LastDiaper hold the
// stored timestamp text, empty when no event was recorded.
type Input struct {
	Now         time.Time
	Settings    *model.Settings
	LastFeeding string
	LastDiaper  string
}

// Evaluate applies the feeding, diaper and bath rules. A timestamp that
// cannot be parsed suppresses only its own rule; the parse errors are
// returned alongside whatever reminders the remaining rules produced.
func Evaluate(in Input) ([]Reminder, error) {
	var due []Reminder
	var errs []error

	if r, ok, err := Feeding(in.Now, in.Settings, in.LastFeeding); err != nil {
		errs = append(errs, err)
	} else if ok {
		due = append(due, r)
	}

	if r, ok, err := Diaper(in.Now, in.Settings, in.LastDiaper); err != nil {
		errs = append(errs, err)
	} else if ok {
		due = append(due, r)
	}

	st := model.DefaultSettings(0)
	if in.Settings != nil {
		st = *in.Settings
	}
	if r, ok := Bath(in.Now, st); ok {
		due = append(due, r)
	}

	return due, errors.Join(errs...)
}

// Feeding reports whether at least the feed interval has passed since the
// last feeding. Without settings or without a recorded feeding it never fires.
func Feeding(now time.Time, st *model.Settings, last string) (Reminder, bool, error) {
	if st == nil {
		return Reminder{}, false, nil
	}
	hours, ok, err := elapsed(now, last, st.FeedInterval)
	if err != nil || !ok {
		return Reminder{}, false, err
	}
	return Reminder{
		Kind:    KindFeeding,
		Elapsed: hours,
		Message: fmt.Sprintf("🍼 Time to feed the baby! %d hours since the last feeding.", hours),
	}, true, nil
}

// Diaper is Feeding's counterpart for diaper changes.
func Diaper(now time.Time, st *model.Settings, last string) (Reminder, bool, error) {
	if st == nil {
		return Reminder{}, false, nil
	}
	hours, ok, err := elapsed(now, last, st.DiaperInterval)
	if err != nil || !ok {
		return Reminder{}, false, err
	}
	return Reminder{
		Kind:    KindDiaper,
		Elapsed: hours,
		Message: fmt.Sprintf("👶 Time to change the diaper! %d hours since the last change.", hours),
	}, true, nil
}

func elapsed(now time.Time, last string, intervalHours int) (int, bool, error) {
	if last == "" {
		return 0, false, nil
	}
	at, err := model.ParseTimestamp(last, now.Location())
	if err != nil {
		return 0, false, err
	}
	d := now.Sub(at)
	if d < time.Duration(intervalHours)*time.Hour {
		return 0, false, nil
	}
	return int(d / time.Hour), true, nil
}

// Bath fires during the single clock minute one hour before the bath time.
// It depends only on the clock, never on elapsed time.
func Bath(now time.Time, st model.Settings) (Reminder, bool) {
	if !st.BathEnabled {
		return Reminder{}, false
	}
	bathAt := st.BathTime.On(now)
	remindAt := bathAt.Add(-time.Hour)
	if now.Hour() != remindAt.Hour() || now.Minute() != remindAt.Minute() {
		return Reminder{}, false
	}
	return Reminder{
		Kind:    KindBath,
		Message: fmt.Sprintf("🛁 Reminder: bath time in one hour! (%s)", st.BathTime),
	}, true
}

// Tip returns the tip of the day for a family that has tips enabled. When it
// is sent is decided by the caller's schedule, not by the family's tips time.
func Tip(now time.Time, st *model.Settings) (Reminder, bool) {
	if st == nil || !st.TipsEnabled {
		return Reminder{}, false
	}
	return Reminder{Kind: KindTip, Message: TipOfDay(now)}, true
}
