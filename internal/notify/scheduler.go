package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/babycare/internal/clock"
	"github.com/dukerupert/babycare/internal/model"
	"github.com/dukerupert/babycare/internal/reminder"
	"github.com/dukerupert/babycare/internal/store"
)

// Cadences configures the four independent timelines.
type Cadences struct {
	FeedEvery   time.Duration
	DiaperEvery time.Duration
	BathEvery   time.Duration
	// TipsAt is the global wall-clock time of the daily tip broadcast.
	TipsAt model.ClockTime
}

func DefaultCadences() Cadences {
	return Cadences{
		FeedEvery:   30 * time.Minute,
		DiaperEvery: 30 * time.Minute,
		BathEvery:   time.Minute,
		TipsAt:      model.ClockTime{Hour: 9},
	}
}

// Scheduler drives the reminder rules for every family. It keeps no
// per-family state between ticks: each tick re-reads everything it needs, so
// a condition that stays true fires again on the next tick.
type Scheduler struct {
	mu         sync.RWMutex
	families   *store.FamilyStore
	settings   *store.SettingsStore
	events     *store.EventStore
	dispatcher *Dispatcher
	clock      *clock.Clock
	cadences   Cadences
	logger     *slog.Logger
	cancel     context.CancelFunc
	done       chan struct{}

	// bathCovered is the last clock minute CheckBath has evaluated.
	bathMu      sync.Mutex
	bathCovered time.Time
}

// maxBathCatchUp bounds how many missed minutes one bath tick replays.
const maxBathCatchUp = time.Hour

// NewScheduler creates a reminder scheduler.
func NewScheduler(families *store.FamilyStore, settings *store.SettingsStore, events *store.EventStore, dispatcher *Dispatcher, clk *clock.Clock, cadences Cadences, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		families:   families,
		settings:   settings,
		events:     events,
		dispatcher: dispatcher,
		clock:      clk,
		cadences:   cadences,
		logger:     logger,
	}
}

// Start launches one goroutine per cadence.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(4)
	go s.every(ctx, &wg, "feeding", s.cadences.FeedEvery, s.CheckFeeding)
	go s.every(ctx, &wg, "diaper", s.cadences.DiaperEvery, s.CheckDiaper)
	go s.every(ctx, &wg, "bath", s.cadences.BathEvery, s.CheckBath)
	go s.daily(ctx, &wg, "tips", s.cadences.TipsAt, s.SendTips)

	go func() {
		wg.Wait()
		close(s.done)
	}()
}

// Stop cancels all cadences and waits for running ticks to return.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) every(ctx context.Context, wg *sync.WaitGroup, name string, interval time.Duration, check func(context.Context)) {
	defer wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.run(ctx, name, check)
		}
	}
}

func (s *Scheduler) daily(ctx context.Context, wg *sync.WaitGroup, name string, at model.ClockTime, check func(context.Context)) {
	defer wg.Done()
	for {
		wait := NextDaily(s.clock.Now(), at).Sub(s.clock.Now())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.run(ctx, name, check)
		}
	}
}

// run isolates a tick so that a panic ends only that tick, never the loop.
func (s *Scheduler) run(ctx context.Context, name string, check func(context.Context)) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("tick panicked", "cadence", name, "panic", fmt.Sprint(p))
		}
	}()
	check(ctx)
}

// NextDaily returns the first instant strictly after now at which the clock
// reads at.
func NextDaily(now time.Time, at model.ClockTime) time.Time {
	next := at.On(now)
	if !next.After(now) {
		next = at.On(now.AddDate(0, 0, 1))
	}
	return next
}

func (s *Scheduler) tickLogger(cadence string) *slog.Logger {
	return s.logger.With("cadence", cadence, "tick_id", uuid.NewString())
}

// CheckFeeding sends a feeding reminder to every family whose feed interval
// has elapsed since its last recorded feeding.
func (s *Scheduler) CheckFeeding(ctx context.Context) {
	s.checkInterval(ctx, s.tickLogger("feeding"), model.EventFeeding, reminder.Feeding)
}

// CheckDiaper is CheckFeeding for diaper changes.
func (s *Scheduler) CheckDiaper(ctx context.Context) {
	s.checkInterval(ctx, s.tickLogger("diaper"), model.EventDiaper, reminder.Diaper)
}

type intervalRule func(now time.Time, st *model.Settings, last string) (reminder.Reminder, bool, error)

func (s *Scheduler) checkInterval(ctx context.Context, log *slog.Logger, kind model.EventKind, rule intervalRule) {
	ids, err := s.families.ListIDs()
	if err != nil {
		log.Error("list families", "error", err)
		return
	}
	now := s.clock.Now()

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		st, err := s.settings.Get(id)
		if err != nil {
			log.Error("load settings", "family_id", id, "error", err)
			continue
		}
		if st == nil {
			continue
		}
		last, err := s.events.LastTimestamp(id, kind)
		if err != nil {
			log.Error("load last event", "family_id", id, "kind", kind, "error", err)
			continue
		}
		r, ok, err := rule(now, st, last)
		if err != nil {
			log.Warn("unreadable last event", "family_id", id, "kind", kind, "error", err)
			continue
		}
		if ok {
			s.notify(ctx, log, id, r)
		}
	}
}

// CheckBath sends the one-hour bath warning to families whose reminder
// minute fell between the previous tick and now. Minutes skipped by a slow
// tick are evaluated on the next one, up to maxBathCatchUp. Families without
// settings use the defaults.
func (s *Scheduler) CheckBath(ctx context.Context) {
	log := s.tickLogger("bath")
	minutes := s.bathMinutes(s.clock.Now())
	if len(minutes) == 0 {
		return
	}
	if len(minutes) > 1 {
		log.Warn("catching up missed bath minutes", "minutes", len(minutes))
	}

	ids, err := s.families.ListIDs()
	if err != nil {
		log.Error("list families", "error", err)
		return
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		st, err := s.settings.Get(id)
		if err != nil {
			log.Error("load settings", "family_id", id, "error", err)
			continue
		}
		effective := model.DefaultSettings(id)
		if st != nil {
			effective = *st
		}
		for _, m := range minutes {
			if r, ok := reminder.Bath(m, effective); ok {
				s.notify(ctx, log, id, r)
				break
			}
		}
	}
}

// bathMinutes returns the clock minutes not yet evaluated, oldest first,
// ending at now's minute, and marks them covered.
func (s *Scheduler) bathMinutes(now time.Time) []time.Time {
	current := now.Truncate(time.Minute)

	s.bathMu.Lock()
	defer s.bathMu.Unlock()

	from := current
	if !s.bathCovered.IsZero() {
		from = s.bathCovered.Add(time.Minute)
		if earliest := current.Add(-maxBathCatchUp); from.Before(earliest) {
			from = earliest
		}
	}
	if current.Before(from) {
		return nil
	}

	var minutes []time.Time
	for m := from; !m.After(current); m = m.Add(time.Minute) {
		minutes = append(minutes, m)
	}
	s.bathCovered = current
	return minutes
}

// SendTips broadcasts the tip of the day to every family with tips enabled.
// It is run once a day at the global tips time; the per-family tips time is
// not consulted.
func (s *Scheduler) SendTips(ctx context.Context) {
	log := s.tickLogger("tips")
	ids, err := s.families.ListIDs()
	if err != nil {
		log.Error("list families", "error", err)
		return
	}
	now := s.clock.Now()

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		st, err := s.settings.Get(id)
		if err != nil {
			log.Error("load settings", "family_id", id, "error", err)
			continue
		}
		if r, ok := reminder.Tip(now, st); ok {
			s.notify(ctx, log, id, r)
		}
	}
}

func (s *Scheduler) notify(ctx context.Context, log *slog.Logger, familyID int64, r reminder.Reminder) {
	res, err := s.dispatcher.Dispatch(ctx, familyID, r.Message)
	if err != nil {
		log.Error("dispatch reminder", "family_id", familyID, "kind", r.Kind, "error", err)
		return
	}
	log.Info("reminder sent", "family_id", familyID, "kind", r.Kind,
		"delivered", res.Delivered, "failed", len(res.Failed))
}
