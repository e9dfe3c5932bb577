// Package service provides the top-level tracker combining the record
// store, the undo controller, the stale-application sweep and optional
// status-change notifications. The web layer issues all of its commands
// through this package.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/robfig/cron/v3"

	"github.com/apptrack/apptrack/app/analytics"
	"github.com/apptrack/apptrack/app/query"
	"github.com/apptrack/apptrack/app/store"
	"github.com/apptrack/apptrack/app/store/enums"
	"github.com/apptrack/apptrack/app/store/persistence"
)

// persisted-state keys for UI settings, stored next to the jobs key
const (
	themeKey      = "theme"
	onboardingKey = "onboarding_complete"
)

// Notifier defines notification delivery for status changes
type Notifier interface {
	Send(ctx context.Context, subj, text string) error
}

// Tracker is the single owner of tracker state and the entry point for all
// commands. Fields are set by the caller before Run.
type Tracker struct {
	Store         *store.Store
	Undo          *UndoController
	KV            store.KV      // settings keys, shares the adapter with the store
	Notifier      Notifier      // optional, nil disables notifications
	NotifyTimeout time.Duration // per-send timeout, defaults to 10s
	SweepSchedule string        // cron spec for the stale sweep, empty disables
	StaleDays     int           // Applied records older than this get Ghosted

	cron *cron.Cron
}

// Run loads the collection and blocks running the periodic stale sweep
// until the context is canceled.
func (t *Tracker) Run(ctx context.Context) error {
	t.Store.Load()

	if t.SweepSchedule != "" && t.StaleDays > 0 {
		t.cron = cron.New()
		_, err := t.cron.AddFunc(t.SweepSchedule, func() {
			if n := t.SweepStale(ctx); n > 0 {
				log.Printf("[INFO] stale sweep ghosted %d applications", n)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid sweep schedule %q: %w", t.SweepSchedule, err)
		}
		t.cron.Start()
		log.Printf("[INFO] stale sweep scheduled %q, threshold %d days", t.SweepSchedule, t.StaleDays)
	}

	<-ctx.Done()
	if t.cron != nil {
		<-t.cron.Stop().Done()
	}
	return ctx.Err()
}

// List returns the filtered, sorted view of the collection
func (t *Tracker) List(spec query.FilterSpec) []store.JobApplication {
	return query.Apply(t.Store.All(), spec)
}

// Add creates a new record from the validated input
func (t *Tracker) Add(ctx context.Context, input store.JobInput) (store.JobApplication, error) {
	return t.Store.Add(ctx, input)
}

// Update replaces the mutable fields of an existing record and fires a
// notification when the status changed.
func (t *Tracker) Update(ctx context.Context, id string, input store.JobInput) (store.JobApplication, error) {
	prev, err := t.Store.Get(id)
	if err != nil {
		return store.JobApplication{}, err
	}

	rec, err := t.Store.Update(ctx, id, input)
	if err != nil {
		return store.JobApplication{}, err
	}

	if prev.Status != rec.Status {
		t.notifyStatusChange(rec, prev.Status)
	}
	return rec, nil
}

// Delete removes the record and hands it to the undo controller for the
// recovery window
func (t *Tracker) Delete(ctx context.Context, id string) error {
	rec, err := t.Store.Remove(ctx, id)
	if err != nil {
		return err
	}
	t.Undo.Capture(rec)
	return nil
}

// UndoDelete restores the pending removed record, if any. ok=false means
// nothing was pending, which is a no-op, not an error.
func (t *Tracker) UndoDelete(ctx context.Context) (rec store.JobApplication, ok bool, err error) {
	rec, ok = t.Undo.Undo()
	if !ok {
		return store.JobApplication{}, false, nil
	}
	if err = t.Store.Reinsert(ctx, rec); err != nil {
		// restore failed, put the record back under the undo window so the
		// user can retry instead of silently losing it
		t.Undo.Capture(rec)
		return store.JobApplication{}, false, err
	}
	return rec, true, nil
}

// StatusBreakdown returns per-status counts over the full collection
func (t *Tracker) StatusBreakdown() analytics.Breakdown {
	return analytics.StatusBreakdown(t.Store.All())
}

// Trend returns the 30-day application time series ending today
func (t *Tracker) Trend() (labels []string, counts []int) {
	return analytics.Trend(t.Store.All(), time.Now())
}

// Theme returns the persisted UI theme, light if unset or unreadable
func (t *Tracker) Theme() enums.Theme {
	val, err := t.KV.Get(themeKey)
	if err != nil {
		if !errors.Is(err, persistence.ErrNotFound) {
			log.Printf("[WARN] failed to read theme: %v", err)
		}
		return enums.ThemeLight
	}
	theme, err := enums.ParseTheme(val)
	if err != nil {
		return enums.ThemeLight
	}
	return theme
}

// SetTheme persists the UI theme
func (t *Tracker) SetTheme(theme enums.Theme) error {
	return t.KV.Set(themeKey, theme.String())
}

// OnboardingComplete reports whether the user finished onboarding
func (t *Tracker) OnboardingComplete() bool {
	val, err := t.KV.Get(onboardingKey)
	return err == nil && val == "true"
}

// SetOnboardingComplete persists the onboarding flag
func (t *Tracker) SetOnboardingComplete(done bool) error {
	return t.KV.Set(onboardingKey, fmt.Sprintf("%v", done))
}

// SweepStale marks Applied records older than StaleDays as Ghosted,
// returning the number of records changed. Each change goes through the
// regular update path so it persists and keeps id/createdAt intact.
func (t *Tracker) SweepStale(ctx context.Context) int {
	if t.StaleDays <= 0 {
		return 0
	}

	cutoff := store.DateOf(time.Now().AddDate(0, 0, -t.StaleDays))
	changed := 0
	for _, rec := range t.Store.All() {
		if rec.Status != enums.StatusApplied || !rec.AppliedOn.Before(cutoff.Time) {
			continue
		}
		input := store.JobInput{
			Company: rec.Company, Role: rec.Role, JobType: rec.JobType,
			Location: rec.Location, AppliedOn: rec.AppliedOn,
			Status: enums.StatusGhosted, JobLink: rec.JobLink, Notes: rec.Notes,
		}
		if _, err := t.Store.Update(ctx, rec.ID, input); err != nil {
			log.Printf("[WARN] stale sweep failed to update %s: %v", rec.ID, err)
			continue
		}
		changed++
	}
	return changed
}

// notifyStatusChange sends the notification in the background, failures are
// logged and never affect the command outcome
func (t *Tracker) notifyStatusChange(rec store.JobApplication, from enums.Status) {
	if t.Notifier == nil {
		return
	}

	timeout := t.NotifyTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	subj := fmt.Sprintf("apptrack: %s at %s is now %s", rec.Role, rec.Company, rec.Status)
	text := fmt.Sprintf("%s at %s moved %s -> %s (applied %s)",
		rec.Role, rec.Company, from, rec.Status, rec.AppliedOn)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := t.Notifier.Send(ctx, subj, text); err != nil {
			log.Printf("[WARN] failed to send status notification: %v", err)
		}
	}()
}
