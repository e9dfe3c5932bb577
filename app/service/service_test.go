package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apptrack/apptrack/app/query"
	"github.com/apptrack/apptrack/app/store"
	"github.com/apptrack/apptrack/app/store/enums"
	"github.com/apptrack/apptrack/app/store/persistence"
)

// notifierMock records sent notifications
type notifierMock struct {
	mu    sync.Mutex
	sent  []string
	calls int
}

func (n *notifierMock) Send(_ context.Context, subj, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	n.sent = append(n.sent, subj+" | "+text)
	return nil
}

func (n *notifierMock) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

func newTestTracker(t *testing.T, window time.Duration) (*Tracker, *notifierMock) {
	kv, err := persistence.NewKVStore(filepath.Join(t.TempDir(), "test.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	notifier := &notifierMock{}
	tracker := &Tracker{
		Store:         store.New(kv, nil),
		Undo:          NewUndoController(window),
		KV:            kv,
		Notifier:      notifier,
		NotifyTimeout: time.Second,
	}
	tracker.Store.Load()
	return tracker, notifier
}

func input(company, role, date string, status enums.Status) store.JobInput {
	d, err := store.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return store.JobInput{
		Company: company, Role: role, JobType: enums.JobTypeFullTime,
		Location: enums.LocationRemote, AppliedOn: d, Status: status,
	}
}

func TestTracker_Scenario(t *testing.T) {
	// the full add -> breakdown -> delete -> undo cycle
	tracker, _ := newTestTracker(t, time.Minute)
	ctx := context.Background()

	rec, err := tracker.Add(ctx, input("Google", "SWE", "2026-01-28", enums.StatusApplied))
	require.NoError(t, err)
	assert.Equal(t, 1, tracker.Store.Len())
	assert.Equal(t, 1, tracker.StatusBreakdown().Counts["Applied"])

	require.NoError(t, tracker.Delete(ctx, rec.ID))
	assert.Equal(t, 0, tracker.Store.Len())
	assert.True(t, tracker.Undo.Pending())

	restored, ok, err := tracker.UndoDelete(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec.ID, restored.ID)
	assert.Equal(t, rec.CreatedAt, restored.CreatedAt)
	assert.Equal(t, 1, tracker.Store.Len())
	assert.False(t, tracker.Undo.Pending())
}

func TestTracker_UndoAfterTimeout(t *testing.T) {
	tracker, _ := newTestTracker(t, 20*time.Millisecond)
	ctx := context.Background()

	rec, err := tracker.Add(ctx, input("Meta", "SRE", "2026-01-10", enums.StatusApplied))
	require.NoError(t, err)
	require.NoError(t, tracker.Delete(ctx, rec.ID))

	assert.Eventually(t, func() bool { return !tracker.Undo.Pending() },
		time.Second, 5*time.Millisecond, "window should elapse")

	_, ok, err := tracker.UndoDelete(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "undo after timeout is a no-op")
	assert.Equal(t, 0, tracker.Store.Len())
}

func TestTracker_UpdateNotifiesOnStatusChange(t *testing.T) {
	tracker, notifier := newTestTracker(t, time.Minute)
	ctx := context.Background()

	rec, err := tracker.Add(ctx, input("Stripe", "SWE", "2026-01-05", enums.StatusApplied))
	require.NoError(t, err)

	// same status, no notification
	_, err = tracker.Update(ctx, rec.ID, input("Stripe", "SWE", "2026-01-05", enums.StatusApplied))
	require.NoError(t, err)

	// status change fires one
	_, err = tracker.Update(ctx, rec.ID, input("Stripe", "SWE", "2026-01-05", enums.StatusOffer))
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return notifier.sentCount() == 1 },
		time.Second, 5*time.Millisecond)
}

func TestTracker_UpdateNotFound(t *testing.T) {
	tracker, _ := newTestTracker(t, time.Minute)
	_, err := tracker.Update(context.Background(), "nope", input("X", "Y", "2026-01-01", enums.StatusApplied))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTracker_List(t *testing.T) {
	tracker, _ := newTestTracker(t, time.Minute)
	ctx := context.Background()

	_, err := tracker.Add(ctx, input("Google", "SWE", "2026-01-10", enums.StatusApplied))
	require.NoError(t, err)
	_, err = tracker.Add(ctx, input("Meta", "PM", "2026-01-20", enums.StatusInterview))
	require.NoError(t, err)

	got := tracker.List(query.FilterSpec{Status: "Interview", Sort: enums.SortModeNewest})
	require.Len(t, got, 1)
	assert.Equal(t, "Meta", got[0].Company)
}

func TestTracker_ThemeAndOnboarding(t *testing.T) {
	tracker, _ := newTestTracker(t, time.Minute)

	assert.Equal(t, enums.ThemeLight, tracker.Theme(), "light when unset")
	require.NoError(t, tracker.SetTheme(enums.ThemeDark))
	assert.Equal(t, enums.ThemeDark, tracker.Theme())

	assert.False(t, tracker.OnboardingComplete())
	require.NoError(t, tracker.SetOnboardingComplete(true))
	assert.True(t, tracker.OnboardingComplete())
}

func TestTracker_SweepStale(t *testing.T) {
	tracker, _ := newTestTracker(t, time.Minute)
	tracker.StaleDays = 30
	ctx := context.Background()

	old := store.DateOf(time.Now().AddDate(0, 0, -45))
	fresh := store.DateOf(time.Now().AddDate(0, 0, -5))

	stale, err := tracker.Add(ctx, input("OldCo", "SWE", old.String(), enums.StatusApplied))
	require.NoError(t, err)
	recent, err := tracker.Add(ctx, input("NewCo", "SWE", fresh.String(), enums.StatusApplied))
	require.NoError(t, err)
	interviewed, err := tracker.Add(ctx, input("TalkCo", "SWE", old.String(), enums.StatusInterview))
	require.NoError(t, err)

	assert.Equal(t, 1, tracker.SweepStale(ctx))

	got, err := tracker.Store.Get(stale.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.StatusGhosted, got.Status)

	got, err = tracker.Store.Get(recent.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.StatusApplied, got.Status, "fresh application untouched")

	got, err = tracker.Store.Get(interviewed.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.StatusInterview, got.Status, "only Applied records are swept")

	assert.Equal(t, 0, tracker.SweepStale(ctx), "second sweep finds nothing")
}

func TestTracker_RunStopsOnCancel(t *testing.T) {
	tracker, _ := newTestTracker(t, time.Minute)
	tracker.SweepSchedule = "@daily"
	tracker.StaleDays = 30

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tracker.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancel")
	}
}

func TestTracker_RunBadSchedule(t *testing.T) {
	tracker, _ := newTestTracker(t, time.Minute)
	tracker.SweepSchedule = "not a schedule"
	tracker.StaleDays = 30

	err := tracker.Run(context.Background())
	assert.Error(t, err)
}
