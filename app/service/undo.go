package service

import (
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/apptrack/apptrack/app/store"
)

// UndoController wraps delete operations with a time-boxed recovery window.
// It holds at most one removed record: a new capture supersedes any pending
// one, and after the window elapses the record is gone for good. All
// transitions are serialized under the controller's lock, the expiry timer
// is one-shot and cancellable exactly once (by a new capture or an undo).
type UndoController struct {
	mu      sync.Mutex
	pending *store.JobApplication
	timer   *time.Timer
	gen     uint64 // bumped on every capture, stale timers check it before discarding
	window  time.Duration
}

// NewUndoController creates a controller with the given recovery window
func NewUndoController(window time.Duration) *UndoController {
	return &UndoController{window: window}
}

// Capture takes ownership of a removed record and starts the recovery
// window. Any previously pending record is discarded immediately.
func (u *UndoController) Capture(rec store.JobApplication) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.timer != nil {
		u.timer.Stop()
		log.Printf("[DEBUG] pending undo for %s superseded", u.pending.ID)
	}

	u.gen++
	gen := u.gen
	u.pending = &rec
	u.timer = time.AfterFunc(u.window, func() { u.expire(gen) })
}

// Undo cancels the window and releases the pending record to the caller.
// Returns ok=false when nothing is pending, which is not an error.
func (u *UndoController) Undo() (store.JobApplication, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.pending == nil {
		return store.JobApplication{}, false
	}

	u.timer.Stop()
	rec := *u.pending
	u.pending, u.timer = nil, nil
	return rec, true
}

// Pending reports whether a removed record is still recoverable
func (u *UndoController) Pending() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.pending != nil
}

// expire discards the pending record once the window elapses. The
// generation check makes a stale timer firing after a new capture harmless.
func (u *UndoController) expire(gen uint64) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.gen != gen || u.pending == nil {
		return
	}
	log.Printf("[DEBUG] undo window elapsed, %s discarded permanently", u.pending.ID)
	u.pending, u.timer = nil, nil
}
