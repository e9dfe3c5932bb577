// Package store owns the authoritative collection of job-application
// records. The collection lives in memory ordered newest-created first and
// is re-persisted in full as JSON under the "jobs" key after every
// successful mutation. Derived views (query, analytics) read snapshots via
// All and never mutate the collection.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/apptrack/apptrack/app/store/persistence"
)

// JobsKey is the persisted-state key holding the serialized collection
const JobsKey = "jobs"

// ErrNotFound is returned for operations referencing a nonexistent record id
var ErrNotFound = errors.New("record not found")

// KV defines the persistence adapter operations used by the store
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// Repeater retries failed persistence writes, terminating early on
// critical errors
type Repeater interface {
	Do(ctx context.Context, fun func() error, errs ...error) error
}

// Store holds the record collection and persists it through the KV adapter
type Store struct {
	mu       sync.RWMutex
	records  []JobApplication
	kv       KV
	repeater Repeater
	policy   *bluemonday.Policy
	now      func() time.Time // replaceable in tests
}

// New creates a store over the given adapter. rpt may be nil to persist
// without retries.
func New(kv KV, rpt Repeater) *Store {
	return &Store{
		kv:       kv,
		repeater: rpt,
		policy:   bluemonday.StrictPolicy(),
		now:      time.Now,
	}
}

// Load populates the collection from the adapter. Absent or malformed data
// is treated as an empty collection and never fails the caller.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	val, err := s.kv.Get(JobsKey)
	if errors.Is(err, persistence.ErrNotFound) {
		s.records = []JobApplication{}
		return
	}
	if err != nil {
		log.Printf("[WARN] failed to read %s key, starting empty: %v", JobsKey, err)
		s.records = []JobApplication{}
		return
	}

	var records []JobApplication
	if err := json.Unmarshal([]byte(val), &records); err != nil {
		log.Printf("[WARN] malformed %s data, starting empty: %v", JobsKey, err)
		s.records = []JobApplication{}
		return
	}
	s.records = records
	log.Printf("[DEBUG] loaded %d records", len(records))
}

// Add sanitizes and validates input, assigns id and creation timestamp,
// inserts the record at the front and persists. On persistence failure the
// insertion is rolled back and the error returned. Sanitization runs first
// so a required field holding nothing but markup fails validation.
func (s *Store) Add(ctx context.Context, input JobInput) (JobApplication, error) {
	input = s.sanitizeInput(input)
	if err := input.Validate(); err != nil {
		return JobApplication{}, fmt.Errorf("validation failed: %w", err)
	}

	rec := JobApplication{
		ID:        uuid.NewString(),
		Company:   input.Company,
		Role:      input.Role,
		JobType:   input.JobType,
		Location:  input.Location,
		AppliedOn: input.AppliedOn,
		Status:    input.Status,
		JobLink:   input.JobLink,
		Notes:     input.Notes,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append([]JobApplication{rec}, s.records...)
	if err := s.persist(ctx); err != nil {
		s.records = s.records[1:] // roll back the insertion
		return JobApplication{}, fmt.Errorf("failed to persist after add: %w", err)
	}
	log.Printf("[INFO] added application %s at %s", rec.ID, rec.Company)
	return rec, nil
}

// Update replaces all mutable fields of the record with the given id,
// preserving id and creation timestamp. On persistence failure the previous
// record is restored so memory and storage stay consistent.
func (s *Store) Update(ctx context.Context, id string, input JobInput) (JobApplication, error) {
	input = s.sanitizeInput(input)
	if err := input.Validate(); err != nil {
		return JobApplication{}, fmt.Errorf("validation failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return JobApplication{}, fmt.Errorf("update %s: %w", id, ErrNotFound)
	}

	prev := s.records[idx]
	s.records[idx] = JobApplication{
		ID:        prev.ID,
		Company:   input.Company,
		Role:      input.Role,
		JobType:   input.JobType,
		Location:  input.Location,
		AppliedOn: input.AppliedOn,
		Status:    input.Status,
		JobLink:   input.JobLink,
		Notes:     input.Notes,
		CreatedAt: prev.CreatedAt,
	}

	if err := s.persist(ctx); err != nil {
		s.records[idx] = prev // roll back the mutation
		return JobApplication{}, fmt.Errorf("failed to persist after update: %w", err)
	}
	return s.records[idx], nil
}

// Remove extracts the record with the given id and persists the remaining
// collection. On persistence failure the record is reinserted at its
// original position. On success ownership of the returned record transfers
// to the caller, the store retains nothing.
func (s *Store) Remove(ctx context.Context, id string) (JobApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return JobApplication{}, fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}

	rec := s.records[idx]
	s.records = append(s.records[:idx], s.records[idx+1:]...)

	if err := s.persist(ctx); err != nil {
		// reinsert at the original position
		s.records = append(s.records[:idx], append([]JobApplication{rec}, s.records[idx:]...)...)
		return JobApplication{}, fmt.Errorf("failed to persist after remove: %w", err)
	}
	log.Printf("[INFO] removed application %s at %s", rec.ID, rec.Company)
	return rec, nil
}

// Reinsert puts a previously removed record back at the front of the
// collection with its original id and creation timestamp. Used by the undo
// controller.
func (s *Store) Reinsert(ctx context.Context, rec JobApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(rec.ID) >= 0 {
		return fmt.Errorf("reinsert %s: id already present", rec.ID)
	}

	s.records = append([]JobApplication{rec}, s.records...)
	if err := s.persist(ctx); err != nil {
		s.records = s.records[1:]
		return fmt.Errorf("failed to persist after reinsert: %w", err)
	}
	return nil
}

// Get returns the record with the given id, ErrNotFound if absent
func (s *Store) Get(id string) (JobApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return JobApplication{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return s.records[idx], nil
}

// All returns a snapshot copy of the collection in its current order
func (s *Store) All() []JobApplication {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]JobApplication, len(s.records))
	copy(res, s.records)
	return res
}

// Len returns the number of records in the collection
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// persist writes the full collection to the adapter, retrying transient
// failures. Quota errors are terminal and not retried. Caller must hold the
// write lock.
func (s *Store) persist(ctx context.Context) error {
	data, err := json.Marshal(s.records)
	if err != nil {
		return fmt.Errorf("failed to serialize records: %w", err)
	}

	setFn := func() error { return s.kv.Set(JobsKey, string(data)) }
	if s.repeater == nil {
		return setFn()
	}
	return s.repeater.Do(ctx, setFn, persistence.ErrQuotaExceeded)
}

// indexOf returns the position of id in the collection, -1 if absent.
// Caller must hold at least the read lock.
func (s *Store) indexOf(id string) int {
	for i, rec := range s.records {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

// newlineFlattener collapses line breaks in free-text fields, the csv
// export is line-based and cannot carry them
var newlineFlattener = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// sanitizeInput strips markup from the free-text fields. Enumerated and
// date fields are typed and need no scrubbing.
func (s *Store) sanitizeInput(input JobInput) JobInput {
	input.Company = s.cleanText(input.Company)
	input.Role = s.cleanText(input.Role)
	input.Notes = s.cleanText(input.Notes)
	input.JobLink = strings.TrimSpace(input.JobLink)
	return input
}

// cleanText strips markup from v. The policy entity-escapes plain text, so
// each pass unescapes its output to keep quotes and ampersands intact; the
// pass repeats until the value is stable, otherwise entity-encoded tags
// would re-materialize unsanitized after the unescape.
func (s *Store) cleanText(v string) string {
	v = newlineFlattener.Replace(v)
	for i := 0; i < 5; i++ {
		next := html.UnescapeString(s.policy.Sanitize(v))
		if next == v {
			break
		}
		v = next
	}
	return strings.TrimSpace(v)
}
