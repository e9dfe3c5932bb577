// Package query derives filtered, sorted views from a record snapshot.
// Apply is a pure function of (records, spec): it never mutates its input
// and recomputes the result from scratch on every call.
package query

import (
	"sort"
	"strings"

	"github.com/apptrack/apptrack/app/store"
	"github.com/apptrack/apptrack/app/store/enums"
)

// All is the wildcard value disabling an enum filter
const All = "all"

// FilterSpec holds the active search/filter/sort parameters. Empty search
// and "all" (or empty) enum fields match everything.
type FilterSpec struct {
	Search   string
	Status   string
	JobType  string
	Location string
	Sort     enums.SortMode
}

// Apply filters records by the AND of all active predicates and sorts the
// result by application date. The sort is stable, ties keep the order the
// filtering produced.
func Apply(records []store.JobApplication, spec FilterSpec) []store.JobApplication {
	res := make([]store.JobApplication, 0, len(records))
	for _, rec := range records {
		if !matches(rec, spec) {
			continue
		}
		res = append(res, rec)
	}

	sort.SliceStable(res, func(i, j int) bool {
		if spec.Sort == enums.SortModeOldest {
			return res[i].AppliedOn.Before(res[j].AppliedOn.Time)
		}
		return res[i].AppliedOn.After(res[j].AppliedOn.Time)
	})
	return res
}

// matches checks a single record against all active predicates
func matches(rec store.JobApplication, spec FilterSpec) bool {
	if term := strings.TrimSpace(spec.Search); term != "" {
		lower := strings.ToLower(term)
		if !strings.Contains(strings.ToLower(rec.Company), lower) &&
			!strings.Contains(strings.ToLower(rec.Role), lower) {
			return false
		}
	}
	if !wildcard(spec.Status) && !strings.EqualFold(rec.Status.String(), spec.Status) {
		return false
	}
	if !wildcard(spec.JobType) && !strings.EqualFold(rec.JobType.String(), spec.JobType) {
		return false
	}
	if !wildcard(spec.Location) && !strings.EqualFold(rec.Location.String(), spec.Location) {
		return false
	}
	return true
}

func wildcard(v string) bool {
	return v == "" || strings.EqualFold(v, All)
}
