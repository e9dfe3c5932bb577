// Package analytics derives aggregate views from the full record
// collection. Both derivations are pure functions recomputed from scratch
// on every call, nothing is cached between invocations.
package analytics

import (
	"time"

	"github.com/apptrack/apptrack/app/store"
	"github.com/apptrack/apptrack/app/store/enums"
)

// trendDays is the length of the trend window, today inclusive
const trendDays = 30

// Breakdown holds per-status counts over the whole collection. Records with
// unrecognized statuses are excluded from Counts but included in Total.
// HasData distinguishes an empty collection from all-zero buckets.
type Breakdown struct {
	Counts  map[string]int
	Total   int
	HasData bool
}

// StatusBreakdown counts records per status among the known statuses
func StatusBreakdown(records []store.JobApplication) Breakdown {
	res := Breakdown{Counts: map[string]int{}, Total: len(records), HasData: len(records) > 0}
	for _, v := range enums.StatusValues() {
		res.Counts[v.String()] = 0
	}
	for _, rec := range records {
		if rec.Status.IsZero() { // corrupted status, counted in total only
			continue
		}
		res.Counts[rec.Status.String()]++
	}
	return res
}

// Trend counts records per calendar day over the 30 days ending today,
// oldest first. Labels and counts are index-aligned; a record outside the
// window contributes to no bucket.
func Trend(records []store.JobApplication, today time.Time) (labels []string, counts []int) {
	labels = make([]string, trendDays)
	counts = make([]int, trendDays)

	days := make([]store.Date, trendDays)
	for i := 0; i < trendDays; i++ {
		day := store.DateOf(today.AddDate(0, 0, i-trendDays+1))
		days[i] = day
		labels[i] = day.Format("Jan 2")
	}

	for _, rec := range records {
		for i, day := range days {
			if rec.AppliedOn.SameDay(day) {
				counts[i]++
				break
			}
		}
	}
	return labels, counts
}
