package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apptrack/apptrack/app/store/enums"
)

func TestExportCSV(t *testing.T) {
	tracker, _ := newTestTracker(t, time.Minute)
	ctx := context.Background()

	in := input("Google", "SWE", "2026-01-28", enums.StatusApplied)
	in.JobLink = "https://careers.google.com/x"
	in.Notes = `said "call back"`
	_, err := tracker.Add(ctx, in)
	require.NoError(t, err)

	got := tracker.ExportCSV()
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Company,Role,Job Type,Location,Application Date,Status,Job Link,Notes", lines[0])
	assert.Equal(t, `"Google","SWE","Full-time","Remote","2026-01-28","Applied","https://careers.google.com/x","said ""call back"""`, lines[1])
}

func TestExportCSV_Empty(t *testing.T) {
	tracker, _ := newTestTracker(t, time.Minute)
	got := tracker.ExportCSV()
	assert.Equal(t, "Company,Role,Job Type,Location,Application Date,Status,Job Link,Notes\n", got)
}

func TestImportCSV(t *testing.T) {
	tracker, _ := newTestTracker(t, time.Minute)
	ctx := context.Background()

	doc := strings.Join([]string{
		"Company,Role,Job Type,Location,Application Date,Status,Job Link,Notes",
		`"Google","SWE","Full-time","Remote","2026-01-28","Applied","https://g.co/x","note one"`,
		`Meta,PM,Contract,Hybrid,2026-01-20,Interview,,`,        // bare tokens
		`"Short","row"`,                                         // under 6 fields, skipped
		`"Bad","Enum","Volunteer","Remote","2026-01-01","Applied"`, // bad job type, skipped
		"",                                                      // blank line ignored
		`"NoExtras","Dev","Internship","Onsite","2026-01-15","Ghosted"`, // 6 fields, link/notes empty
	}, "\n")

	res, err := tracker.ImportCSV(ctx, strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 3, tracker.Store.Len())

	// collection ends up in document order
	all := tracker.Store.All()
	assert.Equal(t, "Google", all[0].Company)
	assert.Equal(t, "Meta", all[1].Company)
	assert.Equal(t, "NoExtras", all[2].Company)
	assert.Equal(t, enums.JobTypeContract, all[1].JobType)
}

func TestImportCSV_ZeroValidRows(t *testing.T) {
	tracker, _ := newTestTracker(t, time.Minute)

	res, err := tracker.ImportCSV(context.Background(), strings.NewReader("Company,Role\nonly,two\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Imported)
	assert.Equal(t, 1, res.Skipped)
}

func TestCSV_RoundTrip(t *testing.T) {
	tracker, _ := newTestTracker(t, time.Minute)
	ctx := context.Background()

	inputs := []struct {
		company, role, date string
		status              enums.Status
	}{
		{"Alpha", "SWE", "2026-01-01", enums.StatusApplied},
		{"Beta", "SRE", "2026-01-02", enums.StatusOffer},
		{"Gamma, Inc", `Data "Wrangler"`, "2026-01-03", enums.StatusRejected},
	}
	for _, it := range inputs {
		_, err := tracker.Add(ctx, input(it.company, it.role, it.date, it.status))
		require.NoError(t, err)
	}
	exported := tracker.ExportCSV()

	// import into a fresh tracker and compare visible fields in order
	other, _ := newTestTracker(t, time.Minute)
	res, err := other.ImportCSV(ctx, strings.NewReader(exported))
	require.NoError(t, err)
	require.Equal(t, 3, res.Imported)

	src := tracker.Store.All()
	dst := other.Store.All()
	require.Len(t, dst, len(src))
	for i := range src {
		got := dst[i]
		want := src[i]
		assert.Equal(t, want.Company, got.Company)
		assert.Equal(t, want.Role, got.Role)
		assert.Equal(t, want.JobType, got.JobType)
		assert.Equal(t, want.Location, got.Location)
		assert.True(t, want.AppliedOn.SameDay(got.AppliedOn))
		assert.Equal(t, want.Status, got.Status)
		assert.Equal(t, want.JobLink, got.JobLink)
		assert.Equal(t, want.Notes, got.Notes)
		assert.NotEqual(t, want.ID, got.ID, "ids are regenerated on import")
	}
}

func TestCSV_RoundTripMultilineNotes(t *testing.T) {
	tracker, _ := newTestTracker(t, time.Minute)
	ctx := context.Background()

	in := input("Alpha", "SWE", "2026-01-01", enums.StatusApplied)
	in.Notes = "first round done\nwaiting on recruiter"
	rec, err := tracker.Add(ctx, in)
	require.NoError(t, err)
	require.NotContains(t, rec.Notes, "\n", "line breaks flattened on the way in")

	exported := tracker.ExportCSV()
	assert.Equal(t, 2, strings.Count(exported, "\n"), "one header line, one record line")

	other, _ := newTestTracker(t, time.Minute)
	res, err := other.ImportCSV(ctx, strings.NewReader(exported))
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, rec.Notes, other.Store.All()[0].Notes)
}

func TestSplitCSVLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"all quoted", `"a","b","c"`, []string{"a", "b", "c"}},
		{"bare", `a,b,c`, []string{"a", "b", "c"}},
		{"mixed", `a,"b,with comma",c`, []string{"a", "b,with comma", "c"}},
		{"escaped quote", `"say ""hi"""`, []string{`say "hi"`}},
		{"empty fields", `a,,c`, []string{"a", "", "c"}},
		{"trailing empty", `a,b,`, []string{"a", "b", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitCSVLine(tt.line))
		})
	}
}
