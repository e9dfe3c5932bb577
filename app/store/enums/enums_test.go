package enums

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Status
		wantErr bool
	}{
		{"exact match", "Applied", StatusApplied, false},
		{"case insensitive", "ghosted", StatusGhosted, false},
		{"upper case", "OFFER", StatusOffer, false},
		{"invalid", "pending", Status{}, true},
		{"empty", "", Status{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatus_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(StatusInterview)
	require.NoError(t, err)
	assert.Equal(t, `"Interview"`, string(data))

	var s Status
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, StatusInterview, s)
}

func TestStatus_UnmarshalUnknownDegrades(t *testing.T) {
	// unknown persisted status must not fail the load, just end up zero
	var s Status
	require.NoError(t, json.Unmarshal([]byte(`"bogus"`), &s))
	assert.True(t, s.IsZero())
}

func TestParseJobType(t *testing.T) {
	got, err := ParseJobType("full-time")
	require.NoError(t, err)
	assert.Equal(t, JobTypeFullTime, got)

	_, err = ParseJobType("part-time")
	assert.Error(t, err)
}

func TestParseLocation(t *testing.T) {
	got, err := ParseLocation("HYBRID")
	require.NoError(t, err)
	assert.Equal(t, LocationHybrid, got)

	_, err = ParseLocation("moon")
	assert.Error(t, err)
}

func TestParseSortMode(t *testing.T) {
	got, err := ParseSortMode("")
	require.NoError(t, err)
	assert.Equal(t, SortModeNewest, got, "empty defaults to newest")

	got, err = ParseSortMode("oldest")
	require.NoError(t, err)
	assert.Equal(t, SortModeOldest, got)

	_, err = ParseSortMode("random")
	assert.Error(t, err)
}

func TestParseTheme(t *testing.T) {
	got, err := ParseTheme("dark")
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, got)

	_, err = ParseTheme("solarized")
	assert.Error(t, err)
}

func TestStatusValues_Complete(t *testing.T) {
	assert.Len(t, StatusValues(), 5)
	assert.Len(t, JobTypeValues(), 3)
	assert.Len(t, LocationValues(), 3)
}
