// Package enums provides the enumerated types used across the tracker:
// application status, job type, work location, sort mode and UI theme.
//
// Each enum is a small struct wrapping its canonical name, with String,
// MarshalText/UnmarshalText and a ParseX function. The canonical names are
// the display strings and are what gets persisted and exported, so they
// never change casing between store, CSV and API.
package enums

import (
	"fmt"
	"strings"
)

// Status represents the state of a job application.
type Status struct{ name string }

var (
	StatusApplied   = Status{"Applied"}
	StatusInterview = Status{"Interview"}
	StatusOffer     = Status{"Offer"}
	StatusRejected  = Status{"Rejected"}
	StatusGhosted   = Status{"Ghosted"}
)

// StatusValues returns all valid statuses in display order.
func StatusValues() []Status {
	return []Status{StatusApplied, StatusInterview, StatusOffer, StatusRejected, StatusGhosted}
}

// ParseStatus converts a string to Status, case-insensitive
func ParseStatus(s string) (Status, error) {
	for _, v := range StatusValues() {
		if strings.EqualFold(s, v.name) {
			return v, nil
		}
	}
	return Status{}, fmt.Errorf("invalid status: %q", s)
}

func (s Status) String() string { return s.name }

// IsZero reports whether the status is unset or unrecognized
func (s Status) IsZero() bool { return s.name == "" }

// MarshalText implements encoding.TextMarshaler
func (s Status) MarshalText() ([]byte, error) { return []byte(s.name), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Unknown values do not
// fail the whole document, they produce a zero Status the caller can detect
// with IsZero. Corrupted persisted data should degrade, not abort a load.
func (s *Status) UnmarshalText(text []byte) error {
	v, err := ParseStatus(string(text))
	if err != nil {
		*s = Status{}
		return nil
	}
	*s = v
	return nil
}

// JobType represents the employment kind of a position.
type JobType struct{ name string }

var (
	JobTypeInternship = JobType{"Internship"}
	JobTypeFullTime   = JobType{"Full-time"}
	JobTypeContract   = JobType{"Contract"}
)

// JobTypeValues returns all valid job types in display order.
func JobTypeValues() []JobType {
	return []JobType{JobTypeInternship, JobTypeFullTime, JobTypeContract}
}

// ParseJobType converts a string to JobType, case-insensitive
func ParseJobType(s string) (JobType, error) {
	for _, v := range JobTypeValues() {
		if strings.EqualFold(s, v.name) {
			return v, nil
		}
	}
	return JobType{}, fmt.Errorf("invalid job type: %q", s)
}

func (j JobType) String() string { return j.name }

// IsZero reports whether the job type is unset
func (j JobType) IsZero() bool { return j.name == "" }

// MarshalText implements encoding.TextMarshaler
func (j JobType) MarshalText() ([]byte, error) { return []byte(j.name), nil }

// UnmarshalText implements encoding.TextUnmarshaler
func (j *JobType) UnmarshalText(text []byte) error {
	v, err := ParseJobType(string(text))
	if err != nil {
		*j = JobType{}
		return nil
	}
	*j = v
	return nil
}

// Location represents the work arrangement of a position.
type Location struct{ name string }

var (
	LocationRemote = Location{"Remote"}
	LocationOnsite = Location{"Onsite"}
	LocationHybrid = Location{"Hybrid"}
)

// LocationValues returns all valid locations in display order.
func LocationValues() []Location {
	return []Location{LocationRemote, LocationOnsite, LocationHybrid}
}

// ParseLocation converts a string to Location, case-insensitive
func ParseLocation(s string) (Location, error) {
	for _, v := range LocationValues() {
		if strings.EqualFold(s, v.name) {
			return v, nil
		}
	}
	return Location{}, fmt.Errorf("invalid location: %q", s)
}

func (l Location) String() string { return l.name }

// IsZero reports whether the location is unset
func (l Location) IsZero() bool { return l.name == "" }

// MarshalText implements encoding.TextMarshaler
func (l Location) MarshalText() ([]byte, error) { return []byte(l.name), nil }

// UnmarshalText implements encoding.TextUnmarshaler
func (l *Location) UnmarshalText(text []byte) error {
	v, err := ParseLocation(string(text))
	if err != nil {
		*l = Location{}
		return nil
	}
	*l = v
	return nil
}

// SortMode represents list ordering by application date.
type SortMode struct{ name string }

var (
	SortModeNewest = SortMode{"newest"}
	SortModeOldest = SortMode{"oldest"}
)

// ParseSortMode converts a string to SortMode, defaulting to newest for
// empty input so an unset query parameter keeps the default ordering.
func ParseSortMode(s string) (SortMode, error) {
	switch {
	case s == "" || strings.EqualFold(s, SortModeNewest.name):
		return SortModeNewest, nil
	case strings.EqualFold(s, SortModeOldest.name):
		return SortModeOldest, nil
	}
	return SortMode{}, fmt.Errorf("invalid sort mode: %q", s)
}

func (m SortMode) String() string { return m.name }

// Theme represents the UI color theme.
type Theme struct{ name string }

var (
	ThemeLight = Theme{"light"}
	ThemeDark  = Theme{"dark"}
)

// ParseTheme converts a string to Theme, case-insensitive
func ParseTheme(s string) (Theme, error) {
	switch {
	case strings.EqualFold(s, ThemeLight.name):
		return ThemeLight, nil
	case strings.EqualFold(s, ThemeDark.name):
		return ThemeDark, nil
	}
	return Theme{}, fmt.Errorf("invalid theme: %q", s)
}

func (t Theme) String() string { return t.name }
