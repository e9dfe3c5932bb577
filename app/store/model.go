package store

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/apptrack/apptrack/app/store/enums"
)

// ErrValidation marks input rejections so callers can tell them apart
// from persistence failures
var ErrValidation = errors.New("invalid input")

const dateLayout = "2006-01-02"

// Date is a calendar date without a time component. It marshals as
// YYYY-MM-DD and compares at day granularity.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// DateOf truncates t to its calendar day in t's location
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// SameDay reports whether both dates fall on the same calendar day
func (d Date) SameDay(other Date) bool {
	return d.Year() == other.Year() && d.YearDay() == other.YearDay()
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// JobApplication is a single tracked application record
type JobApplication struct {
	ID        string         `json:"id"`
	Company   string         `json:"company"`
	Role      string         `json:"role"`
	JobType   enums.JobType  `json:"jobType"`
	Location  enums.Location `json:"location"`
	AppliedOn Date           `json:"applicationDate"`
	Status    enums.Status   `json:"status"`
	JobLink   string         `json:"jobLink,omitempty"`
	Notes     string         `json:"notes,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// JobInput holds the mutable fields of a record as collected from the
// caller. It is validated before any store operation accepts it.
type JobInput struct {
	Company   string         `json:"company"`
	Role      string         `json:"role"`
	JobType   enums.JobType  `json:"jobType"`
	Location  enums.Location `json:"location"`
	AppliedOn Date           `json:"applicationDate"`
	Status    enums.Status   `json:"status"`
	JobLink   string         `json:"jobLink"`
	Notes     string         `json:"notes"`
}

// Validate checks required fields and the optional link URL
func (in JobInput) Validate() error {
	if strings.TrimSpace(in.Company) == "" {
		return fmt.Errorf("company is required: %w", ErrValidation)
	}
	if strings.TrimSpace(in.Role) == "" {
		return fmt.Errorf("role is required: %w", ErrValidation)
	}
	if in.JobType.IsZero() {
		return fmt.Errorf("job type is required: %w", ErrValidation)
	}
	if in.Location.IsZero() {
		return fmt.Errorf("location is required: %w", ErrValidation)
	}
	if in.AppliedOn.IsZero() {
		return fmt.Errorf("application date is required: %w", ErrValidation)
	}
	if in.Status.IsZero() {
		return fmt.Errorf("status is required: %w", ErrValidation)
	}
	if in.JobLink != "" {
		u, err := url.Parse(in.JobLink)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("job link %q is not a valid absolute URL: %w", in.JobLink, ErrValidation)
		}
	}
	return nil
}
