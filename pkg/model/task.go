package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

var (
	ErrEmptyName          = errors.New("task name must not be empty")
	ErrMissingDate        = errors.New("task start and end dates are required")
	ErrInvalidRange       = errors.New("task end date is before its start date")
	ErrProgressOutOfRange = errors.New("task progress must be between 0 and 100")
)

// Date is a calendar day without time-of-day or zone. It is stored as UTC
// midnight and serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate returns the Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current local calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses YYYY-MM-DD. An RFC 3339 timestamp is accepted too and only
// its date part is kept. The empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t.UTC()), nil
	}
	return Date{}, fmt.Errorf("failed to parse date %q: expected YYYY-MM-DD", s)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// Before reports whether d is an earlier day than o.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

// After reports whether d is a later day than o.
func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

// Equal reports whether d and o are the same day.
func (d Date) Equal(o Date) bool { return d.Time.Equal(o.Time) }

// MarshalText implements encoding.TextMarshaler, used by the yaml and toml encoders.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON overrides the RFC 3339 form promoted from time.Time.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for Date.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("failed to decode date: %w", err)
	}
	return d.UnmarshalText([]byte(s))
}

// Task is a named work item drawn as one bar on the timeline.
type Task struct {
	ID       string `json:"id" yaml:"id" toml:"id"`
	Name     string `json:"name" yaml:"name" toml:"name"`
	Start    Date   `json:"start" yaml:"start" toml:"start"`
	End      Date   `json:"end" yaml:"end" toml:"end"`
	Progress int    `json:"progress" yaml:"progress" toml:"progress"`
}

// UnmarshalJSON accepts both the current keys and the legacy ones written by
// the browser version of the app (nombre, comienzo, final, progreso).
func (t *Task) UnmarshalJSON(b []byte) error {
	type plain Task
	var raw struct {
		plain
		Name     *string `json:"name"`
		Start    *Date   `json:"start"`
		End      *Date   `json:"end"`
		Progress *int    `json:"progress"`
		Nombre   *string `json:"nombre"`
		Comienzo *Date   `json:"comienzo"`
		Final    *Date   `json:"final"`
		Progreso *int    `json:"progreso"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	out := Task{ID: raw.ID}
	switch {
	case raw.Name != nil:
		out.Name = *raw.Name
	case raw.Nombre != nil:
		out.Name = *raw.Nombre
	}
	switch {
	case raw.Start != nil:
		out.Start = *raw.Start
	case raw.Comienzo != nil:
		out.Start = *raw.Comienzo
	}
	switch {
	case raw.End != nil:
		out.End = *raw.End
	case raw.Final != nil:
		out.End = *raw.Final
	}
	switch {
	case raw.Progress != nil:
		out.Progress = *raw.Progress
	case raw.Progreso != nil:
		out.Progress = *raw.Progreso
	}
	*t = out
	return nil
}

// HasDates reports whether both start and end are set.
func (t Task) HasDates() bool {
	return !t.Start.IsZero() && !t.End.IsZero()
}

// Done reports whether the task is fully complete.
func (t Task) Done() bool {
	return t.Progress >= 100
}

// Validate checks a task coming in from a user-facing boundary.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if !t.HasDates() {
		return ErrMissingDate
	}
	if t.End.Before(t.Start) {
		return ErrInvalidRange
	}
	if t.Progress < 0 || t.Progress > 100 {
		return ErrProgressOutOfRange
	}
	return nil
}

// NewID returns a fresh task identifier.
func NewID() string {
	return uuid.NewString()
}
