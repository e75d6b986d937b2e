// Package timeline turns a task collection into Gantt geometry: the visible
// date span, each bar's offset and width as percentages of it, and the month
// header labels.
package timeline

import (
	"fmt"
	"math"
	"strings"

	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/overdue"
)

// ViewMode is the display resolution. It does not change the geometry.
type ViewMode string

const (
	HalfDay ViewMode = "half-day"
	Day     ViewMode = "day"
	Week    ViewMode = "week"
	Month   ViewMode = "month"

	DefaultMode = Week
)

var modeAliases = map[string]ViewMode{
	"half-day":  HalfDay,
	"halfday":   HalfDay,
	"medio-dia": HalfDay,
	"day":       Day,
	"dia":       Day,
	"week":      Week,
	"semana":    Week,
	"month":     Month,
	"mes":       Month,
}

// ParseViewMode accepts the English names and their Spanish equivalents.
// The empty string yields DefaultMode.
func ParseViewMode(s string) (ViewMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultMode, nil
	}
	if m, ok := modeAliases[s]; ok {
		return m, nil
	}
	return "", fmt.Errorf("unknown view mode %q (want half-day, day, week or month)", s)
}

// Bar is the geometry of one task. Offset and Width are percentages of the
// total span; Fill is the progress clamped to [0,100].
type Bar struct {
	Task     model.Task `json:"task"`
	Duration int        `json:"duration"`
	Offset   float64    `json:"offset"`
	Width    float64    `json:"width"`
	Fill     int        `json:"fill"`
	Overdue  bool       `json:"overdue"`
	Inverted bool       `json:"inverted"`
}

// Layout is everything a renderer needs to draw the chart.
type Layout struct {
	Mode      ViewMode     `json:"mode"`
	MinStart  model.Date   `json:"min_start"`
	MaxEnd    model.Date   `json:"max_end"`
	Span      int          `json:"span"`
	StartYear int          `json:"start_year"`
	EndYear   int          `json:"end_year"`
	Bars      []Bar        `json:"bars"`
	Months    []MonthLabel `json:"months"`
}

// Empty reports whether there is nothing to draw.
func (l Layout) Empty() bool { return len(l.Bars) == 0 }

// Duration is the number of days from start to end, rounded up. It is
// negative when end is before start.
func Duration(start, end model.Date) int {
	return int(math.Ceil(end.Sub(start.Time).Hours() / 24))
}

// MinStart returns the earliest start, or today when tasks is empty.
func MinStart(tasks []model.Task, today model.Date) model.Date {
	if len(tasks) == 0 {
		return today
	}
	earliest := tasks[0].Start
	for _, t := range tasks[1:] {
		if t.Start.Before(earliest) {
			earliest = t.Start
		}
	}
	return earliest
}

// MaxEnd returns the latest end, or today when tasks is empty.
func MaxEnd(tasks []model.Task, today model.Date) model.Date {
	if len(tasks) == 0 {
		return today
	}
	latest := tasks[0].End
	for _, t := range tasks[1:] {
		if t.End.After(latest) {
			latest = t.End
		}
	}
	return latest
}

// Drawable returns the tasks that have both dates set.
func Drawable(tasks []model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.HasDates() {
			out = append(out, t)
		}
	}
	return out
}

// Compute lays out tasks for mode. Tasks without dates are skipped.
func Compute(tasks []model.Task, mode ViewMode, today model.Date, locale Locale) Layout {
	if mode == "" {
		mode = DefaultMode
	}
	drawable := Drawable(tasks)
	minStart := MinStart(drawable, today)
	maxEnd := MaxEnd(drawable, today)
	span := Duration(minStart, maxEnd)

	layout := Layout{
		Mode:      mode,
		MinStart:  minStart,
		MaxEnd:    maxEnd,
		Span:      span,
		StartYear: minStart.Year(),
		EndYear:   maxEnd.Year(),
		Bars:      make([]Bar, 0, len(drawable)),
		Months:    MonthLabels(minStart, locale),
	}

	for _, t := range drawable {
		d := Duration(t.Start, t.End)
		offset, width := geometry(Duration(minStart, t.Start), d, span)
		layout.Bars = append(layout.Bars, Bar{
			Task:     t,
			Duration: d,
			Offset:   offset,
			Width:    width,
			Fill:     clampInt(t.Progress, 0, 100),
			Overdue:  overdue.IsOverdue(t, today),
			Inverted: d < 0,
		})
	}
	return layout
}

// geometry converts day counts to percentages of span. A span of zero or
// less has no meaningful scale, so every bar takes the full width.
func geometry(offsetDays, durationDays, span int) (offset, width float64) {
	if span <= 0 {
		return 0, 100
	}
	offset = clamp(100*float64(offsetDays)/float64(span), 0, 100)
	width = clamp(100*float64(durationDays)/float64(span), 0, 100-offset)
	return offset, width
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
