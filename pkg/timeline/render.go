package timeline

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"
)

const (
	nameColumn   = 20
	minBarColumn = 12

	// DefaultWidth is the number of bar columns used when none is given.
	DefaultWidth = 60
)

// Render draws l as text, one row per bar, with width columns for the bars.
func Render(w io.Writer, l Layout, width int) error {
	if width < minBarColumn {
		width = DefaultWidth
	}
	if l.Empty() {
		_, err := fmt.Fprintln(w, "No tasks to show. Create one to see the Gantt chart.")
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-*s %d - %d  (%s, %d days)\n", nameColumn, "Timeline", l.StartYear, l.EndYear, l.Mode, l.Span)
	fmt.Fprintf(&b, "%-*s %s\n", nameColumn, "", monthHeader(l.Months, width))
	for _, bar := range l.Bars {
		marker := ""
		if bar.Overdue {
			marker = " !"
		}
		fmt.Fprintf(&b, "%-*s %s %3d%%%s\n", nameColumn, truncate(bar.Task.Name, nameColumn), barLine(bar, width), bar.Task.Progress, marker)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// monthHeader spreads the month names evenly over width columns.
func monthHeader(months []MonthLabel, width int) string {
	if len(months) == 0 {
		return strings.Repeat(" ", width)
	}
	cell := width / len(months)
	if cell < 1 {
		cell = 1
	}
	var b strings.Builder
	for _, m := range months {
		b.WriteString(fit(m.Name, cell))
	}
	return fit(b.String(), width)
}

func barLine(bar Bar, width int) string {
	start := int(math.Round(bar.Offset / 100 * float64(width)))
	length := int(math.Round(bar.Width / 100 * float64(width)))
	if length == 0 && !bar.Inverted {
		length = 1
	}
	if start+length > width {
		start = width - length
	}
	filled := length * bar.Fill / 100

	cells := make([]rune, width)
	for i := range cells {
		switch {
		case i < start || i >= start+length:
			cells[i] = '·'
		case i < start+filled:
			cells[i] = '█'
		default:
			cells[i] = '░'
		}
	}
	return "|" + string(cells) + "|"
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

func fit(s string, n int) string {
	c := utf8.RuneCountInString(s)
	if c >= n {
		return string([]rune(s)[:n])
	}
	return s + strings.Repeat(" ", n-c)
}
