package timeline

import (
	"fmt"
	"time"

	"github.com/harrisonrobin/gantta/pkg/model"
)

// Locale selects the month names used in labels.
type Locale string

const (
	Spanish Locale = "es"
	English Locale = "en"

	DefaultLocale = Spanish
)

// MonthsShown is the number of header labels.
const MonthsShown = 12

var shortMonths = map[Locale][12]string{
	Spanish: {"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"},
	English: {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
}

func ParseLocale(s string) (Locale, error) {
	switch Locale(s) {
	case "":
		return DefaultLocale, nil
	case Spanish, English:
		return Locale(s), nil
	}
	return "", fmt.Errorf("unsupported locale %q (want es or en)", s)
}

// MonthLabel is one column of the timeline header. Year is shown under
// January only.
type MonthLabel struct {
	Date     model.Date `json:"date"`
	Name     string     `json:"name"`
	Year     int        `json:"year"`
	ShowYear bool       `json:"show_year"`
}

// MonthLabels starts one month before minStart and advances one calendar
// month at a time. Each step is applied to the previous date, so a day of
// month that does not exist rolls into the next month and stays shifted.
func MonthLabels(minStart model.Date, locale Locale) []MonthLabel {
	names, ok := shortMonths[locale]
	if !ok {
		names = shortMonths[DefaultLocale]
	}
	labels := make([]MonthLabel, 0, MonthsShown)
	current := minStart.AddDate(0, -1, 0)
	for i := 0; i < MonthsShown; i++ {
		labels = append(labels, MonthLabel{
			Date:     model.DateOf(current),
			Name:     names[current.Month()-1],
			Year:     current.Year(),
			ShowYear: current.Month() == time.January,
		})
		current = current.AddDate(0, 1, 0)
	}
	return labels
}
