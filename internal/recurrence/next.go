package recurrence

import (
	"time"

	"github.com/dukerupert/chorely/internal/model"
)

// NextDueDate returns the due date one recurrence step after base. Intervals
// below 1 are treated as 1 and unknown frequencies as daily. The result keeps
// base's time of day and location and is always strictly after base.
func NextDueDate(freq model.Frequency, interval int, base time.Time) time.Time {
	interval = NormalizeInterval(interval)

	switch freq {
	case model.FrequencyWeekly:
		return base.AddDate(0, 0, 7*interval)
	case model.FrequencyMonthly:
		return addMonths(base, interval)
	default:
		return base.AddDate(0, 0, interval)
	}
}

// addMonths moves t forward n calendar months, clamping the day to the last
// day of the target month (Jan 31 + 1 month = Feb 28 or 29).
func addMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())

	lastDay := daysInMonth(first.Year(), first.Month())
	if day > lastDay {
		day = lastDay
	}

	return time.Date(
		first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(),
		t.Location(),
	)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
