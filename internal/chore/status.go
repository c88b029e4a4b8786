package chore

import (
	"fmt"
	"time"

	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/recurrence"
)

type Status string

const (
	StatusToday    Status = "today"
	StatusTomorrow Status = "tomorrow"
	StatusFuture   Status = "future"
	StatusOverdue  Status = "overdue"
)

// DueStatus describes when a chore is due relative to now. Days is the
// number of calendar days until the due date and is negative when overdue.
type DueStatus struct {
	Status Status `json:"status"`
	Days   int    `json:"days"`
	Label  string `json:"label"`
}

type ChoreWithStatus struct {
	model.Chore
	Due      DueStatus `json:"due"`
	Schedule string    `json:"schedule"`
}

// ClassifyDueStatus compares calendar days in now's location, so any time on
// the due day counts as today.
func ClassifyDueStatus(nextDue, now time.Time) DueStatus {
	days := calendarDaysBetween(now, nextDue.In(now.Location()))

	switch {
	case days < 0:
		n := -days
		if n == 1 {
			return DueStatus{Status: StatusOverdue, Days: days, Label: "1 day overdue"}
		}
		return DueStatus{Status: StatusOverdue, Days: days, Label: fmt.Sprintf("%d days overdue", n)}
	case days == 0:
		return DueStatus{Status: StatusToday, Days: 0, Label: "Today"}
	case days == 1:
		return DueStatus{Status: StatusTomorrow, Days: 1, Label: "Tomorrow"}
	default:
		return DueStatus{Status: StatusFuture, Days: days, Label: fmt.Sprintf("In %d days", days)}
	}
}

// WithStatus attaches the due status and a readable schedule to c.
func WithStatus(c model.Chore, now time.Time) ChoreWithStatus {
	return ChoreWithStatus{
		Chore:    c,
		Due:      ClassifyDueStatus(c.NextDueDate, now),
		Schedule: recurrence.Describe(c.Frequency, c.Interval()),
	}
}

// calendarDaysBetween counts date boundaries from a to b. Both dates are
// projected onto UTC midnights so DST transitions do not skew the count.
func calendarDaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
