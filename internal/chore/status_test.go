package chore

import (
	"testing"
	"time"

	"github.com/dukerupert/chorely/internal/model"
)

func TestClassifyDueStatus(t *testing.T) {
	now := time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		due   time.Time
		want  Status
		days  int
		label string
	}{
		{"today early", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), StatusToday, 0, "Today"},
		{"today late", time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC), StatusToday, 0, "Today"},
		{"tomorrow", time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC), StatusTomorrow, 1, "Tomorrow"},
		{"future", time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC), StatusFuture, 5, "In 5 days"},
		{"yesterday", time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC), StatusOverdue, -1, "1 day overdue"},
		{"long overdue", time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC), StatusOverdue, -10, "10 days overdue"},
		{"next year", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), StatusFuture, 365, "In 365 days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyDueStatus(tt.due, now)
			if got.Status != tt.want {
				t.Errorf("status = %q, want %q", got.Status, tt.want)
			}
			if got.Days != tt.days {
				t.Errorf("days = %d, want %d", got.Days, tt.days)
			}
			if got.Label != tt.label {
				t.Errorf("label = %q, want %q", got.Label, tt.label)
			}
		})
	}
}

func TestClassifyDueStatusTodayAnyHour(t *testing.T) {
	due := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	for h := range 24 {
		now := time.Date(2024, 3, 10, h, 15, 0, 0, time.UTC)
		if got := ClassifyDueStatus(due, now); got.Status != StatusToday {
			t.Errorf("at %02d:15 status = %q, want today", h, got.Status)
		}
	}
}

func TestClassifyDueStatusIsPure(t *testing.T) {
	due := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)
	now := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
	first := ClassifyDueStatus(due, now)
	second := ClassifyDueStatus(due, now)
	if first != second {
		t.Errorf("classification changed between calls: %+v vs %+v", first, second)
	}
}

func TestClassifyDueStatusUsesNowLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 02:00 UTC on the 11th is still the evening of the 10th in New York.
	due := time.Date(2024, 3, 11, 2, 0, 0, 0, time.UTC)
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, loc)

	if got := ClassifyDueStatus(due, now); got.Status != StatusToday {
		t.Errorf("status = %q, want today", got.Status)
	}
	if got := ClassifyDueStatus(due, now.In(time.UTC)); got.Status != StatusTomorrow {
		t.Errorf("in UTC status = %q, want tomorrow", got.Status)
	}
}

func TestClassifyDueStatusAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// Clocks spring forward on 2024-03-10, making that day 23 hours long.
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, loc)
	due := time.Date(2024, 3, 12, 0, 30, 0, 0, loc)

	got := ClassifyDueStatus(due, now)
	if got.Days != 3 {
		t.Errorf("days = %d, want 3", got.Days)
	}
}

func TestWithStatus(t *testing.T) {
	interval := 2
	c := model.Chore{
		Frequency:      model.FrequencyWeekly,
		CustomInterval: &interval,
		NextDueDate:    time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC),
	}
	got := WithStatus(c, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	if got.Schedule != "Every 2 weeks" {
		t.Errorf("schedule = %q, want %q", got.Schedule, "Every 2 weeks")
	}
	if got.Due.Status != StatusTomorrow {
		t.Errorf("due status = %q, want tomorrow", got.Due.Status)
	}
}
