package recurrence

import (
	"fmt"
	"strings"

	"github.com/dukerupert/chorely/internal/model"
)

var freqFromName = map[string]model.Frequency{
	"daily":   model.FrequencyDaily,
	"weekly":  model.FrequencyWeekly,
	"monthly": model.FrequencyMonthly,
}

var unitNames = map[model.Frequency][2]string{
	model.FrequencyDaily:   {"day", "days"},
	model.FrequencyWeekly:  {"week", "weeks"},
	model.FrequencyMonthly: {"month", "months"},
}

// ParseFrequency accepts a frequency name, case-insensitively.
func ParseFrequency(s string) (model.Frequency, error) {
	f, ok := freqFromName[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown frequency: %q", s)
	}
	return f, nil
}

// NormalizeInterval maps a missing or non-positive interval to 1.
func NormalizeInterval(interval int) int {
	if interval <= 1 {
		return 1
	}
	return interval
}

// Describe returns a human-readable description of a frequency.
func Describe(freq model.Frequency, interval int) string {
	interval = NormalizeInterval(interval)
	units, ok := unitNames[freq]
	if !ok {
		units = unitNames[model.FrequencyDaily]
	}
	if interval == 1 {
		switch freq {
		case model.FrequencyWeekly:
			return "Weekly"
		case model.FrequencyMonthly:
			return "Monthly"
		}
		return "Daily"
	}
	return fmt.Sprintf("Every %d %s", interval, units[1])
}
