package model

import "time"

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

type AssignmentType string

const (
	AssignmentSingle      AssignmentType = "single"
	AssignmentAlternating AssignmentType = "alternating"
)

type Chore struct {
	ID              int64          `json:"id"`
	GroupID         int64          `json:"group_id"`
	Title           string         `json:"title"`
	Frequency       Frequency      `json:"frequency"`
	CustomInterval  *int           `json:"custom_interval"`
	AssignmentType  AssignmentType `json:"assignment_type"`
	IsActive        bool           `json:"is_active"`
	NextDueDate     time.Time      `json:"next_due_date"`
	LastCompletedAt *time.Time     `json:"last_completed_at"`
	AssignedUserID  *int64         `json:"assigned_user_id"`
	LastModifiedBy  *int64         `json:"last_modified_by"`
	Version         int64          `json:"version"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Interval returns the frequency multiplier, treating a missing value as 1.
func (c Chore) Interval() int {
	if c.CustomInterval == nil || *c.CustomInterval < 1 {
		return 1
	}
	return *c.CustomInterval
}

type ChoreCompletion struct {
	ID          int64     `json:"id"`
	ChoreID     int64     `json:"chore_id"`
	UserID      int64     `json:"user_id"`
	CompletedAt time.Time `json:"completed_at"`
	NextDueDate time.Time `json:"next_due_date"`
}
