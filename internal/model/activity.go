package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type ActivityType string

const (
	ActivityChoreCreated   ActivityType = "chore_created"
	ActivityChoreUpdated   ActivityType = "chore_updated"
	ActivityChoreDeleted   ActivityType = "chore_deleted"
	ActivityChoreCompleted ActivityType = "chore_completed"
	ActivityUserJoined     ActivityType = "user_joined"
	ActivityUserLeft       ActivityType = "user_left"
	ActivityGroupCreated   ActivityType = "group_created"
)

// ActivityMetadata is the typed payload attached to an activity. Each
// ActivityType has exactly one payload type.
type ActivityMetadata interface {
	ActivityType() ActivityType
}

type ChoreCreatedMetadata struct {
	ChoreID     int64     `json:"chore_id"`
	Title       string    `json:"title"`
	Frequency   Frequency `json:"frequency"`
	NextDueDate time.Time `json:"next_due_date"`
}

type ChoreUpdatedMetadata struct {
	ChoreID int64    `json:"chore_id"`
	Title   string   `json:"title"`
	Fields  []string `json:"fields"`
}

type ChoreDeletedMetadata struct {
	ChoreID int64  `json:"chore_id"`
	Title   string `json:"title"`
}

type ChoreCompletedMetadata struct {
	ChoreID        int64     `json:"chore_id"`
	Title          string    `json:"title"`
	NextDueDate    time.Time `json:"next_due_date"`
	NextAssigneeID *int64    `json:"next_assignee_id,omitempty"`
}

type UserJoinedMetadata struct {
	Role Role `json:"role"`
}

type UserLeftMetadata struct {
	PromotedUserID *int64 `json:"promoted_user_id,omitempty"`
}

type GroupCreatedMetadata struct {
	Name string `json:"name"`
}

func (ChoreCreatedMetadata) ActivityType() ActivityType   { return ActivityChoreCreated }
func (ChoreUpdatedMetadata) ActivityType() ActivityType   { return ActivityChoreUpdated }
func (ChoreDeletedMetadata) ActivityType() ActivityType   { return ActivityChoreDeleted }
func (ChoreCompletedMetadata) ActivityType() ActivityType { return ActivityChoreCompleted }
func (UserJoinedMetadata) ActivityType() ActivityType     { return ActivityUserJoined }
func (UserLeftMetadata) ActivityType() ActivityType       { return ActivityUserLeft }
func (GroupCreatedMetadata) ActivityType() ActivityType   { return ActivityGroupCreated }

type Activity struct {
	ID          int64            `json:"id"`
	GroupID     int64            `json:"group_id"`
	UserID      int64            `json:"user_id"`
	UserName    string           `json:"user_name"`
	Type        ActivityType     `json:"type"`
	Description string           `json:"description"`
	Metadata    ActivityMetadata `json:"metadata"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NewActivity builds an activity whose type is taken from its payload.
func NewActivity(groupID, userID int64, description string, meta ActivityMetadata) Activity {
	return Activity{
		GroupID:     groupID,
		UserID:      userID,
		Type:        meta.ActivityType(),
		Description: description,
		Metadata:    meta,
	}
}

// DecodeActivityMetadata restores the payload stored for an activity of type t.
func DecodeActivityMetadata(t ActivityType, raw []byte) (ActivityMetadata, error) {
	var meta ActivityMetadata
	switch t {
	case ActivityChoreCreated:
		meta = &ChoreCreatedMetadata{}
	case ActivityChoreUpdated:
		meta = &ChoreUpdatedMetadata{}
	case ActivityChoreDeleted:
		meta = &ChoreDeletedMetadata{}
	case ActivityChoreCompleted:
		meta = &ChoreCompletedMetadata{}
	case ActivityUserJoined:
		meta = &UserJoinedMetadata{}
	case ActivityUserLeft:
		meta = &UserLeftMetadata{}
	case ActivityGroupCreated:
		meta = &GroupCreatedMetadata{}
	default:
		return nil, fmt.Errorf("unknown activity type: %q", t)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, meta); err != nil {
			return nil, fmt.Errorf("decode %s metadata: %w", t, err)
		}
	}
	return deref(meta), nil
}

func deref(meta ActivityMetadata) ActivityMetadata {
	switch m := meta.(type) {
	case *ChoreCreatedMetadata:
		return *m
	case *ChoreUpdatedMetadata:
		return *m
	case *ChoreDeletedMetadata:
		return *m
	case *ChoreCompletedMetadata:
		return *m
	case *UserJoinedMetadata:
		return *m
	case *UserLeftMetadata:
		return *m
	case *GroupCreatedMetadata:
		return *m
	}
	return meta
}
