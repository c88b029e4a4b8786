package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dukerupert/chorely/internal/model"
)

type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// insertActivity appends an activity using ex, which may be a transaction.
func insertActivity(ex execer, a model.Activity, at time.Time) (int64, error) {
	if a.Metadata == nil {
		return 0, fmt.Errorf("activity %s has no metadata", a.Type)
	}
	meta, err := json.Marshal(a.Metadata)
	if err != nil {
		return 0, fmt.Errorf("marshal activity metadata: %w", err)
	}

	result, err := ex.Exec(
		`INSERT INTO activities (group_id, user_id, type, description, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		a.GroupID, a.UserID, string(a.Metadata.ActivityType()), a.Description, string(meta), at.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert activity: %w", err)
	}
	return result.LastInsertId()
}

// ListByGroup returns a group's activities, most recent first.
func (s *ActivityStore) ListByGroup(groupID int64, limit int) ([]model.Activity, error) {
	rows, err := s.db.Query(
		`SELECT a.id, a.group_id, a.user_id, u.name, a.type, a.description, a.metadata, a.created_at
		 FROM activities a
		 JOIN users u ON u.id = a.user_id
		 WHERE a.group_id = ?
		 ORDER BY a.created_at DESC, a.id DESC
		 LIMIT ?`,
		groupID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var activities []model.Activity
	for rows.Next() {
		var a model.Activity
		var typ, meta string
		if err := rows.Scan(&a.ID, &a.GroupID, &a.UserID, &a.UserName, &typ, &a.Description, &meta, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Type = model.ActivityType(typ)
		a.Metadata, err = model.DecodeActivityMetadata(a.Type, []byte(meta))
		if err != nil {
			return nil, fmt.Errorf("activity %d: %w", a.ID, err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
