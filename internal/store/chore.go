package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/chorely/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

// ActivityFunc builds the activity logged alongside a chore write. It receives
// the chore as written, so generated fields such as the ID are available.
type ActivityFunc func(model.Chore) model.Activity

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var freq, assignment string
	var customInterval sql.NullInt64
	var lastCompleted sql.NullTime
	var assignedTo, modifiedBy sql.NullInt64

	err := scanner.Scan(
		&c.ID, &c.GroupID, &c.Title, &freq, &customInterval, &assignment,
		&c.IsActive, &c.NextDueDate, &lastCompleted, &assignedTo, &modifiedBy,
		&c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Frequency = model.Frequency(freq)
	c.AssignmentType = model.AssignmentType(assignment)
	if customInterval.Valid {
		n := int(customInterval.Int64)
		c.CustomInterval = &n
	}
	if lastCompleted.Valid {
		t := lastCompleted.Time
		c.LastCompletedAt = &t
	}
	c.AssignedUserID = int64Ptr(assignedTo)
	c.LastModifiedBy = int64Ptr(modifiedBy)
	return &c, nil
}

const choreCols = `id, group_id, title, frequency, custom_interval, assignment_type, is_active, next_due_date, last_completed_at, assigned_user_id, last_modified_by, version, created_at, updated_at`

func nullInterval(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func getChore(q execer, id int64) (*model.Chore, error) {
	c, err := scanChore(q.QueryRow(`SELECT `+choreCols+` FROM chores WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

// Create inserts c and the activity built by logFn in one transaction.
// CreatedAt is used for both timestamps.
func (s *ChoreStore) Create(c model.Chore, logFn ActivityFunc) (*model.Chore, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO chores (group_id, title, frequency, custom_interval, assignment_type, is_active, next_due_date, assigned_user_id, last_modified_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.GroupID, c.Title, string(c.Frequency), nullInterval(c.CustomInterval), string(c.AssignmentType),
		c.IsActive, c.NextDueDate.UTC(), nullInt64(c.AssignedUserID), nullInt64(c.LastModifiedBy),
		c.CreatedAt.UTC(), c.CreatedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	created, err := getChore(tx, id)
	if err != nil {
		return nil, err
	}
	if logFn != nil {
		if _, err := insertActivity(tx, logFn(*created), c.CreatedAt); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

func (s *ChoreStore) GetByID(id int64) (*model.Chore, error) {
	return getChore(s.db, id)
}

func (s *ChoreStore) queryChores(query string, args ...any) ([]model.Chore, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

// ListByGroup returns a group's chores, newest first. Inactive chores are
// included only when includeInactive is set.
func (s *ChoreStore) ListByGroup(groupID int64, includeInactive bool) ([]model.Chore, error) {
	return s.queryChores(
		`SELECT `+choreCols+` FROM chores
		 WHERE group_id = ? AND (is_active = 1 OR ?)
		 ORDER BY created_at DESC, id DESC`,
		groupID, includeInactive,
	)
}

// ListForMember returns the active chores of every group userID belongs to,
// newest first.
func (s *ChoreStore) ListForMember(userID int64) ([]model.Chore, error) {
	return s.queryChores(
		`SELECT `+choreCols+` FROM chores
		 WHERE is_active = 1 AND group_id IN (SELECT group_id FROM memberships WHERE user_id = ?)
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
}

// Update writes every mutable field of c if its version still matches the
// stored one, and logs the activity built by logFn. It returns ErrStale when
// the chore changed since c was read.
func (s *ChoreStore) Update(c model.Chore, now time.Time, logFn ActivityFunc) (*model.Chore, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE chores SET title = ?, frequency = ?, custom_interval = ?, assignment_type = ?, is_active = ?,
		   next_due_date = ?, assigned_user_id = ?, last_modified_by = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		c.Title, string(c.Frequency), nullInterval(c.CustomInterval), string(c.AssignmentType), c.IsActive,
		c.NextDueDate.UTC(), nullInt64(c.AssignedUserID), nullInt64(c.LastModifiedBy), now.UTC(),
		c.ID, c.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return nil, ErrStale
	}

	updated, err := getChore(tx, c.ID)
	if err != nil {
		return nil, err
	}
	if logFn != nil {
		if _, err := insertActivity(tx, logFn(*updated), now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

// Delete removes a chore and its completion history, logging the activity
// built by logFn from the chore as it was. It returns ErrChoreNotFound when
// the row is already gone.
func (s *ChoreStore) Delete(c model.Chore, now time.Time, logFn ActivityFunc) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`DELETE FROM chores WHERE id = ?`, c.ID)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return ErrChoreNotFound
	}
	if logFn != nil {
		if _, err := insertActivity(tx, logFn(c), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// --- Completion methods ---

// Completion describes a completion to record against a chore.
type Completion struct {
	ChoreID     int64
	Version     int64
	UserID      int64
	CompletedAt time.Time
	NextDueDate time.Time
	// Assignee is written only when Reassign is set.
	Reassign bool
	Assignee *int64
}

func scanCompletion(scanner interface{ Scan(...any) error }) (*model.ChoreCompletion, error) {
	var c model.ChoreCompletion
	err := scanner.Scan(&c.ID, &c.ChoreID, &c.UserID, &c.CompletedAt, &c.NextDueDate)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const completionCols = `id, chore_id, user_id, completed_at, next_due_date`

// Complete advances the chore, records a completion row and logs the
// activity built by logFn, all in one transaction. It returns ErrStale when
// the chore changed since it was read.
func (s *ChoreStore) Complete(p Completion, logFn ActivityFunc) (*model.Chore, *model.ChoreCompletion, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE chores SET next_due_date = ?, last_completed_at = ?, last_modified_by = ?, version = version + 1, updated_at = ?`
	args := []any{p.NextDueDate.UTC(), p.CompletedAt.UTC(), p.UserID, p.CompletedAt.UTC()}
	if p.Reassign {
		query += `, assigned_user_id = ?`
		args = append(args, nullInt64(p.Assignee))
	}
	query += ` WHERE id = ? AND version = ? AND is_active = 1`
	args = append(args, p.ChoreID, p.Version)

	result, err := tx.Exec(query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("advance chore: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, nil, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return nil, nil, ErrStale
	}

	res, err := tx.Exec(
		`INSERT INTO chore_completions (chore_id, user_id, completed_at, next_due_date) VALUES (?, ?, ?, ?)`,
		p.ChoreID, p.UserID, p.CompletedAt.UTC(), p.NextDueDate.UTC(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("insert completion: %w", err)
	}
	completionID, err := res.LastInsertId()
	if err != nil {
		return nil, nil, fmt.Errorf("last insert id: %w", err)
	}

	updated, err := getChore(tx, p.ChoreID)
	if err != nil {
		return nil, nil, err
	}
	completion, err := scanCompletion(tx.QueryRow(`SELECT `+completionCols+` FROM chore_completions WHERE id = ?`, completionID))
	if err != nil {
		return nil, nil, fmt.Errorf("read completion: %w", err)
	}

	if logFn != nil {
		if _, err := insertActivity(tx, logFn(*updated), p.CompletedAt); err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return updated, completion, nil
}

// ListCompletions returns a chore's completion history, most recent first.
func (s *ChoreStore) ListCompletions(choreID int64, limit int) ([]model.ChoreCompletion, error) {
	rows, err := s.db.Query(
		`SELECT `+completionCols+` FROM chore_completions WHERE chore_id = ? ORDER BY completed_at DESC, id DESC LIMIT ?`,
		choreID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var completions []model.ChoreCompletion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}
