package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/chorely/internal/model"
)

type GroupStore struct {
	db *sql.DB
}

func NewGroupStore(db *sql.DB) *GroupStore {
	return &GroupStore{db: db}
}

func scanGroup(scanner interface{ Scan(...any) error }) (*model.Group, error) {
	var g model.Group
	err := scanner.Scan(&g.ID, &g.Name, &g.JoinCode, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func scanMembership(scanner interface{ Scan(...any) error }) (*model.Membership, error) {
	var m model.Membership
	var role string
	err := scanner.Scan(&m.ID, &m.GroupID, &m.UserID, &role, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.Role = model.Role(role)
	return &m, nil
}

const groupCols = `id, name, join_code, created_at, updated_at`
const membershipCols = `id, group_id, user_id, role, created_at`

// Create inserts a group with its creator as admin and logs the creation.
// It returns ErrJoinCodeTaken if joinCode is already used.
func (s *GroupStore) Create(name, joinCode string, creatorID int64, now time.Time, description string) (*model.Group, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO chore_groups (name, join_code, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		name, joinCode, now.UTC(), now.UTC(),
	)
	if isUniqueViolation(err) {
		return nil, ErrJoinCodeTaken
	}
	if err != nil {
		return nil, fmt.Errorf("insert group: %w", err)
	}
	groupID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO memberships (group_id, user_id, role, created_at) VALUES (?, ?, ?, ?)`,
		groupID, creatorID, string(model.RoleAdmin), now.UTC(),
	); err != nil {
		return nil, fmt.Errorf("insert creator membership: %w", err)
	}

	activity := model.NewActivity(groupID, creatorID, description, model.GroupCreatedMetadata{Name: name})
	if _, err := insertActivity(tx, activity, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(groupID)
}

func (s *GroupStore) GetByID(id int64) (*model.Group, error) {
	row := s.db.QueryRow(`SELECT `+groupCols+` FROM chore_groups WHERE id = ?`, id)
	g, err := scanGroup(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

// GetByJoinCode looks up a group by its normalized join code.
func (s *GroupStore) GetByJoinCode(code string) (*model.Group, error) {
	row := s.db.QueryRow(`SELECT `+groupCols+` FROM chore_groups WHERE join_code = ?`, code)
	g, err := scanGroup(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get group by join code: %w", err)
	}
	return g, nil
}

func (s *GroupStore) ListForUser(userID int64) ([]model.Group, error) {
	rows, err := s.db.Query(
		`SELECT g.id, g.name, g.join_code, g.created_at, g.updated_at
		 FROM chore_groups g
		 JOIN memberships m ON g.id = m.group_id
		 WHERE m.user_id = ?
		 ORDER BY m.created_at ASC, g.id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list groups for user: %w", err)
	}
	defer rows.Close()

	var groups []model.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, *g)
	}
	return groups, rows.Err()
}

// --- Membership methods ---

func (s *GroupStore) GetMember(groupID, userID int64) (*model.Membership, error) {
	row := s.db.QueryRow(
		`SELECT `+membershipCols+` FROM memberships WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	)
	m, err := scanMembership(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// ListMembers returns a group's members in join order.
func (s *GroupStore) ListMembers(groupID int64) ([]model.MemberWithUser, error) {
	rows, err := s.db.Query(
		`SELECT m.id, m.group_id, m.user_id, m.role, m.created_at, u.name, u.email, u.image
		 FROM memberships m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.group_id = ?
		 ORDER BY m.created_at ASC, m.id ASC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.MemberWithUser
	for rows.Next() {
		var m model.MemberWithUser
		var role string
		if err := rows.Scan(&m.ID, &m.GroupID, &m.UserID, &role, &m.CreatedAt, &m.Name, &m.Email, &m.Image); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.Role = model.Role(role)
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddMember inserts a membership and logs the join. It returns
// ErrAlreadyMember if the user already belongs to the group.
func (s *GroupStore) AddMember(groupID, userID int64, role model.Role, now time.Time, description string) (*model.Membership, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO memberships (group_id, user_id, role, created_at) VALUES (?, ?, ?, ?)`,
		groupID, userID, string(role), now.UTC(),
	)
	if isUniqueViolation(err) {
		return nil, ErrAlreadyMember
	}
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	activity := model.NewActivity(groupID, userID, description, model.UserJoinedMetadata{Role: role})
	if _, err := insertActivity(tx, activity, now); err != nil {
		return nil, err
	}

	m, err := scanMembership(tx.QueryRow(`SELECT `+membershipCols+` FROM memberships WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("read member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return m, nil
}

// LeaveResult describes the side effects of removing a membership.
type LeaveResult struct {
	GroupDeleted   bool
	PromotedUserID *int64
}

// HandoffFunc picks who takes over a leaver's alternating chores. members
// holds the group's user IDs in join order, leaver included.
type HandoffFunc func(members []int64, leaver int64) *int64

// RemoveMember deletes a membership in one transaction. The leaver's single
// chores in the group become unassigned and alternating ones pass to the
// member chosen by handoff from the membership read inside the transaction;
// a nil handoff unassigns them. If no admin remains, the longest-standing
// member is promoted. If no member remains, the group is deleted along with
// its chores and activities.
func (s *GroupStore) RemoveMember(groupID, userID int64, handoff HandoffFunc, now time.Time, description string) (LeaveResult, error) {
	var res LeaveResult

	tx, err := s.db.Begin()
	if err != nil {
		return res, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var handoffTo *int64
	if handoff != nil {
		members, err := memberIDs(tx, groupID)
		if err != nil {
			return res, err
		}
		handoffTo = handoff(members, userID)
	}

	result, err := tx.Exec(
		`DELETE FROM memberships WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	)
	if err != nil {
		return res, fmt.Errorf("remove member: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return res, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return res, ErrNotMember
	}

	var remaining int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM memberships WHERE group_id = ?`, groupID).Scan(&remaining); err != nil {
		return res, fmt.Errorf("count members: %w", err)
	}

	if remaining == 0 {
		if _, err := tx.Exec(`DELETE FROM chore_groups WHERE id = ?`, groupID); err != nil {
			return res, fmt.Errorf("delete group: %w", err)
		}
		res.GroupDeleted = true
		return res, tx.Commit()
	}

	if _, err := tx.Exec(
		`UPDATE chores SET assigned_user_id = NULL, version = version + 1, updated_at = ?
		 WHERE group_id = ? AND assigned_user_id = ? AND assignment_type = ?`,
		now.UTC(), groupID, userID, string(model.AssignmentSingle),
	); err != nil {
		return res, fmt.Errorf("unassign single chores: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE chores SET assigned_user_id = ?, version = version + 1, updated_at = ?
		 WHERE group_id = ? AND assigned_user_id = ? AND assignment_type = ?`,
		nullInt64(handoffTo), now.UTC(), groupID, userID, string(model.AssignmentAlternating),
	); err != nil {
		return res, fmt.Errorf("hand off alternating chores: %w", err)
	}

	var admins int
	if err := tx.QueryRow(
		`SELECT COUNT(*) FROM memberships WHERE group_id = ? AND role = ?`,
		groupID, string(model.RoleAdmin),
	).Scan(&admins); err != nil {
		return res, fmt.Errorf("count admins: %w", err)
	}
	if admins == 0 {
		var promoted int64
		if err := tx.QueryRow(
			`SELECT user_id FROM memberships WHERE group_id = ? ORDER BY created_at ASC, id ASC LIMIT 1`,
			groupID,
		).Scan(&promoted); err != nil {
			return res, fmt.Errorf("find successor: %w", err)
		}
		if _, err := tx.Exec(
			`UPDATE memberships SET role = ? WHERE group_id = ? AND user_id = ?`,
			string(model.RoleAdmin), groupID, promoted,
		); err != nil {
			return res, fmt.Errorf("promote member: %w", err)
		}
		res.PromotedUserID = &promoted
	}

	activity := model.NewActivity(groupID, userID, description, model.UserLeftMetadata{PromotedUserID: res.PromotedUserID})
	if _, err := insertActivity(tx, activity, now); err != nil {
		return res, err
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

func memberIDs(tx *sql.Tx, groupID int64) ([]int64, error) {
	rows, err := tx.Query(
		`SELECT user_id FROM memberships WHERE group_id = ? ORDER BY created_at ASC, id ASC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list member ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
