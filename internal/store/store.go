package store

import (
	"database/sql"
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrJoinCodeTaken is returned when a generated join code collides with an existing group.
	ErrJoinCodeTaken = errors.New("join code already in use")
	// ErrAlreadyMember is returned when a membership for (user, group) already exists.
	ErrAlreadyMember = errors.New("already a member")
	// ErrNotMember is returned when removing a membership that does not exist.
	ErrNotMember = errors.New("not a member")
	// ErrStale is returned when a chore changed between read and write.
	ErrStale = errors.New("stale chore version")
	// ErrChoreNotFound is returned when deleting a chore that no longer exists.
	ErrChoreNotFound = errors.New("chore not found")
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE"))
	}
	return false
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
