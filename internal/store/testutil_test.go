package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/dukerupert/chorely/internal/database"
	"github.com/dukerupert/chorely/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var testNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func mustUser(t *testing.T, db *sql.DB, email, name string) *model.User {
	t.Helper()
	u, err := NewUserStore(db).Create(email, name, "")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func mustGroup(t *testing.T, db *sql.DB, name, code string, creatorID int64) *model.Group {
	t.Helper()
	g, err := NewGroupStore(db).Create(name, code, creatorID, testNow, "created "+name)
	if err != nil {
		t.Fatalf("create group %s: %v", name, err)
	}
	return g
}
