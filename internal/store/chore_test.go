package store

import (
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/chorely/internal/model"
)

type choreFixture struct {
	chores *ChoreStore
	group  *model.Group
	alice  *model.User
	bob    *model.User
}

func setupChoreTestDB(t *testing.T) choreFixture {
	t.Helper()
	db := openTestDB(t)
	alice := mustUser(t, db, "alice@example.com", "Alice")
	bob := mustUser(t, db, "bob@example.com", "Bob")
	g := mustGroup(t, db, "Home", "ABC123", alice.ID)
	if _, err := NewGroupStore(db).AddMember(g.ID, bob.ID, model.RoleMember, testNow, "Bob joined"); err != nil {
		t.Fatalf("add bob: %v", err)
	}
	return choreFixture{chores: NewChoreStore(db), group: g, alice: alice, bob: bob}
}

func (f choreFixture) create(t *testing.T, title string, at time.Time, assignee *int64) *model.Chore {
	t.Helper()
	c, err := f.chores.Create(model.Chore{
		GroupID:        f.group.ID,
		Title:          title,
		Frequency:      model.FrequencyWeekly,
		AssignmentType: model.AssignmentSingle,
		IsActive:       true,
		NextDueDate:    at.AddDate(0, 0, 7),
		AssignedUserID: assignee,
		LastModifiedBy: &f.alice.ID,
		CreatedAt:      at,
	}, func(c model.Chore) model.Activity {
		return model.NewActivity(c.GroupID, f.alice.ID, "created "+c.Title, model.ChoreCreatedMetadata{ChoreID: c.ID, Title: c.Title})
	})
	if err != nil {
		t.Fatalf("create chore %q: %v", title, err)
	}
	return c
}

func TestChoreCreate(t *testing.T) {
	f := setupChoreTestDB(t)

	c := f.create(t, "Dishes", testNow, &f.bob.ID)
	if c.ID == 0 {
		t.Fatal("expected non-zero ID")
	}
	if c.Version != 1 {
		t.Errorf("version = %d, want 1", c.Version)
	}
	if !c.NextDueDate.Equal(testNow.AddDate(0, 0, 7)) {
		t.Errorf("next_due_date = %s, want %s", c.NextDueDate, testNow.AddDate(0, 0, 7))
	}
	if c.AssignedUserID == nil || *c.AssignedUserID != f.bob.ID {
		t.Errorf("assigned_user_id = %v, want %d", c.AssignedUserID, f.bob.ID)
	}
	if c.CustomInterval != nil {
		t.Errorf("custom_interval = %v, want nil", *c.CustomInterval)
	}
	if c.LastCompletedAt != nil {
		t.Error("expected nil last_completed_at")
	}
}

func TestChoreCreateLogsActivity(t *testing.T) {
	f := setupChoreTestDB(t)
	c := f.create(t, "Dishes", testNow, nil)

	activities, err := NewActivityStore(f.chores.db).ListByGroup(f.group.ID, 10)
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	got, ok := activities[0].Metadata.(model.ChoreCreatedMetadata)
	if !ok {
		t.Fatalf("latest activity metadata = %T, want ChoreCreatedMetadata", activities[0].Metadata)
	}
	if got.ChoreID != c.ID {
		t.Errorf("chore_id = %d, want %d", got.ChoreID, c.ID)
	}
}

func TestChoreGetByIDNotFound(t *testing.T) {
	f := setupChoreTestDB(t)

	c, err := f.chores.GetByID(999)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if c != nil {
		t.Error("expected nil for nonexistent chore")
	}
}

func TestChoreListByGroupNewestFirst(t *testing.T) {
	f := setupChoreTestDB(t)

	f.create(t, "First", testNow, nil)
	f.create(t, "Second", testNow.Add(time.Hour), nil)
	third := f.create(t, "Third", testNow.Add(2*time.Hour), nil)

	third.IsActive = false
	if _, err := f.chores.Update(*third, testNow.Add(3*time.Hour), nil); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	active, err := f.chores.ListByGroup(f.group.ID, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active chores, got %d", len(active))
	}
	if active[0].Title != "Second" || active[1].Title != "First" {
		t.Errorf("order = [%s %s], want [Second First]", active[0].Title, active[1].Title)
	}

	all, err := f.chores.ListByGroup(f.group.ID, true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 chores including inactive, got %d", len(all))
	}
}

func TestChoreListForMember(t *testing.T) {
	f := setupChoreTestDB(t)
	f.create(t, "Dishes", testNow, nil)

	db := f.chores.db
	carol := mustUser(t, db, "carol@example.com", "Carol")
	other := mustGroup(t, db, "Elsewhere", "XYZ789", carol.ID)
	if _, err := f.chores.Create(model.Chore{
		GroupID: other.ID, Title: "Not mine", Frequency: model.FrequencyDaily,
		AssignmentType: model.AssignmentSingle, IsActive: true,
		NextDueDate: testNow.AddDate(0, 0, 1), CreatedAt: testNow,
	}, nil); err != nil {
		t.Fatalf("create other chore: %v", err)
	}

	chores, err := f.chores.ListForMember(f.bob.ID)
	if err != nil {
		t.Fatalf("list for member: %v", err)
	}
	if len(chores) != 1 || chores[0].Title != "Dishes" {
		t.Errorf("chores = %+v, want only Dishes", chores)
	}
}

func TestChoreUpdate(t *testing.T) {
	f := setupChoreTestDB(t)
	c := f.create(t, "Dishes", testNow, nil)

	interval := 3
	c.Title = "Wash dishes"
	c.Frequency = model.FrequencyDaily
	c.CustomInterval = &interval
	c.AssignedUserID = &f.bob.ID
	c.NextDueDate = testNow.AddDate(0, 0, 3)

	updated, err := f.chores.Update(*c, testNow.Add(time.Minute), nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Wash dishes" {
		t.Errorf("title = %q, want %q", updated.Title, "Wash dishes")
	}
	if updated.CustomInterval == nil || *updated.CustomInterval != 3 {
		t.Errorf("custom_interval = %v, want 3", updated.CustomInterval)
	}
	if updated.Version != c.Version+1 {
		t.Errorf("version = %d, want %d", updated.Version, c.Version+1)
	}
	if !updated.UpdatedAt.Equal(testNow.Add(time.Minute)) {
		t.Errorf("updated_at = %s, want %s", updated.UpdatedAt, testNow.Add(time.Minute))
	}
}

func TestChoreUpdateStale(t *testing.T) {
	f := setupChoreTestDB(t)
	c := f.create(t, "Dishes", testNow, nil)

	first := *c
	first.Title = "One"
	if _, err := f.chores.Update(first, testNow, nil); err != nil {
		t.Fatalf("first update: %v", err)
	}

	second := *c
	second.Title = "Two"
	_, err := f.chores.Update(second, testNow, nil)
	if !errors.Is(err, ErrStale) {
		t.Fatalf("second update error = %v, want ErrStale", err)
	}

	got, _ := f.chores.GetByID(c.ID)
	if got.Title != "One" {
		t.Errorf("title = %q, want %q", got.Title, "One")
	}
}

func TestChoreDeleteCascadesCompletions(t *testing.T) {
	f := setupChoreTestDB(t)
	c := f.create(t, "Dishes", testNow, nil)

	if _, _, err := f.chores.Complete(Completion{
		ChoreID: c.ID, Version: c.Version, UserID: f.alice.ID,
		CompletedAt: testNow, NextDueDate: testNow.AddDate(0, 0, 7),
	}, nil); err != nil {
		t.Fatalf("complete: %v", err)
	}

	err := f.chores.Delete(*c, testNow, func(c model.Chore) model.Activity {
		return model.NewActivity(c.GroupID, f.alice.ID, "deleted", model.ChoreDeletedMetadata{ChoreID: c.ID, Title: c.Title})
	})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := f.chores.GetByID(c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected chore to be deleted")
	}

	var n int
	if err := f.chores.db.QueryRow(`SELECT COUNT(*) FROM chore_completions WHERE chore_id = ?`, c.ID).Scan(&n); err != nil {
		t.Fatalf("count completions: %v", err)
	}
	if n != 0 {
		t.Errorf("expected completions to cascade, %d remain", n)
	}
}

func TestChoreDeleteMissingRow(t *testing.T) {
	f := setupChoreTestDB(t)
	c := f.create(t, "Dishes", testNow, nil)

	logDeleted := func(c model.Chore) model.Activity {
		return model.NewActivity(c.GroupID, f.alice.ID, "deleted", model.ChoreDeletedMetadata{ChoreID: c.ID, Title: c.Title})
	}
	if err := f.chores.Delete(*c, testNow, logDeleted); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	err := f.chores.Delete(*c, testNow.Add(time.Minute), logDeleted)
	if !errors.Is(err, ErrChoreNotFound) {
		t.Fatalf("second delete error = %v, want ErrChoreNotFound", err)
	}

	var n int
	if err := f.chores.db.QueryRow(
		`SELECT COUNT(*) FROM activities WHERE type = ?`, string(model.ActivityChoreDeleted),
	).Scan(&n); err != nil {
		t.Fatalf("count activities: %v", err)
	}
	if n != 1 {
		t.Errorf("chore_deleted activities = %d, want 1", n)
	}
}

func TestChoreComplete(t *testing.T) {
	f := setupChoreTestDB(t)
	c := f.create(t, "Dishes", testNow, &f.alice.ID)

	doneAt := testNow.Add(26 * time.Hour)
	next := doneAt.AddDate(0, 0, 7)
	updated, completion, err := f.chores.Complete(Completion{
		ChoreID: c.ID, Version: c.Version, UserID: f.bob.ID,
		CompletedAt: doneAt, NextDueDate: next,
		Reassign: true, Assignee: &f.bob.ID,
	}, func(c model.Chore) model.Activity {
		return model.NewActivity(c.GroupID, f.bob.ID, "completed", model.ChoreCompletedMetadata{ChoreID: c.ID, Title: c.Title, NextDueDate: c.NextDueDate})
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if !updated.NextDueDate.Equal(next) {
		t.Errorf("next_due_date = %s, want %s", updated.NextDueDate, next)
	}
	if updated.LastCompletedAt == nil || !updated.LastCompletedAt.Equal(doneAt) {
		t.Errorf("last_completed_at = %v, want %s", updated.LastCompletedAt, doneAt)
	}
	if updated.LastModifiedBy == nil || *updated.LastModifiedBy != f.bob.ID {
		t.Errorf("last_modified_by = %v, want %d", updated.LastModifiedBy, f.bob.ID)
	}
	if updated.AssignedUserID == nil || *updated.AssignedUserID != f.bob.ID {
		t.Errorf("assigned_user_id = %v, want %d", updated.AssignedUserID, f.bob.ID)
	}
	if completion.ChoreID != c.ID || completion.UserID != f.bob.ID {
		t.Errorf("completion = %+v", completion)
	}

	history, err := f.chores.ListCompletions(c.ID, 10)
	if err != nil {
		t.Fatalf("list completions: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 completion, got %d", len(history))
	}
	if !history[0].NextDueDate.Equal(next) {
		t.Errorf("completion next_due_date = %s, want %s", history[0].NextDueDate, next)
	}
}

func TestChoreCompleteKeepsAssigneeWithoutReassign(t *testing.T) {
	f := setupChoreTestDB(t)
	c := f.create(t, "Dishes", testNow, &f.alice.ID)

	updated, _, err := f.chores.Complete(Completion{
		ChoreID: c.ID, Version: c.Version, UserID: f.bob.ID,
		CompletedAt: testNow, NextDueDate: testNow.AddDate(0, 0, 7),
	}, nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if updated.AssignedUserID == nil || *updated.AssignedUserID != f.alice.ID {
		t.Errorf("assigned_user_id = %v, want %d", updated.AssignedUserID, f.alice.ID)
	}
}

func TestChoreCompleteStale(t *testing.T) {
	f := setupChoreTestDB(t)
	c := f.create(t, "Dishes", testNow, nil)

	p := Completion{
		ChoreID: c.ID, Version: c.Version, UserID: f.alice.ID,
		CompletedAt: testNow, NextDueDate: testNow.AddDate(0, 0, 7),
	}
	if _, _, err := f.chores.Complete(p, nil); err != nil {
		t.Fatalf("first complete: %v", err)
	}
	if _, _, err := f.chores.Complete(p, nil); !errors.Is(err, ErrStale) {
		t.Fatalf("replayed complete error = %v, want ErrStale", err)
	}

	history, _ := f.chores.ListCompletions(c.ID, 10)
	if len(history) != 1 {
		t.Errorf("expected 1 completion after stale replay, got %d", len(history))
	}
}

func TestChoreCompleteInactive(t *testing.T) {
	f := setupChoreTestDB(t)
	c := f.create(t, "Dishes", testNow, nil)

	c.IsActive = false
	inactive, err := f.chores.Update(*c, testNow, nil)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, _, err = f.chores.Complete(Completion{
		ChoreID: c.ID, Version: inactive.Version, UserID: f.alice.ID,
		CompletedAt: testNow, NextDueDate: testNow.AddDate(0, 0, 7),
	}, nil)
	if !errors.Is(err, ErrStale) {
		t.Errorf("complete inactive error = %v, want ErrStale", err)
	}
}
