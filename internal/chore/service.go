package chore

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dukerupert/chorely/internal/apperr"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/recurrence"
	"github.com/dukerupert/chorely/internal/store"
)

const (
	maxTitleLen    = 100
	maxInterval    = 365
	historyDefault = 20
	historyMax     = 100
)

// Service implements chore operations on top of the store. Every write runs
// in a single store transaction together with its activity record.
type Service struct {
	chores *store.ChoreStore
	groups *store.GroupStore
	users  *store.UserStore
	now    func() time.Time
	logger *slog.Logger
}

// NewService returns a Service. now supplies the current time in the
// location used for due-date arithmetic and day boundaries.
func NewService(cs *store.ChoreStore, gs *store.GroupStore, us *store.UserStore, now func() time.Time, logger *slog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{chores: cs, groups: gs, users: us, now: now, logger: logger.With("component", "chore")}
}

type CreateInput struct {
	Title          string
	Frequency      string
	FrequencyValue *int
	AssignmentType string
	GroupID        int64
	AssignedUserID *int64
}

// UpdateInput carries a partial update. Nil fields are left unchanged.
// AssignedUserID is applied only when SetAssignee is true, so a nil value
// with SetAssignee unassigns the chore.
type UpdateInput struct {
	Title          *string
	Frequency      *string
	FrequencyValue *int
	AssignmentType *string
	IsActive       *bool
	SetAssignee    bool
	AssignedUserID *int64
}

type CompleteResult struct {
	Chore       ChoreWithStatus       `json:"chore"`
	Completion  model.ChoreCompletion `json:"completion"`
	NextDueDate time.Time             `json:"next_due_date"`
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperr.InvalidInput("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "", apperr.InvalidInput(fmt.Sprintf("title must be at most %d characters", maxTitleLen))
	}
	return title, nil
}

func parseAssignmentType(s string) (model.AssignmentType, error) {
	switch model.AssignmentType(strings.ToLower(strings.TrimSpace(s))) {
	case model.AssignmentSingle:
		return model.AssignmentSingle, nil
	case model.AssignmentAlternating:
		return model.AssignmentAlternating, nil
	}
	return "", apperr.InvalidInput("assignmentType must be single or alternating")
}

// customInterval maps a requested frequency value onto the stored interval:
// values above 1 are kept, 1 clears it.
func customInterval(v int) (*int, error) {
	if v < 1 || v > maxInterval {
		return nil, apperr.InvalidInput(fmt.Sprintf("frequencyValue must be between 1 and %d", maxInterval))
	}
	if v == 1 {
		return nil, nil
	}
	return &v, nil
}

func (s *Service) requireMember(groupID, userID int64) error {
	m, err := s.groups.GetMember(groupID, userID)
	if err != nil {
		return err
	}
	if m == nil {
		return apperr.Forbidden("not a member of this group")
	}
	return nil
}

func (s *Service) memberIDs(groupID int64) ([]int64, error) {
	members, err := s.groups.ListMembers(groupID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	return ids, nil
}

func (s *Service) checkAssignee(groupID int64, assignee *int64) error {
	if assignee == nil {
		return nil
	}
	m, err := s.groups.GetMember(groupID, *assignee)
	if err != nil {
		return err
	}
	if m == nil {
		return apperr.InvalidInput("assigned user is not a member of this group")
	}
	return nil
}

func (s *Service) actorName(userID int64) string {
	u, err := s.users.GetByID(userID)
	if err != nil || u == nil {
		if err != nil {
			s.logger.Warn("lookup actor", "user_id", userID, "error", err)
		}
		return "Someone"
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// loadForMember fetches a chore and checks userID may act on it.
func (s *Service) loadForMember(choreID, userID int64) (*model.Chore, error) {
	c, err := s.chores.GetByID(choreID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("chore not found")
	}
	if err := s.requireMember(c.GroupID, userID); err != nil {
		return nil, err
	}
	return c, nil
}

func staleConflict(err error) error {
	if errors.Is(err, store.ErrStale) {
		return apperr.Conflict("chore was modified by someone else, reload and retry")
	}
	return err
}

// Create validates in and stores a chore whose first due date is one
// interval after now.
func (s *Service) Create(userID int64, in CreateInput) (*ChoreWithStatus, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	freq, err := recurrence.ParseFrequency(in.Frequency)
	if err != nil {
		return nil, apperr.InvalidInput("frequency must be daily, weekly or monthly")
	}
	var interval *int
	if in.FrequencyValue != nil {
		if interval, err = customInterval(*in.FrequencyValue); err != nil {
			return nil, err
		}
	}
	assignment, err := parseAssignmentType(in.AssignmentType)
	if err != nil {
		return nil, err
	}
	if in.GroupID == 0 {
		return nil, apperr.InvalidInput("groupId is required")
	}
	if err := s.requireMember(in.GroupID, userID); err != nil {
		return nil, err
	}
	if err := s.checkAssignee(in.GroupID, in.AssignedUserID); err != nil {
		return nil, err
	}

	assignee := in.AssignedUserID
	if assignee == nil && assignment == model.AssignmentAlternating {
		ids, err := s.memberIDs(in.GroupID)
		if err != nil {
			return nil, err
		}
		assignee = NextAssignee(ids, nil)
	}

	now := s.now()
	c := model.Chore{
		GroupID:        in.GroupID,
		Title:          title,
		Frequency:      freq,
		CustomInterval: interval,
		AssignmentType: assignment,
		IsActive:       true,
		AssignedUserID: assignee,
		LastModifiedBy: &userID,
		CreatedAt:      now,
	}
	c.NextDueDate = recurrence.NextDueDate(freq, c.Interval(), now)

	actor := s.actorName(userID)
	created, err := s.chores.Create(c, func(c model.Chore) model.Activity {
		return model.NewActivity(c.GroupID, userID,
			fmt.Sprintf("%s created chore %q", actor, c.Title),
			model.ChoreCreatedMetadata{ChoreID: c.ID, Title: c.Title, Frequency: c.Frequency, NextDueDate: c.NextDueDate})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("chore created", "chore_id", created.ID, "group_id", created.GroupID, "user_id", userID)
	out := WithStatus(*created, now)
	return &out, nil
}

func (s *Service) Get(userID, choreID int64) (*ChoreWithStatus, error) {
	c, err := s.loadForMember(choreID, userID)
	if err != nil {
		return nil, err
	}
	out := WithStatus(*c, s.now())
	return &out, nil
}

func (s *Service) withStatus(chores []model.Chore) []ChoreWithStatus {
	now := s.now()
	out := make([]ChoreWithStatus, 0, len(chores))
	for _, c := range chores {
		out = append(out, WithStatus(c, now))
	}
	return out
}

// ListForGroup returns a group's active chores, newest first.
func (s *Service) ListForGroup(userID, groupID int64) ([]ChoreWithStatus, error) {
	if groupID == 0 {
		return nil, apperr.InvalidInput("groupId is required")
	}
	if err := s.requireMember(groupID, userID); err != nil {
		return nil, err
	}
	chores, err := s.chores.ListByGroup(groupID, false)
	if err != nil {
		return nil, err
	}
	return s.withStatus(chores), nil
}

// ListMine returns the chores userID owes. A zero groupID covers every group
// the user belongs to.
func (s *Service) ListMine(userID, groupID int64) ([]ChoreWithStatus, error) {
	var chores []model.Chore
	var err error
	if groupID == 0 {
		chores, err = s.chores.ListForMember(userID)
	} else {
		if err := s.requireMember(groupID, userID); err != nil {
			return nil, err
		}
		chores, err = s.chores.ListByGroup(groupID, false)
	}
	if err != nil {
		return nil, err
	}
	return s.withStatus(slices.Collect(SelectForUser(chores, userID))), nil
}

// Update applies in to a chore. A change of frequency or interval recomputes
// the due date from the last completion, or from creation if never completed.
func (s *Service) Update(userID, choreID int64, in UpdateInput) (*ChoreWithStatus, error) {
	c, err := s.loadForMember(choreID, userID)
	if err != nil {
		return nil, err
	}

	var fields []string
	reschedule := false

	if in.Title != nil {
		title, err := validateTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		if title != c.Title {
			c.Title = title
			fields = append(fields, "title")
		}
	}
	if in.Frequency != nil {
		freq, err := recurrence.ParseFrequency(*in.Frequency)
		if err != nil {
			return nil, apperr.InvalidInput("frequency must be daily, weekly or monthly")
		}
		if freq != c.Frequency {
			c.Frequency = freq
			fields = append(fields, "frequency")
			reschedule = true
		}
	}
	if in.FrequencyValue != nil {
		interval, err := customInterval(*in.FrequencyValue)
		if err != nil {
			return nil, err
		}
		before := c.Interval()
		c.CustomInterval = interval
		if c.Interval() != before {
			fields = append(fields, "interval")
			reschedule = true
		}
	}
	if in.AssignmentType != nil {
		assignment, err := parseAssignmentType(*in.AssignmentType)
		if err != nil {
			return nil, err
		}
		if assignment != c.AssignmentType {
			c.AssignmentType = assignment
			fields = append(fields, "assignment_type")
		}
	}
	if in.IsActive != nil && *in.IsActive != c.IsActive {
		c.IsActive = *in.IsActive
		fields = append(fields, "is_active")
	}
	if in.SetAssignee {
		if err := s.checkAssignee(c.GroupID, in.AssignedUserID); err != nil {
			return nil, err
		}
		if !sameID(c.AssignedUserID, in.AssignedUserID) {
			c.AssignedUserID = in.AssignedUserID
			fields = append(fields, "assigned_user_id")
		}
	}

	now := s.now()
	if reschedule {
		base := c.CreatedAt
		if c.LastCompletedAt != nil {
			base = *c.LastCompletedAt
		}
		// Stored times come back in UTC; day and month steps use the
		// service location like Create and Complete.
		c.NextDueDate = recurrence.NextDueDate(c.Frequency, c.Interval(), base.In(now.Location()))
	}

	c.LastModifiedBy = &userID
	actor := s.actorName(userID)
	updated, err := s.chores.Update(*c, now, func(c model.Chore) model.Activity {
		return model.NewActivity(c.GroupID, userID,
			fmt.Sprintf("%s updated chore %q", actor, c.Title),
			model.ChoreUpdatedMetadata{ChoreID: c.ID, Title: c.Title, Fields: fields})
	})
	if err != nil {
		return nil, staleConflict(err)
	}

	s.logger.Info("chore updated", "chore_id", updated.ID, "fields", fields, "user_id", userID)
	out := WithStatus(*updated, now)
	return &out, nil
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Delete removes a chore permanently. It returns the deleted chore so
// callers can announce it.
func (s *Service) Delete(userID, choreID int64) (*model.Chore, error) {
	c, err := s.loadForMember(choreID, userID)
	if err != nil {
		return nil, err
	}
	actor := s.actorName(userID)
	err = s.chores.Delete(*c, s.now(), func(c model.Chore) model.Activity {
		return model.NewActivity(c.GroupID, userID,
			fmt.Sprintf("%s deleted chore %q", actor, c.Title),
			model.ChoreDeletedMetadata{ChoreID: c.ID, Title: c.Title})
	})
	if errors.Is(err, store.ErrChoreNotFound) {
		return nil, apperr.NotFound("chore not found")
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("chore deleted", "chore_id", c.ID, "user_id", userID)
	return c, nil
}

// Complete records a completion by userID and advances the due date from
// now. The new due date is always after the current one, so repeated
// completion never rewinds the schedule. Alternating chores pass to the next
// member in join order.
func (s *Service) Complete(userID, choreID int64) (*CompleteResult, error) {
	c, err := s.chores.GetByID(choreID)
	if err != nil {
		return nil, err
	}
	if c == nil || !c.IsActive {
		return nil, apperr.NotFound("chore not found")
	}
	if err := s.requireMember(c.GroupID, userID); err != nil {
		return nil, err
	}

	now := s.now()
	next := recurrence.NextDueDate(c.Frequency, c.Interval(), now)
	if !next.After(c.NextDueDate) {
		next = recurrence.NextDueDate(c.Frequency, c.Interval(), c.NextDueDate.In(now.Location()))
	}

	p := store.Completion{
		ChoreID:     c.ID,
		Version:     c.Version,
		UserID:      userID,
		CompletedAt: now,
		NextDueDate: next,
	}
	if c.AssignmentType == model.AssignmentAlternating {
		ids, err := s.memberIDs(c.GroupID)
		if err != nil {
			return nil, err
		}
		p.Reassign = true
		p.Assignee = NextAssignee(ids, c.AssignedUserID)
	}

	actor := s.actorName(userID)
	updated, completion, err := s.chores.Complete(p, func(c model.Chore) model.Activity {
		return model.NewActivity(c.GroupID, userID,
			fmt.Sprintf("%s completed %q", actor, c.Title),
			model.ChoreCompletedMetadata{ChoreID: c.ID, Title: c.Title, NextDueDate: c.NextDueDate, NextAssigneeID: c.AssignedUserID})
	})
	if err != nil {
		return nil, staleConflict(err)
	}

	s.logger.Info("chore completed", "chore_id", c.ID, "user_id", userID, "next_due", updated.NextDueDate)
	return &CompleteResult{
		Chore:       WithStatus(*updated, now),
		Completion:  *completion,
		NextDueDate: updated.NextDueDate,
	}, nil
}

// Completions returns a chore's most recent completions. limit <= 0 selects
// the default.
func (s *Service) Completions(userID, choreID int64, limit int) ([]model.ChoreCompletion, error) {
	if _, err := s.loadForMember(choreID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = historyDefault
	}
	limit = min(limit, historyMax)
	history, err := s.chores.ListCompletions(choreID, limit)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []model.ChoreCompletion{}
	}
	return history, nil
}
