package group

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dukerupert/chorely/internal/apperr"
	"github.com/dukerupert/chorely/internal/chore"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/store"
)

const (
	maxNameLen   = 50
	codeAttempts = 5

	FeedDefaultLimit = 50
	FeedMaxLimit     = 200
)

type Service struct {
	groups     *store.GroupStore
	users      *store.UserStore
	activities *store.ActivityStore
	newCode    func() (string, error)
	now        func() time.Time
	logger     *slog.Logger
}

func NewService(gs *store.GroupStore, us *store.UserStore, as *store.ActivityStore, now func() time.Time, logger *slog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		groups:     gs,
		users:      us,
		activities: as,
		newCode:    GenerateJoinCode,
		now:        now,
		logger:     logger.With("component", "group"),
	}
}

// Detail is a group with its members in join order.
type Detail struct {
	model.Group
	Members []model.MemberWithUser `json:"members"`
	Role    model.Role             `json:"role"`
}

// LeaveResult reports what happened when a user left a group.
type LeaveResult struct {
	GroupID        int64  `json:"group_id"`
	GroupDeleted   bool   `json:"group_deleted"`
	PromotedUserID *int64 `json:"promoted_user_id,omitempty"`
	Message        string `json:"message"`
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

// Create makes a new group with userID as its admin. Join codes are random;
// a collision is retried a few times before giving up with Conflict.
func (s *Service) Create(userID int64, name string) (*Detail, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.InvalidInput("group name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return nil, apperr.InvalidInput(fmt.Sprintf("group name must be at most %d characters", maxNameLen))
	}

	description := fmt.Sprintf("%s created the group %q", s.actorName(userID), name)
	for attempt := 1; attempt <= codeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, fmt.Errorf("generate join code: %w", err)
		}
		g, err := s.groups.Create(name, code, userID, s.now(), description)
		if errors.Is(err, store.ErrJoinCodeTaken) {
			s.logger.Debug("join code collision", "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}
		s.logger.Info("group created", "group_id", g.ID, "user_id", userID)
		return s.detail(g, userID)
	}
	return nil, apperr.Conflict("could not allocate a unique join code, try again")
}

// Join adds userID to the group identified by code.
func (s *Service) Join(userID int64, code string) (*Detail, error) {
	code, err := NormalizeJoinCode(code)
	if err != nil {
		return nil, err
	}
	g, err := s.groups.GetByJoinCode(code)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, apperr.NotFound("no group with that join code")
	}

	description := fmt.Sprintf("%s joined the group", s.actorName(userID))
	if _, err := s.groups.AddMember(g.ID, userID, model.RoleMember, s.now(), description); err != nil {
		if errors.Is(err, store.ErrAlreadyMember) {
			return nil, apperr.Conflict("already a member of this group")
		}
		return nil, err
	}
	s.logger.Info("member joined", "group_id", g.ID, "user_id", userID)
	return s.detail(g, userID)
}

// Leave removes userID from groupID. The leaver's alternating chores pass
// to the next member in rotation. The last member leaving deletes the group.
func (s *Service) Leave(userID, groupID int64) (*LeaveResult, error) {
	if groupID == 0 {
		return nil, apperr.InvalidInput("groupId is required")
	}
	description := fmt.Sprintf("%s left the group", s.actorName(userID))
	res, err := s.groups.RemoveMember(groupID, userID, chore.HandoffAssignee, s.now(), description)
	if errors.Is(err, store.ErrNotMember) {
		return nil, apperr.NotFound("you are not a member of this group")
	}
	if err != nil {
		return nil, err
	}

	out := &LeaveResult{GroupID: groupID, GroupDeleted: res.GroupDeleted, PromotedUserID: res.PromotedUserID}
	if res.GroupDeleted {
		out.Message = "You have left the group and it has been deleted since you were the last member"
		s.logger.Info("group deleted", "group_id", groupID, "user_id", userID)
	} else {
		out.Message = "Successfully left the group"
		s.logger.Info("member left", "group_id", groupID, "user_id", userID, "promoted", res.PromotedUserID)
	}
	return out, nil
}

// Get returns a group the user belongs to. Non-members get NotFound so group
// IDs cannot be enumerated.
func (s *Service) Get(userID, groupID int64) (*Detail, error) {
	g, err := s.groups.GetByID(groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, apperr.NotFound("group not found")
	}
	return s.detail(g, userID)
}

func (s *Service) detail(g *model.Group, userID int64) (*Detail, error) {
	members, err := s.groups.ListMembers(g.ID)
	if err != nil {
		return nil, err
	}
	d := &Detail{Group: *g, Members: members}
	for _, m := range members {
		if m.UserID == userID {
			d.Role = m.Role
		}
	}
	if d.Role == "" {
		return nil, apperr.NotFound("group not found")
	}
	return d, nil
}

func (s *Service) ListForUser(userID int64) ([]model.Group, error) {
	groups, err := s.groups.ListForUser(userID)
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []model.Group{}
	}
	return groups, nil
}

// Feed returns the group's activity, most recent first. limit <= 0 selects
// the default and larger values are capped.
func (s *Service) Feed(userID, groupID int64, limit int) ([]model.Activity, error) {
	if groupID == 0 {
		return nil, apperr.InvalidInput("groupId is required")
	}
	m, err := s.groups.GetMember(groupID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.Forbidden("not a member of this group")
	}
	if limit <= 0 {
		limit = FeedDefaultLimit
	}
	limit = min(limit, FeedMaxLimit)

	activities, err := s.activities.ListByGroup(groupID, limit)
	if err != nil {
		return nil, err
	}
	if activities == nil {
		activities = []model.Activity{}
	}
	return activities, nil
}

// IsMember reports whether userID belongs to groupID.
func (s *Service) IsMember(userID, groupID int64) (bool, error) {
	m, err := s.groups.GetMember(groupID, userID)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}
