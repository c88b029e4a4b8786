// Package seed loads the sample household used for local development.
package seed

import (
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dukerupert/chorely/internal/chore"
	"github.com/dukerupert/chorely/internal/group"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/store"
)

//go:embed sample.yaml
var sampleYAML []byte

type Fixture struct {
	Group  GroupFixture   `yaml:"group"`
	Chores []ChoreFixture `yaml:"chores"`
}

type GroupFixture struct {
	Name     string `yaml:"name"`
	JoinCode string `yaml:"join_code"`
}

type ChoreFixture struct {
	Title      string `yaml:"title"`
	Frequency  string `yaml:"frequency"`
	Interval   *int   `yaml:"interval"`
	Assignment string `yaml:"assignment"`
}

// Sample returns the embedded sample household.
func Sample() (*Fixture, error) {
	return Load(sampleYAML)
}

// Load parses a fixture and normalizes its join code.
func Load(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if f.Group.Name == "" {
		return nil, fmt.Errorf("fixture group name is required")
	}
	code, err := group.NormalizeJoinCode(f.Group.JoinCode)
	if err != nil {
		return nil, fmt.Errorf("fixture join code: %w", err)
	}
	f.Group.JoinCode = code
	return &f, nil
}

// Result describes what Apply changed.
type Result struct {
	Group         *model.Group
	ChoresCreated int
	// Existing is true when the group was already present and left untouched.
	Existing bool
}

type Seeder struct {
	groups *store.GroupStore
	chores *chore.Service
	now    func() time.Time
	logger *slog.Logger
}

func NewSeeder(gs *store.GroupStore, cs *chore.Service, now func() time.Time, logger *slog.Logger) *Seeder {
	if now == nil {
		now = time.Now
	}
	return &Seeder{groups: gs, chores: cs, now: now, logger: logger.With("component", "seed")}
}

// Apply creates the fixture group owned by owner together with its chores.
// A group that already uses the fixture's join code is left as is; owner is
// added to it when not yet a member.
func (s *Seeder) Apply(f *Fixture, owner *model.User) (*Result, error) {
	existing, err := s.groups.GetByJoinCode(f.Group.JoinCode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		m, err := s.groups.GetMember(existing.ID, owner.ID)
		if err != nil {
			return nil, err
		}
		if m == nil {
			desc := fmt.Sprintf("%s joined the group", displayName(owner))
			if _, err := s.groups.AddMember(existing.ID, owner.ID, model.RoleMember, s.now(), desc); err != nil {
				return nil, err
			}
		}
		s.logger.Info("sample group already present", "group_id", existing.ID)
		return &Result{Group: existing, Existing: true}, nil
	}

	desc := fmt.Sprintf("%s created the group %q", displayName(owner), f.Group.Name)
	g, err := s.groups.Create(f.Group.Name, f.Group.JoinCode, owner.ID, s.now(), desc)
	if err != nil {
		return nil, fmt.Errorf("create sample group: %w", err)
	}

	res := &Result{Group: g}
	for _, c := range f.Chores {
		_, err := s.chores.Create(owner.ID, chore.CreateInput{
			Title:          c.Title,
			Frequency:      c.Frequency,
			FrequencyValue: c.Interval,
			AssignmentType: c.Assignment,
			GroupID:        g.ID,
		})
		if err != nil {
			return nil, fmt.Errorf("create sample chore %q: %w", c.Title, err)
		}
		res.ChoresCreated++
	}
	s.logger.Info("sample group seeded", "group_id", g.ID, "chores", res.ChoresCreated)
	return res, nil
}

func displayName(u *model.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
