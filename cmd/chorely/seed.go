package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorely/internal/chore"
	"github.com/dukerupert/chorely/internal/database"
	"github.com/dukerupert/chorely/internal/logging"
	"github.com/dukerupert/chorely/internal/seed"
	"github.com/dukerupert/chorely/internal/store"
)

var (
	seedEmail   string
	seedName    string
	seedFixture string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the sample household owned by a user",
	Long: `Creates the "Sample Household" group (join code SAMPLE) with a set of
recurring chores. The owner is created if missing. Running it again leaves an
existing sample group untouched.

Example:
  chorely seed --email you@example.com --name You`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedEmail, "email", "", "Owner email (required)")
	seedCmd.Flags().StringVar(&seedName, "name", "", "Owner display name")
	seedCmd.Flags().StringVar(&seedFixture, "fixture", "", "YAML fixture to load instead of the built-in sample")
	seedCmd.MarkFlagRequired("email")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.Log.Level)
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	fixture, err := loadFixture()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	users := store.NewUserStore(db)
	owner, err := users.Upsert(strings.ToLower(strings.TrimSpace(seedEmail)), seedName, "")
	if err != nil {
		return err
	}

	now := func() time.Time { return time.Now().In(loc) }
	groups := store.NewGroupStore(db)
	chores := chore.NewService(store.NewChoreStore(db), groups, users, now, logger)
	res, err := seed.NewSeeder(groups, chores, now, logger).Apply(fixture, owner)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if res.Existing {
		fmt.Fprintf(out, "Group %q already exists (join code %s)\n", res.Group.Name, res.Group.JoinCode)
		return nil
	}
	fmt.Fprintf(out, "Created group %q (join code %s) with %d chores\n", res.Group.Name, res.Group.JoinCode, res.ChoresCreated)
	return nil
}

func loadFixture() (*seed.Fixture, error) {
	if seedFixture == "" {
		return seed.Sample()
	}
	data, err := os.ReadFile(seedFixture)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return seed.Load(data)
}
