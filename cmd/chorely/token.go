package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/database"
	"github.com/dukerupert/chorely/internal/store"
)

var (
	tokenEmail string
	tokenName  string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a session token for a user",
	Long: `Upserts the user by email and prints a bearer token for the API.

Example:
  curl -H "Authorization: Bearer $(chorely token --email you@example.com)" localhost:8080/api/groups`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "User email (required)")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "Display name for a new user")
	tokenCmd.MarkFlagRequired("email")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	issuer, err := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.SessionTTL)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := store.NewUserStore(db).Upsert(strings.ToLower(strings.TrimSpace(tokenEmail)), tokenName, "")
	if err != nil {
		return err
	}
	token, _, err := issuer.Issue(user.ID, user.Email)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
