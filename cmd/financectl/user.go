package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/redmonkez12/finance-tracker-api/internal/auth"
	"github.com/redmonkez12/finance-tracker-api/internal/config"
	"github.com/redmonkez12/finance-tracker-api/internal/database"
	"github.com/redmonkez12/finance-tracker-api/internal/logging"
	"github.com/redmonkez12/finance-tracker-api/internal/user"
)

func newUserCmd() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user account",
		Long: "Create a user with the same validation and password hashing as POST /register.\n" +
			"Missing values are prompted for on a terminal; otherwise the password is read from stdin.",
		Args: cobra.NoArgs,
		RunE: runUserAdd,
	}
	addCmd.Flags().String("username", "", "Username")
	addCmd.Flags().String("email", "", "Email address")
	addCmd.Flags().String("password", "", "Password (prompted for if omitted)")

	userCmd.AddCommand(addCmd)
	return userCmd
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	if err := promptMissing(cmd.InOrStdin(), &username, &email, &password); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	hasher, err := auth.NewPasswordHasher(cfg.Auth.PasswordHasher, cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	tokenService, err := auth.NewTokenService(cfg.Auth.TokenFormat, cfg.Auth.TokenKey)
	if err != nil {
		return err
	}

	service := auth.NewService(user.NewRepository(db), hasher, tokenService, cfg.Auth.TokenDuration, logging.NewNopLogger())
	session, err := service.Register(ctx, username, email, password)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printSuccess(out, fmt.Sprintf("User %s created", session.User.Username))
	fmt.Fprintln(out, subtleStyle.Render(fmt.Sprintf("  id: %d  email: %s", session.User.ID, session.User.Email)))
	return nil
}

// promptMissing fills empty values from an interactive form, or reads the password
// from a non-terminal stdin (pipes, scripts)
func promptMissing(stdin io.Reader, username, email, password *string) error {
	if *username != "" && *email != "" && *password != "" {
		return nil
	}

	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return newUserForm(username, email, password).Run()
	}

	if *username == "" || *email == "" {
		return fmt.Errorf("--username and --email are required when stdin is not a terminal")
	}

	scanner := bufio.NewScanner(stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		return fmt.Errorf("password is required")
	}
	*password = scanner.Text()
	return nil
}
