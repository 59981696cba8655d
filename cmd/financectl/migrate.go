package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/finance-tracker-api/internal/config"
	"github.com/redmonkez12/finance-tracker-api/internal/database"
)

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the embedded schema migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, database.Up)
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back every migration (drops all data)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				return fmt.Errorf("refusing to drop all tables without --yes")
			}
			return runMigrate(cmd, database.Down)
		},
	}
	downCmd.Flags().BoolP("yes", "y", false, "Confirm dropping all tables")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}

	migrateCmd.AddCommand(upCmd, downCmd, versionCmd)
	return migrateCmd
}

func runMigrate(cmd *cobra.Command, dir database.Direction) error {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	if err := database.Migrate(cfg, dir); err != nil {
		return err
	}

	printSuccess(cmd.OutOrStdout(), fmt.Sprintf("migrations %s applied (%s)", dir, cfg.Driver))
	return nil
}

func runVersion(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	version, dirty, err := database.Version(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("Schema"))
	fmt.Fprintf(out, "  Driver:  %s\n", cfg.Driver)
	fmt.Fprintf(out, "  Version: %d\n", version)
	if dirty {
		fmt.Fprintln(out, errorStyle.Render("  dirty: fix the failed migration and force the version"))
	}
	return nil
}
