// Command financectl administers a finance-tracker deployment: schema migrations and user accounts.
package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		printError(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "financectl",
		Short:         "Administer the finance tracker API",
		Long:          "Run database migrations and manage user accounts using the same environment as the API server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.AddCommand(newMigrateCmd(), newUserCmd())
	return rootCmd
}
