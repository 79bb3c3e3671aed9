// Command gatehousectl administers a gatehouse database: it applies
// migrations and manages accounts without going through the HTTP surface.
package main

import (
	"fmt"
	"os"

	"github.com/aussiebroadwan/gatehouse/internal/auth/app"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gatehousectl",
		Short: "Administer a gatehouse database",
		Long: `gatehousectl works directly against the database configured for the
auth service. It reads the same AUTH_* environment variables.

Examples:
  gatehousectl migrate
  gatehousectl user create --email ada@example.com --name Ada --password '...'
  gatehousectl user set-role ada@example.com admin
  gatehousectl user revoke-sessions ada@example.com`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		migrateCmd(),
		userCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

// openStore loads the service configuration and opens its store with
// migrations applied.
func openStore() (store.Store, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	cryptox.SetPepperPath(cfg.PepperFile)
	return app.OpenStore(cfg)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gatehousectl %s\n", app.BuildVersion)
		},
	}
}
