// seed loads the demo accounts, users and memberships into the configured SQL store.
// Idempotent: does nothing if the demo superuser already exists.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"multitenant-cms/internal/config"
	"multitenant-cms/internal/db/migrate"
	"multitenant-cms/internal/security"
	"multitenant-cms/internal/seed"
	"multitenant-cms/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var runMigrations bool
	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Insert the demo tenants and users",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.StoreDriver == config.StoreMemory {
				return fmt.Errorf("seed: STORE_DRIVER=memory is seeded by the server at startup")
			}
			if runMigrations {
				if err := migrate.Run(cfg.StoreDriver, cfg.DatabaseURL, "up"); err != nil {
					return fmt.Errorf("seed: migrate: %w", err)
				}
			}
			repos, err := storage.Open(cfg.StoreDriver, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer repos.Close()

			res, err := seed.Demo(context.Background(), repos, security.NewHasher(cfg.BcryptCost))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Skipped {
				fmt.Fprintln(out, "seed: demo data already present, nothing to do")
				return nil
			}
			fmt.Fprintf(out, "seed: created %d accounts, %d users, %d memberships\n", res.Accounts, res.Users, res.Memberships)
			for _, u := range seed.DemoUsers {
				fmt.Fprintf(out, "  %s / %s\n", u.Email, u.Password)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&runMigrations, "migrate", false, "apply pending migrations first")
	return cmd
}
