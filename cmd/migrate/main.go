// migrate applies the embedded SQL migrations to the configured store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"multitenant-cms/internal/config"
	"multitenant-cms/internal/db/migrate"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply database migrations for the configured STORE_DRIVER and DATABASE_URL",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(directionCmd("up", "Apply all pending migrations"))
	root.AddCommand(directionCmd("down", "Revert all migrations"))
	return root
}

func directionCmd(direction, short string) *cobra.Command {
	return &cobra.Command{
		Use:   direction,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.StoreDriver == config.StoreMemory {
				return fmt.Errorf("migrate: STORE_DRIVER=memory has no schema; set postgres or sqlite")
			}
			if err := migrate.Run(cfg.StoreDriver, cfg.DatabaseURL, direction); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations %s: done\n", direction)
			return nil
		},
	}
}
