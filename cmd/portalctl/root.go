package main

import (
	"fmt"

	"github.com/EmpoweredVote/news-portal/internal/auth"
	"github.com/EmpoweredVote/news-portal/internal/config"
	"github.com/EmpoweredVote/news-portal/internal/content"
	"github.com/EmpoweredVote/news-portal/internal/db"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "portalctl",
		Short: "News portal admin CLI",
		Long: `portalctl manages the news portal database outside the web server.

Example usage:
  portalctl migrate
  portalctl create-user --email editor@example.com --name "Ana Ruiz"
  portalctl seed content.yaml`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newCreateUserCmd(), newSeedCmd())
	return root
}

// openDB loads configuration the same way the server does and connects.
func openDB() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return db.Connect(cfg)
}

func migrate(conn *gorm.DB) error {
	if err := auth.Migrate(conn); err != nil {
		return err
	}
	return content.Migrate(conn)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update all tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openDB()
			if err != nil {
				return err
			}
			if err := migrate(conn); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
