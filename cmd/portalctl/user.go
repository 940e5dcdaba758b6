package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/EmpoweredVote/news-portal/internal/auth"
	"github.com/spf13/cobra"
)

const passwordEnv = "PORTALCTL_PASSWORD"

type createUserOptions struct {
	email    string
	name     string
	role     string
	password string
}

func (o createUserOptions) validate() error {
	if strings.TrimSpace(o.email) == "" {
		return errors.New("--email is required")
	}
	if len(o.password) < 8 {
		return fmt.Errorf("password must be at least 8 characters (use --password or %s)", passwordEnv)
	}
	return nil
}

func newCreateUserCmd() *cobra.Command {
	var opts createUserOptions
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an admin user",
		Long: `Create a user that can log in to the admin area.

The password is read from --password or, to keep it out of shell history,
from the ` + passwordEnv + ` environment variable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.password == "" {
				opts.password = os.Getenv(passwordEnv)
			}
			if err := opts.validate(); err != nil {
				return err
			}

			conn, err := openDB()
			if err != nil {
				return err
			}
			if err := auth.Migrate(conn); err != nil {
				return err
			}
			user, err := auth.NewUserRepository(conn).Create(cmd.Context(), strings.TrimSpace(opts.email), opts.name, opts.role, opts.password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s)\n", user.ID, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.email, "email", "", "login email (exact, case-sensitive)")
	cmd.Flags().StringVar(&opts.name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.role, "role", "editor", "user role")
	cmd.Flags().StringVar(&opts.password, "password", "", "password (prefer "+passwordEnv+")")
	return cmd
}
