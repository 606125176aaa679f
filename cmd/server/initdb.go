package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"parker/internal/application/orchestrators"
)

func (c *cli) initDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the schema and seed the administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer a.close()

			admin := c.cfg.Admin
			if admin.Password == "" {
				return errors.New("PARKER_ADMIN_PASSWORD is required to seed the administrator")
			}
			created, err := orchestrators.ExecuteSeedAdmin(cmd.Context(), orchestrators.SeedAdminInput{
				Email:    admin.Email,
				Name:     admin.Name,
				Password: admin.Password,
			}, a.seedAdminDeps())
			if err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}

			count, err := a.users.Count(cmd.Context())
			if err != nil {
				return err
			}
			verb := "updated"
			if created {
				verb = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database ready at %s. Administrator %s %s (%d users).\n", c.cfg.Database.Path, admin.Email, verb, count)
			return nil
		},
	}
}
