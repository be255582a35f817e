package main

import (
	"fmt"

	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/spf13/cobra"
)

// seed admin
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Create the admin account from ADMIN_* settings if it does not exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, conn, err := bootDB()
		if err != nil {
			return err
		}
		defer db.Close()

		admin, err := db.SeedAdmin(conn, cfg.Admin)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Admin account: %s (%s)\n", admin.Email, admin.ID)
		return nil
	},
}
