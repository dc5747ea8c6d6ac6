package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "taskhub",
	Short: "Task management REST API",
	Long:  `A multi-user task management API with accounts, tasks, comments and role based permissions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()
		return nil
	},
}

var adminFlags struct {
	username string
	email    string
	password string
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create the admin account if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		username := firstNonEmpty(adminFlags.username, a.cfg.AdminUsername)
		email := firstNonEmpty(adminFlags.email, a.cfg.AdminEmail)
		password := firstNonEmpty(adminFlags.password, a.cfg.AdminPassword)
		if password == "" {
			return fmt.Errorf("admin password is required (--password or ADMIN_PASSWORD)")
		}

		created, err := a.services.Auth.EnsureAdmin(cmd.Context(), username, email, password)
		if err != nil {
			return fmt.Errorf("failed to create admin: %w", err)
		}
		if created {
			fmt.Printf("admin user %q created\n", username)
		} else {
			fmt.Printf("user %q already exists\n", username)
		}
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminFlags.username, "username", "", "admin username (default ADMIN_USERNAME)")
	createAdminCmd.Flags().StringVar(&adminFlags.email, "email", "", "admin email (default ADMIN_EMAIL)")
	createAdminCmd.Flags().StringVar(&adminFlags.password, "password", "", "admin password (default ADMIN_PASSWORD)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
