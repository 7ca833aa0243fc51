package main

import (
	"fmt"

	"github.com/harunnryd/eventcorner/internal/auth"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Save the session used for backend calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireConfig(); err != nil {
			return err
		}

		user, _ := cmd.Flags().GetString("user")
		token, _ := cmd.Flags().GetString("token")
		role, _ := cmd.Flags().GetString("role")
		email, _ := cmd.Flags().GetString("email")

		store := auth.NewStore(cfg.Auth.SessionPath)
		if err := store.Save(auth.Context{UserID: user, Token: token, Role: role, Email: email}); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged in as %s\n", user)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireConfig(); err != nil {
			return err
		}
		if err := auth.NewStore(cfg.Auth.SessionPath).Clear(); err != nil {
			return fmt.Errorf("logout failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAuth()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !ac.Authenticated() {
			fmt.Fprintln(out, "Not logged in.")
			return nil
		}
		fmt.Fprintf(out, "User:  %s\n", ac.UserID)
		if ac.Role != "" {
			fmt.Fprintf(out, "Role:  %s\n", ac.Role)
		}
		if ac.Email != "" {
			fmt.Fprintf(out, "Email: %s\n", ac.Email)
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().String("user", "", "user id")
	loginCmd.Flags().String("token", "", "bearer token")
	loginCmd.Flags().String("role", "", "user role")
	loginCmd.Flags().String("email", "", "user email")
	_ = loginCmd.MarkFlagRequired("user")
	_ = loginCmd.MarkFlagRequired("token")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}
