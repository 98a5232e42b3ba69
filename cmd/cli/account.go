package cli

import (
	"fmt"

	"example.com/photofeed/internal/auth"
	"example.com/photofeed/internal/session"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login <email> <password>",
	Short: "Log in and store the session token",
	Args:  cobra.ExactArgs(2),
	RunE:  runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register <email> <password> <username>",
	Short: "Create an account",
	Long: `Create an account. Registering does not log you in.

Examples:
  photofeed register nur@example.com secret nur`,
	Args: cobra.ExactArgs(3),
	RunE: runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a session token is stored",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
}

func authService(a *app) *auth.Service {
	return auth.NewService(a.client, a.session, a.events)
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd.Context())
	if err != nil {
		return err
	}
	if err := authService(a).Login(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	if jsonOut {
		return printJSON(map[string]any{"logged_in": true})
	}
	fmt.Fprintln(stdout, "Logged in.")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd.Context())
	if err != nil {
		return err
	}
	msg, err := authService(a).Register(cmd.Context(), args[0], args[1], args[2])
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(map[string]string{"message": msg})
	}
	fmt.Fprintln(stdout, msg)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd.Context())
	if err != nil {
		return err
	}
	authService(a).Logout(cmd.Context())
	if jsonOut {
		return printJSON(map[string]any{"logged_in": false})
	}
	fmt.Fprintln(stdout, "Logged out.")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd.Context())
	if err != nil {
		return err
	}
	view := a.session.Validate(cmd.Context(), nil)
	uid, _ := a.session.CurrentUserID(cmd.Context())

	if jsonOut {
		return printJSON(map[string]any{
			"view":      view.String(),
			"logged_in": view == session.ViewMain,
			"user_id":   uid,
		})
	}
	if view != session.ViewMain {
		fmt.Fprintln(stdout, "Not logged in.")
		return nil
	}
	if uid == "" {
		fmt.Fprintln(stdout, "Logged in.")
		return nil
	}
	fmt.Fprintf(stdout, "Logged in as %s.\n", uid)
	return nil
}
