package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/iliyamo/hospital-admin/internal/model"
	"github.com/iliyamo/hospital-admin/internal/notify"
)

func newLoginCmd(app *App) *cobra.Command {
	var (
		username string
		password string
		remember bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var err error
			if username == "" {
				if username, err = app.prompt("Username or email", app.Session.SavedUsername(ctx)); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = app.prompt("Password", ""); err != nil {
					return err
				}
			}
			u, err := app.Session.Login(ctx, app.Client.Auth(), username, password, remember)
			if err != nil {
				app.Notify.Notify(notify.Notification{Level: notify.Error, Message: "login failed: " + err.Error()})
				return reported{err}
			}
			app.Notify.Notify(notify.Notification{
				Level:   notify.Success,
				Message: fmt.Sprintf("signed in as %s (%s)", u.Username, u.Role.Label()),
			})
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username or email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when empty)")
	cmd.Flags().BoolVar(&remember, "remember", true, "keep the session after this command exits")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	var forget bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Revoke and clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.Session.Logout(ctx, app.Client.Auth()); err != nil {
				return err
			}
			if forget {
				if err := app.Session.ClearAll(ctx); err != nil {
					return err
				}
			}
			app.Notify.Notify(notify.Notification{Level: notify.Success, Message: "signed out"})
			return nil
		},
	}
	cmd.Flags().BoolVar(&forget, "forget", false, "also forget the saved username")
	return cmd
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			u, err := app.Client.Auth().Me(cmd.Context())
			if err != nil {
				// the server may be down; fall back to what was stored at login
				stored, serr := app.Session.User(cmd.Context())
				if serr != nil {
					return err
				}
				u = stored
			}
			printUser(app.out, u)
			return nil
		},
	}
}

func printUser(w io.Writer, u model.User) {
	fmt.Fprintf(w, "%s <%s>\n  name:   %s\n  role:   %s\n  active: %t\n", u.Username, u.Email, u.FullName, u.Role.Label(), u.IsActive)
}
