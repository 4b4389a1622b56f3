package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iliyamo/hospital-admin/internal/bulk"
	"github.com/iliyamo/hospital-admin/internal/dashboard"
	"github.com/iliyamo/hospital-admin/internal/filter"
	"github.com/iliyamo/hospital-admin/internal/model"
)

func newUsersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"u"},
		Short:   "User management",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return app.requireLogin()
		},
	}
	cmd.AddCommand(
		newUsersListCmd(app),
		newUsersBulkCmd(app, bulk.Activate, "Activate inactive users"),
		newUsersBulkCmd(app, bulk.Deactivate, "Deactivate active users; admins are skipped"),
		newUsersBulkCmd(app, bulk.Delete, "Delete users"),
		newUsersRoleCmd(app),
		newUsersImportCmd(app),
	)
	return cmd
}

func newUsersListCmd(app *App) *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := lf.criteria()
			if err != nil {
				return err
			}
			l := dashboard.NewUserList(app.Client, app.options(false))
			if err := l.Refresh(ctx); err != nil {
				return err
			}
			printUsers(app, l.SetCriteria(ctx, c))
			return nil
		},
	}
	addListFlags(cmd, &lf, filter.Role, filter.Status)
	return cmd
}

func printUsers(app *App, users []model.User) {
	tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tNAME\tROLE\tACTIVE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%t\t%s\n",
			u.ID, u.Username, u.Email, u.FullName, u.Role, u.IsActive, u.CreatedAt.Local().Format("2006-01-02"))
	}
	_ = tw.Flush()
	fmt.Fprintf(app.out, "%d users\n", len(users))
}

func newUsersBulkCmd(app *App, kind bulk.Kind, short string) *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:   string(kind) + " [id...]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := dashboard.NewUserList(app.Client, app.options(lf.yes))
			if err := prepareSelection(ctx, l.List, &lf, args); err != nil {
				return err
			}
			_, err := l.Bulk(ctx, kind)
			return bulkErr(err)
		},
	}
	addListFlags(cmd, &lf, filter.Role, filter.Status)
	addBulkFlags(cmd, &lf)
	return cmd
}

func newUsersRoleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "role <id> <role>",
		Short: "Change the role of a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			role, ok := model.ParseRole(args[1])
			if !ok {
				return fmt.Errorf("unknown role %q", args[1])
			}
			l := dashboard.NewUserList(app.Client, app.options(false))
			_, err = l.UpdateRole(cmd.Context(), id, role)
			return bulkErr(err)
		},
	}
}

func newUsersImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Create users from a CSV file",
		Long:  "The CSV needs a header naming username, email, fullName, password and role; phone is optional.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			l := dashboard.NewUserList(app.Client, app.options(false))
			res, err := l.Import(cmd.Context(), f)
			for _, bad := range append(res.Invalid, res.Failed...) {
				fmt.Fprintf(app.out, "  line %d (%s): %v\n", bad.Line, bad.Username, bad.Messages)
			}
			return bulkErr(err)
		},
	}
}
