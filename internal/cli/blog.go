package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iliyamo/hospital-admin/internal/bulk"
	"github.com/iliyamo/hospital-admin/internal/dashboard"
	"github.com/iliyamo/hospital-admin/internal/filter"
	"github.com/iliyamo/hospital-admin/internal/model"
)

func newBlogCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "blog",
		Aliases: []string{"b"},
		Short:   "Blog content management",
	}
	cmd.AddCommand(
		loggedIn(app, newBlogListCmd(app)),
		loggedIn(app, newBlogCreateCmd(app)),
		loggedIn(app, newBlogBulkCmd(app, bulk.Publish, "Publish posts")),
		loggedIn(app, newBlogBulkCmd(app, bulk.Unpublish, "Move posts back to draft")),
		loggedIn(app, newBlogBulkCmd(app, bulk.Feature, "Mark posts as featured")),
		loggedIn(app, newBlogBulkCmd(app, bulk.Unfeature, "Remove the featured mark")),
		loggedIn(app, newBlogBulkCmd(app, bulk.Delete, "Delete posts")),
		newBlogViewCmd(app),
		newBlogCategoriesCmd(app),
	)
	return cmd
}

// loggedIn makes cmd fail early without a session.  Public blog commands
// skip it.
func loggedIn(app *App, cmd *cobra.Command) *cobra.Command {
	run := cmd.RunE
	cmd.RunE = func(c *cobra.Command, args []string) error {
		if err := app.requireLogin(); err != nil {
			return err
		}
		return run(c, args)
	}
	return cmd
}

func newBlogListCmd(app *App) *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts of every status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := lf.criteria()
			if err != nil {
				return err
			}
			l := dashboard.NewBlogList(app.Client, app.options(false))
			if err := l.Refresh(ctx); err != nil {
				return err
			}
			printPosts(app, l.SetCriteria(ctx, c))
			return nil
		},
	}
	addListFlags(cmd, &lf, filter.Category, filter.Status, filter.Featured)
	return cmd
}

func printPosts(app *App, posts []model.BlogPost) {
	tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tSTATUS\tFEATURED\tVIEWS\tCREATED")
	for _, p := range posts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%d\t%s\n",
			p.ID, p.Title, p.CategorySlug, p.Status, p.IsFeatured, p.Views, p.CreatedAt.Local().Format("2006-01-02"))
	}
	_ = tw.Flush()
	fmt.Fprintf(app.out, "%d posts\n", len(posts))
}

func newBlogCreateCmd(app *App) *cobra.Command {
	var (
		in       model.BlogPostInput
		status   string
		featured bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a post; it starts as a draft unless --status published",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" {
				st, err := model.ParseStatus(status)
				if err != nil {
					return err
				}
				in.Status = st
			}
			if cmd.Flags().Changed("featured") {
				in.IsFeatured = &featured
			}
			l := dashboard.NewBlogList(app.Client, app.options(false))
			_, err := l.Create(cmd.Context(), in)
			return bulkErr(err)
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "title")
	f.StringVar(&in.Content, "content", "", "body")
	f.StringVar(&in.Excerpt, "excerpt", "", "short summary")
	f.StringVar(&in.Image, "image", "", "image URL")
	f.StringVar(&in.Category, "category", "", "category name")
	f.StringVar(&in.Author, "author", "", "author")
	f.StringVar(&in.ReadTime, "read-time", "", `reading time label, e.g. "5 phút"`)
	f.StringVar(&status, "status", "", "draft or published")
	f.BoolVar(&featured, "featured", false, "mark as featured")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("content")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newBlogBulkCmd(app *App, kind bulk.Kind, short string) *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:   string(kind) + " [id...]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := dashboard.NewBlogList(app.Client, app.options(lf.yes))
			if err := prepareSelection(ctx, l.List, &lf, args); err != nil {
				return err
			}
			_, err := l.Bulk(ctx, kind)
			return bulkErr(err)
		},
	}
	addListFlags(cmd, &lf, filter.Category, filter.Status, filter.Featured)
	addBulkFlags(cmd, &lf)
	return cmd
}

func newBlogViewCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "view <id>",
		Short: "Show a post and count the view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			l := dashboard.NewBlogList(app.Client, app.options(false))
			p, err := l.View(cmd.Context(), id)
			if err != nil {
				return reported{err}
			}
			fmt.Fprintf(app.out, "%s\n%s | %s | %s | %d views\n\n%s\n", p.Title, p.Category, p.Status, p.Author, p.Views, p.Content)
			return nil
		},
	}
}

func newBlogCategoriesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories with their published post counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l := dashboard.NewBlogList(app.Client, app.options(false))
			cats, err := l.Categories(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
			for _, c := range cats {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Value, c.Label, c.Count)
			}
			return tw.Flush()
		},
	}
}
