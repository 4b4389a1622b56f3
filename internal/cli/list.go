package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/hospital-admin/internal/dashboard"
	"github.com/iliyamo/hospital-admin/internal/filter"
)

// listFlags are the filter flags shared by list and bulk commands.
type listFlags struct {
	search  string
	filters map[string]*string
	from    string
	to      string
	all     bool
	yes     bool
}

func addListFlags(cmd *cobra.Command, lf *listFlags, names ...string) {
	lf.filters = map[string]*string{}
	cmd.Flags().StringVarP(&lf.search, "search", "s", "", "free-text search")
	for _, n := range names {
		lf.filters[n] = cmd.Flags().String(n, "", "filter by "+n+` ("all" for any)`)
	}
	cmd.Flags().StringVar(&lf.from, "from", "", "created on or after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&lf.to, "to", "", "created on or before (YYYY-MM-DD)")
}

func addBulkFlags(cmd *cobra.Command, lf *listFlags) {
	cmd.Flags().BoolVar(&lf.all, "all", false, "select every item matching the filters instead of ids")
	cmd.Flags().BoolVarP(&lf.yes, "yes", "y", false, "do not ask for confirmation")
}

func (lf *listFlags) criteria() (filter.Criteria, error) {
	c := filter.Criteria{Term: lf.search}
	for name, v := range lf.filters {
		c = c.Set(name, *v)
	}
	var err error
	if c.From, err = parseDay(lf.from); err != nil {
		return c, fmt.Errorf("--from: %w", err)
	}
	if c.To, err = parseDay(lf.to); err != nil {
		return c, fmt.Errorf("--to: %w", err)
	}
	return c, nil
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("2006-01-02", s, time.Local)
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// prepareSelection loads the list and selects either the given ids or,
// with --all, everything the filters leave visible.
func prepareSelection[T any](ctx context.Context, l *dashboard.List[T], lf *listFlags, args []string) error {
	if lf.all == (len(args) > 0) {
		return fmt.Errorf("give ids or --all, not both or neither")
	}
	if err := l.Refresh(ctx); err != nil {
		return err
	}
	if lf.all {
		c, err := lf.criteria()
		if err != nil {
			return err
		}
		l.SetCriteria(ctx, c)
		l.SelectVisible()
		return nil
	}
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	l.Select(ids...)
	return nil
}

func bulkErr(err error) error {
	if err == nil {
		return nil
	}
	return reported{err}
}
