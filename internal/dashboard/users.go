package dashboard

import (
	"context"
	"fmt"

	"github.com/iliyamo/hospital-admin/internal/bulk"
	"github.com/iliyamo/hospital-admin/internal/client"
	"github.com/iliyamo/hospital-admin/internal/filter"
	"github.com/iliyamo/hospital-admin/internal/model"
)

// UserList is the user management screen.
type UserList struct {
	*List[model.User]
	users *client.UserClient
	bulk  *bulk.Orchestrator[model.User]
	opts  Options
}

// NewUserList builds the controller; call Refresh to load it.
func NewUserList(c *client.Client, opts Options) *UserList {
	opts = opts.withDefaults()
	users := c.Users()
	return &UserList{
		List:  newList(users.List, filter.UserFields, users.Search, opts.Log),
		users: users,
		opts:  opts,
		bulk: bulk.New(bulk.Config[model.User]{
			Noun:        "user",
			Executor:    bulk.UserExecutor{Users: users},
			Rules:       bulk.UserRules(),
			Confirmer:   opts.Confirmer,
			Notifier:    opts.Notifier,
			Log:         opts.Log,
			Concurrency: opts.Concurrency,
		}),
	}
}

// Bulk applies kind to the selection.
func (l *UserList) Bulk(ctx context.Context, kind bulk.Kind) (bulk.Result, error) {
	return l.bulk.Run(ctx, l.List, kind)
}

// after finishes a single-item operation: one notification, then a refresh
// so the list shows the server's state.
func (l *UserList) after(ctx context.Context, err error, msg string) error {
	if err != nil {
		l.opts.fail(err)
		return err
	}
	if rerr := l.Refresh(ctx); rerr != nil {
		l.opts.Log.WithError(rerr).Warn("refresh failed")
	}
	l.opts.success(msg)
	return nil
}

func (l *UserList) Create(ctx context.Context, in model.UserInput) (model.User, error) {
	u, err := l.users.Create(ctx, in)
	return u, l.after(ctx, err, fmt.Sprintf("user %s created", in.Username))
}

func (l *UserList) Update(ctx context.Context, id int64, up model.UserUpdate) (model.User, error) {
	u, err := l.users.Update(ctx, id, up)
	return u, l.after(ctx, err, fmt.Sprintf("user %d updated", id))
}

func (l *UserList) Delete(ctx context.Context, id int64) error {
	return l.after(ctx, l.users.Delete(ctx, id), fmt.Sprintf("user %d deleted", id))
}

func (l *UserList) Activate(ctx context.Context, id int64) (model.User, error) {
	u, err := l.users.Activate(ctx, id)
	return u, l.after(ctx, err, fmt.Sprintf("user %s activated", u.Username))
}

// Deactivate refuses admin accounts locally; the server refuses them too.
// An id missing from the loaded list is looked up first.
func (l *UserList) Deactivate(ctx context.Context, id int64) (model.User, error) {
	target, ok := l.Item(id)
	if !ok {
		var err error
		if target, err = l.users.Get(ctx, id); err != nil {
			l.opts.fail(err)
			return model.User{}, err
		}
	}
	if target.IsAdmin() {
		err := &bulk.GuardError{Err: bulk.ErrNoEligible, Message: bulk.AdminDeactivateMessage}
		l.opts.fail(err)
		return target, err
	}
	u, err := l.users.Deactivate(ctx, id)
	return u, l.after(ctx, err, fmt.Sprintf("user %s deactivated", u.Username))
}

func (l *UserList) UpdateRole(ctx context.Context, id int64, role model.Role) (model.User, error) {
	if !role.Valid() {
		err := fmt.Errorf("unknown role %q", role)
		l.opts.fail(err)
		return model.User{}, err
	}
	u, err := l.users.UpdateRole(ctx, id, role)
	return u, l.after(ctx, err, fmt.Sprintf("user %s is now %s", u.Username, u.Role.Label()))
}
