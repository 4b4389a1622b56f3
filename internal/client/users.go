package client

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"

	"github.com/iliyamo/hospital-admin/internal/model"
)

// UserClient is the /api/users resource.
type UserClient struct {
	Resource[model.User, model.User]
}

func newUserClient(c *Client) *UserClient {
	return &UserClient{NewResource(c, "/api/users", func(u model.User) model.User { return u })}
}

func (u *UserClient) Create(ctx context.Context, in model.UserInput) (model.User, error) {
	return u.Resource.Create(ctx, in)
}

func (u *UserClient) Update(ctx context.Context, id int64, up model.UserUpdate) (model.User, error) {
	return u.Resource.Update(ctx, id, up)
}

func (u *UserClient) Activate(ctx context.Context, id int64) (model.User, error) {
	return u.Action(ctx, id, "activate", nil)
}

func (u *UserClient) Deactivate(ctx context.Context, id int64) (model.User, error) {
	return u.Action(ctx, id, "deactivate", nil)
}

func (u *UserClient) UpdateRole(ctx context.Context, id int64, role model.Role) (model.User, error) {
	return u.Action(ctx, id, "role", map[string]model.Role{"role": role})
}

func (u *UserClient) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return u.GetBy(ctx, "/username/"+url.PathEscape(username))
}

func (u *UserClient) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return u.GetBy(ctx, "/email/"+url.PathEscape(email))
}

func (u *UserClient) Active(ctx context.Context) ([]model.User, error) {
	return u.Fetch(ctx, "/active", nil)
}

func (u *UserClient) ByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	return u.Fetch(ctx, "/role/"+url.PathEscape(string(role)), nil)
}

type userSearchParams struct {
	Q    string `url:"q"`
	Role string `url:"role,omitempty"`
}

// Search asks the server for users whose username, email or full name
// contains term.  role narrows the result; "" or "ALL" means any role.
func (u *UserClient) Search(ctx context.Context, term, role string) ([]model.User, error) {
	if strings.EqualFold(role, "all") {
		role = ""
	}
	q, err := query.Values(userSearchParams{Q: term, Role: role})
	if err != nil {
		return nil, err
	}
	return u.Fetch(ctx, "/search", q)
}
