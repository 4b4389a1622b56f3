package filter

import (
	"strconv"
	"time"

	"github.com/iliyamo/hospital-admin/internal/model"
)

// Filter names understood by the user and blog lists.
const (
	Role     = "role"
	Status   = "status"
	Category = "category"
	Featured = "featured"
)

// Values of the user status filter.
const (
	Active   = "active"
	Inactive = "inactive"
)

// UserFields searches username, email and full name.  "status" is
// active or inactive.
var UserFields = Fields[model.User]{
	ID:   func(u model.User) int64 { return u.ID },
	Text: func(u model.User) []string { return []string{u.Username, u.Email, u.FullName} },
	Values: map[string]func(model.User) string{
		Role: func(u model.User) string { return string(u.Role) },
		Status: func(u model.User) string {
			if u.IsActive {
				return Active
			}
			return Inactive
		},
	},
	Created:      func(u model.User) time.Time { return u.CreatedAt },
	RemoteFilter: Role,
}

// BlogFields searches title, content, excerpt and author.  "category" is
// the category slug and "featured" is true or false.
var BlogFields = Fields[model.BlogPost]{
	ID: func(p model.BlogPost) int64 { return p.ID },
	Text: func(p model.BlogPost) []string {
		return []string{p.Title, p.Content, p.Excerpt, p.Author}
	},
	Values: map[string]func(model.BlogPost) string{
		Category: func(p model.BlogPost) string { return p.CategorySlug },
		Status:   func(p model.BlogPost) string { return string(p.Status) },
		Featured: func(p model.BlogPost) string { return strconv.FormatBool(p.IsFeatured) },
	},
	Created:      func(p model.BlogPost) time.Time { return p.CreatedAt },
	RemoteFilter: Category,
}
