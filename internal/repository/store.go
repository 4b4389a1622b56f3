package repository

import (
	"context"
	"time"

	"github.com/iliyamo/hospital-admin/internal/model"
)

// UserQuery narrows a user listing.  Zero fields are ignored.
type UserQuery struct {
	Term   string // substring of username, email or full name
	Role   model.Role
	Active *bool
}

// BlogQuery narrows a blog listing.  Zero fields are ignored.
type BlogQuery struct {
	Term         string // substring of title, content, excerpt or author
	CategorySlug string
	Status       model.Status
	Featured     *bool
	Limit        int
}

// UserStore persists user accounts.  Listings are newest first.
type UserStore interface {
	Create(ctx context.Context, in model.UserInput, bcryptCost int) (model.User, error)
	List(ctx context.Context, q UserQuery) ([]model.User, error)
	GetByID(ctx context.Context, id int64) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	// Credentials looks an account up by username or email and returns it
	// with its password hash.
	Credentials(ctx context.Context, usernameOrEmail string) (model.User, string, error)
	Update(ctx context.Context, id int64, up model.UserUpdate, bcryptCost int) (model.User, error)
	SetActive(ctx context.Context, id int64, active bool) (model.User, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// BlogStore persists blog posts.  Listings are newest first.  The *Many
// operations skip ids that do not exist and report how many rows changed.
type BlogStore interface {
	Create(ctx context.Context, in model.BlogPostInput) (model.BlogPost, error)
	List(ctx context.Context, q BlogQuery) ([]model.BlogPost, error)
	Get(ctx context.Context, id int64) (model.BlogPost, error)
	Update(ctx context.Context, id int64, up model.BlogPostUpdate) (model.BlogPost, error)
	SetStatus(ctx context.Context, id int64, s model.Status) (model.BlogPost, error)
	SetFeatured(ctx context.Context, id int64, featured bool) (model.BlogPost, error)
	IncrementViews(ctx context.Context, id int64) (model.BlogPost, error)
	Delete(ctx context.Context, id int64) error
	Categories(ctx context.Context) ([]model.Category, error)

	DeleteMany(ctx context.Context, ids []int64) (int, error)
	SetStatusMany(ctx context.Context, ids []int64, s model.Status) (int, error)
	SetFeaturedMany(ctx context.Context, ids []int64, featured bool) (int, error)
}

// TokenStore persists hashed refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID int64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (int64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
}

// normalizeRole upper-cases a validated role; unknown or empty values
// become PATIENT.
func normalizeRole(r model.Role) model.Role {
	if parsed, ok := model.ParseRole(string(r)); ok {
		return parsed
	}
	return model.RolePatient
}
