// Package testserver runs the real API router on in-memory stores behind
// an httptest.Server.  Tests of the router, the HTTP client and the
// dashboard share it.
package testserver

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hospital-admin/internal/config"
	"github.com/iliyamo/hospital-admin/internal/handler"
	"github.com/iliyamo/hospital-admin/internal/logging"
	"github.com/iliyamo/hospital-admin/internal/model"
	"github.com/iliyamo/hospital-admin/internal/repository"
	"github.com/iliyamo/hospital-admin/internal/router"
	"github.com/iliyamo/hospital-admin/internal/utils"
	"github.com/iliyamo/hospital-admin/internal/validation"
)

const (
	AdminUsername = "admin"
	AdminPassword = "admin123"
	Secret        = "test-secret"
)

// Server is a running API with direct access to its stores.
type Server struct {
	*httptest.Server
	Cfg    config.Config
	Users  *repository.MemoryUserStore
	Posts  *repository.MemoryBlogStore
	Tokens *repository.MemoryTokenStore
	Admin  model.User
}

// New starts a server with one seeded ADMIN account.  It is closed when
// the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	cfg := config.Config{
		Env:            "test",
		Store:          config.StoreMemory,
		JWTSecret:      Secret,
		AccessTTLMin:   15,
		RefreshTTLDays: 1,
		BcryptCost:     4,
		CORSOrigins:    []string{"*"},
	}
	log := logging.Discard()
	v := validation.New()
	s := &Server{
		Cfg:    cfg,
		Users:  repository.NewMemoryUserStore(),
		Posts:  repository.NewMemoryBlogStore(),
		Tokens: repository.NewMemoryTokenStore(),
	}
	admin, err := s.Users.Create(context.Background(), model.UserInput{
		Username: AdminUsername,
		Email:    "admin@clinic.test",
		FullName: "Admin",
		Password: AdminPassword,
		Role:     model.RoleAdmin,
	}, cfg.BcryptCost)
	require.NoError(t, err)
	s.Admin = admin

	e := router.New(router.Deps{
		Cfg:    cfg,
		Log:    log,
		Health: &handler.HealthHandler{Store: cfg.Store, Users: s.Users},
		Auth:   handler.NewAuthHandler(cfg, s.Users, s.Tokens, v, log),
		Users:  handler.NewUserHandler(s.Users, v, log, cfg.BcryptCost),
		Blog:   handler.NewBlogHandler(s.Posts, v, log, nil),
	})
	s.Server = httptest.NewServer(e)
	t.Cleanup(s.Close)
	return s
}

// Token signs an access token for u with the server secret.
func (s *Server) Token(t testing.TB, u model.User) string {
	t.Helper()
	tok, err := utils.NewAccessToken(Secret, u.ID, u.Username, string(u.Role), 15)
	require.NoError(t, err)
	return tok.Token
}

// AdminToken is Token(s.Admin).
func (s *Server) AdminToken(t testing.TB) string { return s.Token(t, s.Admin) }

// SeedUser creates an account directly in the store.
func (s *Server) SeedUser(t testing.TB, username string, role model.Role, active bool) model.User {
	t.Helper()
	ctx := context.Background()
	u, err := s.Users.Create(ctx, model.UserInput{
		Username: username,
		Email:    username + "@clinic.test",
		FullName: "User " + username,
		Password: "secret1",
		Role:     role,
	}, s.Cfg.BcryptCost)
	require.NoError(t, err)
	if !active {
		u, err = s.Users.SetActive(ctx, u.ID, false)
		require.NoError(t, err)
	}
	return u
}

// SeedPost creates a post directly in the store.
func (s *Server) SeedPost(t testing.TB, title, category string, status model.Status, featured bool) model.BlogPost {
	t.Helper()
	p, err := s.Posts.Create(context.Background(), model.BlogPostInput{
		Title:      title,
		Content:    "content of " + title,
		Category:   category,
		Status:     status,
		IsFeatured: &featured,
		Author:     "Dr. Test",
	})
	require.NoError(t, err)
	return p
}
