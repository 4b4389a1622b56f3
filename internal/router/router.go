package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hospital-admin/internal/config"
	"github.com/iliyamo/hospital-admin/internal/handler"    // handlers implementing the endpoints
	"github.com/iliyamo/hospital-admin/internal/middleware" // JWT, roles, rate limit, cache
	"github.com/iliyamo/hospital-admin/internal/model"
)

// Deps is everything New needs to assemble the API.  Redis may be nil, in
// which case caching and rate limiting are pass-through.
type Deps struct {
	Cfg       config.Config
	Log       logrus.FieldLogger
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	AuthLimit config.RateLimitConfig

	Health *handler.HealthHandler
	Auth   *handler.AuthHandler
	Users  *handler.UserHandler
	Blog   *handler.BlogHandler
}

// New builds the Echo instance with global middleware and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: d.Cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
	}))

	RegisterRoutes(e, d.Health)
	RegisterAuth(e, d.Auth, d.Cfg.JWTSecret, middleware.NewTokenBucket(d.AuthLimit, d.Redis, d.Log))

	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)
	RegisterUsers(e, d.Users, d.Cfg.JWTSecret, limit)
	RegisterBlog(e, d.Blog, d.Cfg.JWTSecret, limit,
		middleware.NewRedisCache(d.Cache, d.Redis, "blog", d.Log),
		middleware.PurgeOnWrite(d.Cache, d.Redis, "blog", d.Log))
	return e
}

// RegisterRoutes registers routes that do not require authentication and
// are not part of the API proper.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterAuth registers the authentication routes under /api/users/auth.
// Credential endpoints share the tighter limiter; /me requires a token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/api/users/auth")
	g.POST("/login", a.Login, limit)
	// an ADMIN token lets register pick a role; anonymous sign-ups are PATIENT
	g.POST("/register", a.Register, limit, middleware.OptionalJWT(jwtSecret))
	g.POST("/refresh", a.Refresh, limit)
	g.POST("/logout", a.Logout, middleware.OptionalJWT(jwtSecret))
	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterUsers registers /api/users.  Staff may read; only admins write.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/api/users", middleware.JWTAuth(jwtSecret), limit)
	read := middleware.RequireRole(model.RoleAdmin, model.RoleStaff)
	write := middleware.RequireRole(model.RoleAdmin)

	g.GET("", u.List, read)
	g.GET("/active", u.ListActive, read)
	g.GET("/search", u.Search, read)
	g.GET("/role/:role", u.ListByRole, read)
	g.GET("/username/:username", u.GetByUsername, read)
	g.GET("/email/:email", u.GetByEmail, read)
	g.GET("/:id", u.Get, read)

	g.POST("", u.Create, write)
	g.PUT("/:id", u.Update, write)
	g.DELETE("/:id", u.Delete, write)
	g.PUT("/:id/activate", u.Activate, write)
	g.PUT("/:id/deactivate", u.Deactivate, write)
	g.PUT("/:id/role", u.UpdateRole, write)
}

// RegisterBlog registers /api/blog.  Public reads go through the response
// cache; every management write purges it.  View increments are public
// and deliberately leave the cache alone.
func RegisterBlog(e *echo.Echo, b *handler.BlogHandler, jwtSecret string, limit, cache, purge echo.MiddlewareFunc) {
	g := e.Group("/api/blog", limit)

	g.GET("/published", b.Published, cache)
	g.GET("/featured", b.Featured, cache)
	g.GET("/recent", b.Recent, cache)
	g.GET("/categories", b.Categories, cache)
	g.GET("/:id", b.Get, cache)
	g.PUT("/:id/views", b.IncrementViews)

	manage := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleStaff),
	}
	write := append(append([]echo.MiddlewareFunc{}, manage...), purge)

	g.GET("", b.List, manage...)
	g.GET("/search", b.Search, manage...)
	g.POST("", b.Create, write...)
	g.DELETE("/bulk", b.BulkDelete, write...)
	g.PUT("/bulk/publish", b.BulkPublish, write...)
	g.PUT("/bulk/unpublish", b.BulkUnpublish, write...)
	g.PUT("/bulk/featured", b.BulkFeatured, write...)
	g.PUT("/:id", b.Update, write...)
	g.DELETE("/:id", b.Delete, write...)
	g.PUT("/:id/publish", b.Publish, write...)
	g.PUT("/:id/unpublish", b.Unpublish, write...)
	g.PUT("/:id/featured", b.SetFeatured, write...)
}
