package middleware

import (
    "bytes"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/hospital-admin/internal/config"
    "github.com/iliyamo/hospital-admin/internal/model"
    "github.com/iliyamo/hospital-admin/internal/utils"
)

const secret = "test-secret"

func protected() *echo.Echo {
    e := echo.New()
    g := e.Group("", JWTAuth(secret), RequireRole(model.RoleAdmin, model.RoleStaff))
    g.GET("/who", func(c echo.Context) error {
        return c.JSON(http.StatusOK, echo.Map{"id": UserID(c), "username": Username(c), "role": Role(c)})
    })
    return e
}

func do(e *echo.Echo, token string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(http.MethodGet, "/who", nil)
    if token != "" {
        req.Header.Set("Authorization", "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestJWTAuthAndRole(t *testing.T) {
    e := protected()

    assert.Equal(t, http.StatusUnauthorized, do(e, "").Code)
    assert.Equal(t, http.StatusUnauthorized, do(e, "not-a-jwt").Code)

    other, err := utils.NewAccessToken("other-secret", 1, "admin", "ADMIN", 5)
    require.NoError(t, err)
    assert.Equal(t, http.StatusUnauthorized, do(e, other.Token).Code)

    expired, err := utils.NewAccessToken(secret, 1, "admin", "ADMIN", -1)
    require.NoError(t, err)
    assert.Equal(t, http.StatusUnauthorized, do(e, expired.Token).Code)

    patient, err := utils.NewAccessToken(secret, 2, "pat", "PATIENT", 5)
    require.NoError(t, err)
    assert.Equal(t, http.StatusForbidden, do(e, patient.Token).Code)

    staff, err := utils.NewAccessToken(secret, 3, "nurse", "STAFF", 5)
    require.NoError(t, err)
    rec := do(e, staff.Token)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"id":3,"username":"nurse","role":"STAFF"}`, rec.Body.String())
}

func TestRequestLoggerAssignsID(t *testing.T) {
    var buf bytes.Buffer
    log := logrus.New()
    log.SetOutput(&buf)
    log.SetFormatter(&logrus.JSONFormatter{})

    e := echo.New()
    e.Use(RequestLogger(log))
    e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, RequestID(c)) })

    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
    rid := rec.Header().Get(echo.HeaderXRequestID)
    require.NotEmpty(t, rid)
    assert.Equal(t, rid, rec.Body.String())
    assert.Contains(t, buf.String(), rid)

    req := httptest.NewRequest(http.MethodGet, "/missing", nil)
    req.Header.Set(echo.HeaderXRequestID, "given-id")
    rec = httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Equal(t, "given-id", rec.Header().Get(echo.HeaderXRequestID))
    assert.Contains(t, buf.String(), "request rejected")
}

func TestCacheKeysAreNamespaced(t *testing.T) {
    cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
    e := echo.New()
    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/blog/published?x=1", nil), httptest.NewRecorder())
    c.SetPath("/api/blog/published")

    blog := cacheKeyFrom(cfg, "blog", c)
    assert.Regexp(t, `^cache:blog:[0-9a-f]{40}$`, blog)
    assert.NotEqual(t, blog, cacheKeyFrom(cfg, "users", c))
}

func TestCacheDisabledWithoutRedis(t *testing.T) {
    cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute}
    log := logrus.New()
    e := echo.New()
    calls := 0
    e.GET("/x", func(c echo.Context) error { calls++; return c.String(http.StatusOK, "x") },
        NewRedisCache(cfg, nil, "blog", log))
    e.PUT("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
        PurgeOnWrite(cfg, nil, "blog", log))

    for i := 0; i < 2; i++ {
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
        assert.Empty(t, rec.Header().Get("X-Cache"))
    }
    assert.Equal(t, 2, calls)

    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/x", nil))
    assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateKeyStrategies(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/api/users/auth/login", nil)
    req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/api/users/auth/login")

    assert.Equal(t, "rl:auth:ip:10.0.0.1:route:POST /api/users/auth/login",
        buildRateKey(config.RateLimitConfig{Prefix: "rl:auth", KeyStrategy: "ip_route"}, c))
    c.Set(ctxUserID, "42")
    assert.Equal(t, "rl:user:42", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))
}
