package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hospital-admin/internal/repository"
)

// HealthHandler reports liveness for load balancers and, on the same call,
// whether the user store answers.
type HealthHandler struct {
    Store string // "mysql" or "memory"
    Users repository.UserStore
    Cache bool // redis reachable at startup
    Queue bool // view events go through the broker
}

// Health answers 200 with a small status document, or 503 when the store
// does not respond.
func (h *HealthHandler) Health(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    body := echo.Map{"status": "ok", "store": h.Store, "cache": h.Cache, "queue": h.Queue}
    if _, err := h.Users.Count(ctx); err != nil {
        body["status"] = "degraded"
        body["error"] = "store unavailable"
        return c.JSON(http.StatusServiceUnavailable, body)
    }
    return c.JSON(http.StatusOK, body)
}
