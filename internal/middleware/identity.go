package middleware

// identity.go holds the context keys written by JWTAuth and the accessors
// handlers and other middleware use to read them.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

const (
    ctxUserID   = "user_id"
    ctxUsername = "username"
    ctxRole     = "role"
    ctxRequest  = "request_id"
)

// UserID returns the authenticated user's id, or 0 for anonymous requests.
func UserID(c echo.Context) int64 {
    s, _ := c.Get(ctxUserID).(string)
    id, err := strconv.ParseInt(s, 10, 64)
    if err != nil {
        return 0
    }
    return id
}

// Username returns the authenticated user's login name, if any.
func Username(c echo.Context) string {
    s, _ := c.Get(ctxUsername).(string)
    return s
}

// Role returns the role claim of the authenticated user, if any.
func Role(c echo.Context) string {
    s, _ := c.Get(ctxRole).(string)
    return s
}

// RequestID returns the id assigned by RequestLogger.
func RequestID(c echo.Context) string {
    s, _ := c.Get(ctxRequest).(string)
    return s
}

// currentUserID is the rate limiter's identity: the user id or "anon".
func currentUserID(c echo.Context) string {
    if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
        return s
    }
    return "anon"
}
