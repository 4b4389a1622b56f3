package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"
)

// RequestLogger assigns every request an id (reusing an incoming
// X-Request-ID), echoes it in the response and logs one line per request.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            req := c.Request()
            rid := req.Header.Get(echo.HeaderXRequestID)
            if rid == "" {
                rid = uuid.NewString()
            }
            c.Set(ctxRequest, rid)
            c.Response().Header().Set(echo.HeaderXRequestID, rid)

            err := next(c)
            if err != nil {
                // Let echo write the error response so the status is final.
                c.Error(err)
            }

            status := c.Response().Status
            entry := log.WithFields(logrus.Fields{
                "request_id": rid,
                "method":     req.Method,
                "path":       c.Path(),
                "uri":        req.RequestURI,
                "status":     status,
                "latency_ms": time.Since(start).Milliseconds(),
                "ip":         c.RealIP(),
            })
            if uid := currentUserID(c); uid != "anon" {
                entry = entry.WithField("user_id", uid)
            }
            switch {
            case status >= 500:
                entry.WithError(err).Error("request failed")
            case status >= 400:
                entry.Warn("request rejected")
            default:
                entry.Info("request")
            }
            return nil
        }
    }
}
