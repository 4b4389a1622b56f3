package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http"               // HTTP status codes for responses
    "strings"               // string utilities for prefix checking and trimming

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject, username and role claims into the request
// context.  The provided secret must match the one used when issuing tokens.
// Handlers read the values back with UserID, Username and Role.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            claims, ok := parseBearer(c, secret)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing or invalid bearer token"})
            }
            // sub is the decimal user id; username and role are plain strings.
            sub, _ := claims["sub"].(string)
            if sub == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }
            c.Set(ctxUserID, sub)
            c.Set(ctxUsername, claims["username"])
            c.Set(ctxRole, claims["role"])
            return next(c)
        }
    }
}

// parseBearer reads and verifies the Authorization header.  Only HMAC
// signed tokens are accepted; expiry is enforced by the jwt parser.
func parseBearer(c echo.Context, secret string) (jwt.MapClaims, bool) {
    auth := c.Request().Header.Get("Authorization")
    if !strings.HasPrefix(auth, "Bearer ") {
        return nil, false
    }
    raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, echo.ErrUnauthorized
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return nil, false
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    return claims, ok
}

// OptionalJWT stores the claims of a valid bearer token like JWTAuth but
// lets requests without one (or with an invalid one) through anonymously.
func OptionalJWT(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if claims, ok := parseBearer(c, secret); ok {
                if sub, _ := claims["sub"].(string); sub != "" {
                    c.Set(ctxUserID, sub)
                    c.Set(ctxUsername, claims["username"])
                    c.Set(ctxRole, claims["role"])
                }
            }
            return next(c)
        }
    }
}
