package handler // handler defines http handlers

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/hospital-admin/internal/repository"
    "github.com/iliyamo/hospital-admin/internal/validation"
)

// dbTimeout bounds every store call made from a handler.
const dbTimeout = 5 * time.Second

func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (int64, bool) {
    id, err := strconv.ParseInt(c.Param("id"), 10, 64)
    if err != nil || id <= 0 {
        return 0, false
    }
    return id, true
}

func badID(c echo.Context) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
}

// bindValid binds the request body into dst and validates it.  On failure
// the 400 response has already been written and ok is false.
func bindValid(c echo.Context, v *validation.Validator, dst any) (bool, error) {
    if err := c.Bind(dst); err != nil {
        return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := v.Struct(dst); err != nil {
        msgs := v.Messages(err)
        return false, c.JSON(http.StatusBadRequest, echo.Map{"error": msgs[0], "details": msgs})
    }
    return true, nil
}

// storeError maps repository sentinels onto HTTP responses.  Anything
// unexpected is logged and answered with 500 and a generic message.
func storeError(c echo.Context, log logrus.FieldLogger, err error, what string) error {
    switch {
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": what + " not found"})
    case errors.Is(err, repository.ErrUsernameExists):
        return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
    case errors.Is(err, repository.ErrEmailExists):
        return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": what + " conflicts with existing data"})
    }
    log.WithError(err).WithField("path", c.Path()).Error("store call failed")
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
