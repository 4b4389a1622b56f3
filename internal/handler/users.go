package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/hospital-admin/internal/model"
    "github.com/iliyamo/hospital-admin/internal/repository"
    "github.com/iliyamo/hospital-admin/internal/validation"
)

// UserHandler serves /api/users.
type UserHandler struct {
    Users      repository.UserStore
    V          *validation.Validator
    Log        logrus.FieldLogger
    BcryptCost int
}

func NewUserHandler(users repository.UserStore, v *validation.Validator, log logrus.FieldLogger, bcryptCost int) *UserHandler {
    return &UserHandler{Users: users, V: v, Log: log, BcryptCost: bcryptCost}
}

func (h *UserHandler) list(c echo.Context, q repository.UserQuery) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    users, err := h.Users.List(ctx, q)
    if err != nil {
        return storeError(c, h.Log, err, "user")
    }
    return c.JSON(http.StatusOK, users)
}

// List: GET /api/users, newest first.
func (h *UserHandler) List(c echo.Context) error { return h.list(c, repository.UserQuery{}) }

// ListActive: GET /api/users/active.
func (h *UserHandler) ListActive(c echo.Context) error {
    active := true
    return h.list(c, repository.UserQuery{Active: &active})
}

// ListByRole: GET /api/users/role/:role.
func (h *UserHandler) ListByRole(c echo.Context) error {
    role, ok := model.ParseRole(c.Param("role"))
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
    }
    return h.list(c, repository.UserQuery{Role: role})
}

// Search: GET /api/users/search?q=&role=.  An empty role or "ALL" means any.
func (h *UserHandler) Search(c echo.Context) error {
    q := repository.UserQuery{Term: strings.TrimSpace(c.QueryParam("q"))}
    if raw := strings.TrimSpace(c.QueryParam("role")); raw != "" && !strings.EqualFold(raw, "all") {
        role, ok := model.ParseRole(raw)
        if !ok {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
        }
        q.Role = role
    }
    return h.list(c, q)
}

func (h *UserHandler) Get(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return badID(c)
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    u, err := h.Users.GetByID(ctx, id)
    if err != nil {
        return storeError(c, h.Log, err, "user")
    }
    return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) GetByUsername(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    u, err := h.Users.GetByUsername(ctx, c.Param("username"))
    if err != nil {
        return storeError(c, h.Log, err, "user")
    }
    return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) GetByEmail(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    u, err := h.Users.GetByEmail(ctx, c.Param("email"))
    if err != nil {
        return storeError(c, h.Log, err, "user")
    }
    return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Create(c echo.Context) error {
    var req model.UserInput
    if ok, err := bindValid(c, h.V, &req); !ok {
        return err
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    u, err := h.Users.Create(ctx, req, h.BcryptCost)
    if err != nil {
        return storeError(c, h.Log, err, "user")
    }
    return c.JSON(http.StatusCreated, u)
}

// Update applies a partial update.  Demoting or renaming is allowed; the
// active flag has its own endpoints.
func (h *UserHandler) Update(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return badID(c)
    }
    var req model.UserUpdate
    if ok, err := bindValid(c, h.V, &req); !ok {
        return err
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    u, err := h.Users.Update(ctx, id, req, h.BcryptCost)
    if err != nil {
        return storeError(c, h.Log, err, "user")
    }
    return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Delete(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return badID(c)
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := h.Users.Delete(ctx, id); err != nil {
        return storeError(c, h.Log, err, "user")
    }
    return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) Activate(c echo.Context) error { return h.setActive(c, true) }

// Deactivate refuses ADMIN accounts with 409, mirroring the dashboard's
// guard for clients that call the API directly.
func (h *UserHandler) Deactivate(c echo.Context) error { return h.setActive(c, false) }

func (h *UserHandler) setActive(c echo.Context, active bool) error {
    id, ok := pathID(c)
    if !ok {
        return badID(c)
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    if !active {
        cur, err := h.Users.GetByID(ctx, id)
        if err != nil {
            return storeError(c, h.Log, err, "user")
        }
        if cur.IsAdmin() {
            return c.JSON(http.StatusConflict, echo.Map{"error": "admin accounts cannot be deactivated"})
        }
    }
    u, err := h.Users.SetActive(ctx, id, active)
    if err != nil {
        return storeError(c, h.Log, err, "user")
    }
    return c.JSON(http.StatusOK, u)
}

type roleReq struct {
    Role model.Role `json:"role" validate:"required,role"`
}

// UpdateRole: PUT /api/users/:id/role {role}.
func (h *UserHandler) UpdateRole(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return badID(c)
    }
    var req roleReq
    if ok, err := bindValid(c, h.V, &req); !ok {
        return err
    }
    role, _ := model.ParseRole(string(req.Role))
    ctx, cancel := dbCtx(c)
    defer cancel()
    u, err := h.Users.Update(ctx, id, model.UserUpdate{Role: &role}, h.BcryptCost)
    if err != nil {
        return storeError(c, h.Log, err, "user")
    }
    return c.JSON(http.StatusOK, u)
}
