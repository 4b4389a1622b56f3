package handler

import (
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/hospital-admin/internal/config"     // app configuration
    "github.com/iliyamo/hospital-admin/internal/middleware" // identity accessors
    "github.com/iliyamo/hospital-admin/internal/model"
    "github.com/iliyamo/hospital-admin/internal/repository" // stores
    "github.com/iliyamo/hospital-admin/internal/utils"      // hashing, token issuing
    "github.com/iliyamo/hospital-admin/internal/validation"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  repository.UserStore
	Tokens repository.TokenStore
	V      *validation.Validator
	Log    logrus.FieldLogger
}

func NewAuthHandler(cfg config.Config, u repository.UserStore, t repository.TokenStore, v *validation.Validator, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, V: v, Log: log}
}

// ----- DTOs -----

type loginReq struct {
	UsernameOrEmail string `json:"usernameOrEmail" validate:"required"`
	Password        string `json:"password" validate:"required"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	TokenType    string     `json:"tokenType"`
	User         model.User `json:"user"`
}

// issue creates an access/refresh pair for u and persists the refresh hash.
func (h *AuthHandler) issue(c echo.Context, u model.User) (AuthResponse, error) {
	ctx, cancel := dbCtx(c)
	defer cancel()
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Username, string(u.Role), h.Cfg.AccessTTLMin)
	if err != nil {
		return AuthResponse{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return AuthResponse{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return AuthResponse{}, err
	}
	return AuthResponse{AccessToken: access.Token, RefreshToken: refresh.Raw, TokenType: "Bearer", User: u}, nil
}

// Register: create a user and return tokens immediately.  Self service
// sign-ups are always PATIENT; only an authenticated ADMIN may pick the role.
func (h *AuthHandler) Register(c echo.Context) error {
	var req model.UserInput
	if ok, err := bindValid(c, h.V, &req); !ok {
		return err
	}
	if middleware.Role(c) != string(model.RoleAdmin) {
		req.Role = model.RolePatient
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.Create(ctx, req, h.Cfg.BcryptCost)
	if err != nil {
		return storeError(c, h.Log, err, "user")
	}
	resp, err := h.issue(c, u)
	if err != nil {
		h.Log.WithError(err).Error("issue tokens failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login: verify credentials of an active account and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if ok, err := bindValid(c, h.V, &req); !ok {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	u, hash, err := h.Users.Credentials(ctx, req.UsernameOrEmail)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return storeError(c, h.Log, err, "user")
	}
	if !utils.VerifyPassword(hash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account is deactivated"})
	}

	resp, err := h.issue(c, u)
	if err != nil {
		h.Log.WithError(err).Error("issue tokens failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh: validate a refresh token and return a new access token without
// rotating the refresh token.  The token is read from the refreshToken
// query parameter, falling back to a JSON body.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := strings.TrimSpace(c.QueryParam("refreshToken"))
	if raw == "" {
		var req refreshReq
		_ = c.Bind(&req)
		raw = strings.TrimSpace(req.RefreshToken)
	}
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refreshToken required"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, utils.HashRefreshRaw(raw))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil || !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Username, string(u.Role), h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"accessToken": access.Token, "tokenType": "Bearer"})
}

// Logout revokes one refresh token when the body names it.  Otherwise a
// valid bearer token revokes every session of that user.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := dbCtx(c)
	defer cancel()

	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return storeError(c, h.Log, err, "token")
		}
		return c.NoContent(http.StatusNoContent)
	}
	if uid := middleware.UserID(c); uid > 0 {
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			return storeError(c, h.Log, err, "token")
		}
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refreshToken"})
}

// Me returns the authenticated user's current record.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, middleware.UserID(c))
	if err != nil {
		return storeError(c, h.Log, err, "user")
	}
	return c.JSON(http.StatusOK, u)
}
