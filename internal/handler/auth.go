package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sakila-admin/internal/config"
	"github.com/iliyamo/sakila-admin/internal/logging"
	"github.com/iliyamo/sakila-admin/internal/middleware"
	"github.com/iliyamo/sakila-admin/internal/model"
	"github.com/iliyamo/sakila-admin/internal/repository"
	"github.com/iliyamo/sakila-admin/internal/utils"
)

// AuthHandler issues and revokes admin API tokens.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type createAdminReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=ADMIN VIEWER"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// issuePair signs an access token and stores a fresh refresh token.
func (h *AuthHandler) issuePair(ctx context.Context, u model.AdminUser) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    userPart{ID: u.ID, Email: u.Email, Role: u.Role},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}

// Login verifies credentials and returns a token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		logging.Ctx(ctx).Error().Err(err).Msg("load admin user failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	resp, err := h.issuePair(ctx, u)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Uint64("user_id", u.ID).Msg("issue tokens failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh rotates a refresh token: the old one is revoked and a new pair
// is issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil || !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	resp, err := h.issuePair(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// RefreshAccess returns a new access token without rotating the refresh
// token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken)))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil || !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout revokes one refresh token when the body carries it, or every
// token of the bearer's account otherwise.
func (h *AuthHandler) Logout(c echo.Context) error {
	var (
		uid       uint64
		hasBearer bool
	)
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if claims, _, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
			uid, hasBearer = claims.UserID, true
		}
	}

	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	switch {
	case refreshToken != "":
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
	case hasBearer && uid != 0:
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me echoes the caller's identity.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": middleware.UserID(c),
		"role":    middleware.Role(c),
	})
}

// CreateAdmin handles POST /v1/admin/users.  Role defaults to VIEWER.
func (h *AuthHandler) CreateAdmin(c echo.Context) error {
	var req createAdminReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Role = strings.ToUpper(strings.TrimSpace(req.Role))
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": validationMessage(err)})
	}
	if req.Role == "" {
		req.Role = model.RoleViewer
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Users.Create(ctx, req.Email, req.Password, req.Role, h.Cfg.BcryptCost)
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	case errors.Is(err, utils.ErrWeakPassword):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case err != nil:
		logging.Ctx(ctx).Error().Err(err).Msg("create admin failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	logging.Ctx(ctx).Info().Uint64("user_id", id).Str("role", req.Role).Uint64("by", middleware.UserID(c)).Msg("admin account created")
	return c.JSON(http.StatusCreated, userPart{ID: id, Email: req.Email, Role: req.Role})
}
