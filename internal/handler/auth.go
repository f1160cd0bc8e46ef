package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/character-api/internal/apperr"
	"github.com/iliyamo/character-api/internal/middleware"
	"github.com/iliyamo/character-api/internal/model"
	"github.com/iliyamo/character-api/internal/queue"
	"github.com/iliyamo/character-api/internal/repository"
	"github.com/iliyamo/character-api/internal/service"
	"github.com/iliyamo/character-api/internal/utils"
)

const (
	requestTimeout = 5 * time.Second
	publishTimeout = 3 * time.Second
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Users   *repository.UserRepo
	Tokens  *utils.TokenIssuer
	Revoked *repository.RevocationRegistry
	Events  service.EventPublisher
}

func NewAuthHandler(u *repository.UserRepo, t *utils.TokenIssuer, r *repository.RevocationRegistry, ev service.EventPublisher) *AuthHandler {
	if ev == nil {
		ev = service.NopPublisher{}
	}
	return &AuthHandler{Users: u, Tokens: t, Revoked: r, Events: ev}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResp struct {
	ID    uint64     `json:"id"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// bindAndValidate decodes the body into dst and runs the struct validator.
func bindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Wrap(apperr.KindBadRequest, apperr.ErrBadRequest.Message, err)
	}
	return c.Validate(dst)
}

func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// Register creates a USER account.  The password hash never leaves the
// server; the response carries id, email and role only.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	req.Email = strings.TrimSpace(req.Email)

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.Register(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return apperr.ErrEmailRegistered
		}
		return apperr.Internal(err)
	}

	service.PublishAsync(h.Events, queue.AuditEvent{
		Type:      queue.EventUserRegistered,
		UserID:    u.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		RequestID: requestID(c),
	}, publishTimeout)

	return c.JSON(http.StatusCreated, userResp{ID: u.ID, Email: u.Email, Role: u.Role})
}

// Login verifies credentials and returns a fresh access/refresh pair.  An
// unknown email and a wrong password produce the same response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	req.Email = strings.TrimSpace(req.Email)

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return apperr.Internal(err)
		}
		h.Users.BurnPasswordCheck(req.Password)
		return apperr.ErrInvalidCredentials
	}
	if !h.Users.VerifyPassword(u, req.Password) {
		return apperr.ErrInvalidCredentials
	}

	access, err := h.Tokens.IssueAccess(u)
	if err != nil {
		return apperr.Internal(err)
	}
	refresh, err := h.Tokens.IssueRefresh(u)
	if err != nil {
		return apperr.Internal(err)
	}
	stored, err := h.Users.SetRefreshToken(ctx, u.Email, refresh)
	if err != nil {
		return apperr.Internal(err)
	}
	if !stored {
		// the account went away between lookup and write
		return apperr.ErrInvalidCredentials
	}

	service.PublishAsync(h.Events, queue.AuditEvent{
		Type:      queue.EventUserLoggedIn,
		UserID:    u.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		RequestID: requestID(c),
	}, publishTimeout)

	return c.JSON(http.StatusOK, tokenPair{AccessToken: access, RefreshToken: refresh})
}

// Logout revokes the presented token.  When OptionalAuth attached an
// identity the user's stored refresh token is cleared as well.  A request
// without any bearer token is answered as an unknown endpoint.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw, ok := middleware.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		return apperr.ErrEndpointNotFound
	}

	id, authed := middleware.IdentityFrom(c)
	if !authed {
		// Refresh, expired, forged and already revoked tokens land here.
		// They are still revoked, with an expiry so the janitor can drop them.
		h.Revoked.RevokeUntil(raw, h.Tokens.RevocationExpiry(raw))
		return c.JSON(http.StatusOK, echo.Map{"message": "Logged out"})
	}
	h.Revoked.RevokeUntil(raw, id.ExpiresAt)

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	cleared, err := h.Users.SetRefreshToken(ctx, id.Email, "")
	if err != nil {
		return apperr.Internal(err)
	}
	if !cleared {
		return apperr.ErrForbidden
	}

	service.PublishAsync(h.Events, queue.AuditEvent{
		Type:      queue.EventUserLoggedOut,
		UserID:    id.UserID,
		Email:     id.Email,
		Role:      string(id.Role),
		RequestID: requestID(c),
	}, publishTimeout)

	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out"})
}
