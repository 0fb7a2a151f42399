package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nace129/booktable/internal/middleware"
	"github.com/nace129/booktable/internal/model"
	"github.com/nace129/booktable/internal/service"
)

// AdminHandler exposes user administration and the analytics report.
type AdminHandler struct {
	Svc *service.AdminService
}

func NewAdminHandler(svc *service.AdminService) *AdminHandler {
	return &AdminHandler{Svc: svc}
}

type adminUserResp struct {
	ID          uint64     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	PhoneNumber string     `json:"phone_number"`
	Roles       []string   `json:"roles"`
	Enabled     bool       `json:"enabled"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toAdminUserResp(u *model.User) adminUserResp {
	return adminUserResp{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		Roles:       u.Roles,
		Enabled:     u.Enabled,
		LastLogin:   u.LastLogin,
		CreatedAt:   u.CreatedAt,
	}
}

type roleReq struct {
	Role string `json:"role"`
}

// ListUsers returns every account.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Svc.ListUsers(ctx, middleware.CallerFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]adminUserResp, len(users))
	for i := range users {
		out[i] = toAdminUserResp(&users[i])
	}
	return c.JSON(http.StatusOK, out)
}

// AddRole grants a role to a user.
func (h *AdminHandler) AddRole(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req roleReq
	if err := c.Bind(&req); err != nil || req.Role == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Svc.AddRole(ctx, middleware.CallerFrom(c), userID, req.Role)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toAdminUserResp(u))
}

// RemoveRole revokes a role from a user.
func (h *AdminHandler) RemoveRole(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req roleReq
	if err := c.Bind(&req); err != nil || req.Role == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Svc.RemoveRole(ctx, middleware.CallerFrom(c), userID, req.Role)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toAdminUserResp(u))
}

// EnableUser re-enables a disabled account.
func (h *AdminHandler) EnableUser(c echo.Context) error {
	return h.setEnabled(c, true)
}

// DisableUser blocks an account from authenticating.
func (h *AdminHandler) DisableUser(c echo.Context) error {
	return h.setEnabled(c, false)
}

func (h *AdminHandler) setEnabled(c echo.Context, enabled bool) error {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Svc.SetUserEnabled(ctx, middleware.CallerFrom(c), userID, enabled)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toAdminUserResp(u))
}

// Analytics returns the 30-day reservation report. An optional
// restaurant_id query parameter narrows it to one restaurant.
func (h *AdminHandler) Analytics(c echo.Context) error {
	var restaurantID uint64
	if raw := c.QueryParam("restaurant_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
		}
		restaurantID = id
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	report, err := h.Svc.ReservationAnalytics(ctx, middleware.CallerFrom(c), restaurantID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}
