package router

import (
	"github.com/labstack/echo/v4"

	"github.com/nace129/booktable/internal/handler"
	"github.com/nace129/booktable/internal/middleware"
	"github.com/nace129/booktable/internal/model"
)

// RegisterAdmin registers admin-only endpoints under /v1/admin: user
// administration, restaurant moderation and the analytics report.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, r *handler.RestaurantHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	g.GET("/users", a.ListUsers)
	g.POST("/users/:id/roles", a.AddRole)
	g.DELETE("/users/:id/roles", a.RemoveRole)
	g.PUT("/users/:id/enable", a.EnableUser)
	g.PUT("/users/:id/disable", a.DisableUser)

	g.GET("/restaurants/pending", r.ListPending)
	g.PUT("/restaurants/:id/approve", r.Approve)

	g.GET("/analytics/reservations", a.Analytics)
}
