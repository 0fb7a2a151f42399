package router

import (
	"github.com/labstack/echo/v4"

	"github.com/nace129/booktable/internal/handler"
	"github.com/nace129/booktable/internal/middleware"
	"github.com/nace129/booktable/internal/model"
)

// RegisterManager registers manager-scoped endpoints under /v1. All
// routes require a valid JWT and the RESTAURANT_MANAGER role (admins
// pass too). Managers run their restaurants and see the bookings made
// against them.
func RegisterManager(e *echo.Echo, r *handler.RestaurantHandler, res *handler.ReservationHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleManager, model.RoleAdmin),
	)

	g.POST("/restaurants", r.Create)
	g.GET("/my-restaurants", r.ListMine)
	g.PUT("/restaurants/:id", r.Update)
	g.PATCH("/restaurants/:id", r.Update)
	g.DELETE("/restaurants/:id", r.Delete)

	g.GET("/restaurants/:id/reservations", res.ListForRestaurant)
}
