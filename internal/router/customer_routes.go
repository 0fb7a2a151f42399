package router

import (
	"github.com/labstack/echo/v4"

	"github.com/nace129/booktable/internal/handler"
	"github.com/nace129/booktable/internal/middleware"
	"github.com/nace129/booktable/internal/model"
)

// RegisterCustomer registers customer-scoped endpoints under /v1. All
// routes require a valid JWT and the CUSTOMER role. Customers book
// tables, manage their own reservations and write reviews for visits.
func RegisterCustomer(e *echo.Echo, res *handler.ReservationHandler, rev *handler.ReviewHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleManager, model.RoleAdmin),
	)

	g.POST("/reservations", res.Create)
	g.GET("/my-reservations", res.ListMine)
	g.GET("/reservations/:id", res.Get)
	g.PATCH("/reservations/:id", res.Update)
	g.DELETE("/reservations/:id", res.Cancel)

	g.POST("/reviews", rev.Create)
	g.GET("/my-reviews", rev.ListMine)
	g.PATCH("/reviews/:id", rev.Update)
	g.DELETE("/reviews/:id", rev.Delete)
}
