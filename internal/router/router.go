// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/nace129/booktable/internal/handler"
	"github.com/nace129/booktable/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication:
// the health check and the public restaurant directory.
func RegisterRoutes(e *echo.Echo, r *handler.RestaurantHandler, rev *handler.ReviewHandler) {
	e.GET("/healthz", handler.Health)

	e.GET("/v1/restaurants", r.List)
	e.GET("/v1/restaurants/search", r.Search)
	e.GET("/v1/restaurants/:id", r.Get)
	e.GET("/v1/restaurants/:id/reviews", rev.ListForRestaurant)
}

// RegisterAuth registers the authentication endpoints. Register,
// login and refresh need no session; logout and me require a valid
// access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	auth := e.Group("/v1/auth", middleware.JWTAuth(jwtSecret))
	auth.POST("/logout", a.Logout)
	auth.GET("/me", a.Me)
}
