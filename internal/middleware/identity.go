package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nace129/booktable/internal/service"
)

// CallerFrom builds the service-layer caller identity from the claims
// JWTAuth stored in the context. The zero Caller (ID 0, no roles) is
// returned for unauthenticated requests, which the services treat as
// an anonymous customer with no ownership.
func CallerFrom(c echo.Context) service.Caller {
	uid, _ := c.Get(ctxUserID).(uint64)
	roles, _ := c.Get(ctxRoles).([]string)
	return service.Caller{ID: uid, Roles: roles}
}

// currentUserID renders the authenticated user for rate-limit keys;
// anonymous requests share the "anon" bucket per IP.
func currentUserID(c echo.Context) string {
	if uid, ok := c.Get(ctxUserID).(uint64); ok && uid != 0 {
		return strconv.FormatUint(uid, 10)
	}
	return "anon"
}
