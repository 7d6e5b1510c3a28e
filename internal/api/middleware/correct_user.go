package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/messagely/messagely-api/internal/api/metrics"
	"github.com/messagely/messagely-api/internal/core/domain"
)

// EnsureCorrectUser only lets the request through when the authenticated
// username matches the path parameter named param. Must run after Auth.
func EnsureCorrectUser(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			username, _ := c.Get("username").(string)
			if !domain.SameUsername(username, c.Param(param)) {
				metrics.AuthorizationDeniedTotal.WithLabelValues("user_scope").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			return next(c)
		}
	}
}
