package echoapi

import (
	"github.com/labstack/echo/v4"
)

// rolesMiddleware lets through users holding any of roles.
func rolesMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if claims.hasAnyRole(roles...) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
