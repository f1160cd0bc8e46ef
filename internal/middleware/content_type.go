package middleware

import "github.com/labstack/echo/v4"

// JSONContentType sets Content-Type: application/json up front so that
// bodiless responses such as 204 carry it too.
func JSONContentType(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		return next(c)
	}
}
