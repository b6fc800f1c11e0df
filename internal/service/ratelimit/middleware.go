package ratelimit

import (
	"github.com/labstack/echo/v4"
)

// Middleware rejects requests once the client's bucket for the route is empty.
func Middleware(l *Limiter, reject echo.HandlerFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP() + "|" + c.Path()) {
				return reject(c)
			}
			return next(c)
		}
	}
}
