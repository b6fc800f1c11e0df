package http

import (
	xutil "TrendCast/pkg/util"

	"github.com/labstack/echo/v4"
)

// QueryInt reads an integer query parameter, falling back to def when missing or invalid.
func QueryInt(c echo.Context, name string, def int) int {
	return xutil.ParseIntDefault(c.QueryParam(name), def)
}
