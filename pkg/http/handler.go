package http

import "github.com/labstack/echo/v4"

// Handler registers its routes on the server's Echo instance.
// The forecast API and the WebSocket hub both implement it.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
