package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// DataResponse writes API response with status and data.
func DataResponse(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

// JSONBytesResponse writes an already encoded APIResponse body, as stored by the response cache.
func JSONBytesResponse(c echo.Context, body []byte) error {
	return c.JSONBlob(http.StatusOK, body)
}

func SuccessResponse(c echo.Context, data any) error {
	return DataResponse(c, http.StatusOK, data)
}

func BadRequestResponse(c echo.Context, data any) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

func TooManyRequestsResponse(c echo.Context) error {
	return DataResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
}

// AppErrorResponse writes err through FromDomain.
func AppErrorResponse(c echo.Context, err error) error {
	appErr := FromDomain(err)
	if appErr.Status >= http.StatusInternalServerError {
		return DataResponse(c, appErr.Status, appErr.Message)
	}
	return DataResponse(c, appErr.Status, []*AppError{appErr})
}
