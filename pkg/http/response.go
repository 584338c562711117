package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HeaderDataSource tells clients whether a provider-backed response is live,
// cached or fallback data.
const HeaderDataSource = "X-Data-Source"

// DataResponse writes API response with status and data.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(http.StatusOK, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

// SuccessResponse writes success response.
func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// SourcedResponse writes a success response for provider data and marks
// where it came from.
func SourcedResponse(c echo.Context, source string, data interface{}) error {
	if source != "" {
		c.Response().Header().Set(HeaderDataSource, source)
	}
	return DataResponse(c, http.StatusOK, data)
}

// CreatedResponse writes created response.
func CreatedResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusCreated, data)
}

// StatusResponse writes body without the envelope, using code as the HTTP
// status. Probes such as load balancers read the status line.
func StatusResponse(c echo.Context, code int, body interface{}) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.JSON(code, body)
}

// BadRequestResponse writes bad request error.
func BadRequestResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

// InternalServerErrorResponse writes internal server error.
func InternalServerErrorResponse(c echo.Context) error {
	return DataResponse(c, http.StatusInternalServerError, "Something went wrong")
}

// AppErrorResponse writes application error response.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.RetryAfter > 0 {
			c.Response().Header().Set("Retry-After", appErr.retryAfterSeconds())
		}
		return DataResponse(c, appErr.Status, []*AppError{appErr})
	}
	return InternalServerErrorResponse(c)
}
