package response

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	pkgErrors "github.com/rembayung/waitroom/pkg/errors"
)

type Resp struct {
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
}

func OK(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, Resp{
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

func Error(c echo.Context, err error) error {
	statusCode, resp := parseHttpError(err)
	return c.JSON(statusCode, resp)
}

func parseHttpError(err error) (int, Resp) {
	var httpErr *pkgErrors.HTTPError
	if errors.As(err, &httpErr) {
		statusCode := httpErr.StatusCode
		if statusCode == 0 {
			statusCode = http.StatusBadRequest
		}

		return statusCode, Resp{
			ErrorCode: httpErr.Code,
			Message:   httpErr.Message,
		}
	}

	return http.StatusInternalServerError, Resp{
		ErrorCode: "WTR500",
		Message:   "Internal server error",
	}
}
