package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rembayung/waitroom/pkg/logger"
)

// logContext attaches the request id to the request's logger.
func logContext(l logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			req := c.Request()
			c.SetRequest(req.WithContext(l.With(req.Context(), "request_id", rid)))
			return next(c)
		}
	}
}

func requestLogger(l logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency: true,
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			l.Infof(c.Request().Context(), "%s %s status[%d] latency[%dms]",
				v.Method, v.URI, v.Status, v.Latency.Milliseconds())
			return nil
		},
	})
}
