package http

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rembayung/waitroom/pkg/logger"
)

func NewServer(h *Handler, l logger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(logContext(l))
	e.Use(middleware.Recover())
	e.Use(requestLogger(l))

	MapRoutes(e, h)

	return e
}

func MapRoutes(e *echo.Echo, h *Handler) {
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/api/v1")
	v1.GET("/access", h.ValidateAccess)

	wr := v1.Group("/waitroom")
	wr.POST("/enter", h.Enter)
	wr.GET("/:visitorId/status", h.GetQueueStatus)
	wr.POST("/:visitorId/admit", h.Admit)
	wr.DELETE("/:visitorId", h.Reset)
	wr.GET("/:visitorId/stream", h.Stream)
}
