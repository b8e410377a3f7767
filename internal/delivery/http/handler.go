package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/rembayung/waitroom/internal/service"
	"github.com/rembayung/waitroom/pkg/logger"
	"github.com/rembayung/waitroom/pkg/response"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	svc      service.WaitroomService
	store    Pinger
	l        logger.Logger
	upgrader *websocket.Upgrader
}

func NewHandler(svc service.WaitroomService, store Pinger, l logger.Logger) *Handler {
	return &Handler{
		svc:   svc,
		store: store,
		l:     l,
		upgrader: &websocket.Upgrader{
			// Visitors arrive from the booking site's own origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type enterRequest struct {
	VisitorID string `json:"visitor_id"`
}

func (h *Handler) Health(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.store.Ping(ctx); err != nil {
		h.l.Errorf(ctx, "delivery.http.Handler.Health: %v", err)
		return response.Error(c, errStoreUnavailable)
	}

	return response.OK(c, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "waitroom-service",
	})
}

func (h *Handler) Enter(c echo.Context) error {
	var req enterRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errInvalidBody)
	}

	out, err := h.svc.Enter(c.Request().Context(), service.EnterInput{
		VisitorID: strings.TrimSpace(req.VisitorID),
		UserAgent: c.Request().UserAgent(),
		IPAddress: c.RealIP(),
	})
	if err != nil {
		return h.respondError(c, "Enter", err)
	}

	return response.OK(c, http.StatusOK, out)
}

func (h *Handler) GetQueueStatus(c echo.Context) error {
	out, err := h.svc.GetQueueStatus(c.Request().Context(), c.Param("visitorId"))
	if err != nil {
		return h.respondError(c, "GetQueueStatus", err)
	}

	return response.OK(c, http.StatusOK, out)
}

func (h *Handler) Admit(c echo.Context) error {
	out, err := h.svc.Admit(c.Request().Context(), c.Param("visitorId"))
	if err != nil {
		return h.respondError(c, "Admit", err)
	}

	return response.OK(c, http.StatusOK, out)
}

func (h *Handler) Reset(c echo.Context) error {
	if err := h.svc.Reset(c.Request().Context(), c.Param("visitorId")); err != nil {
		return h.respondError(c, "Reset", err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ValidateAccess(c echo.Context) error {
	token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))

	claims, err := h.svc.ValidateAccess(c.Request().Context(), token)
	if err != nil {
		return h.respondError(c, "ValidateAccess", err)
	}

	return response.OK(c, http.StatusOK, claims)
}

func (h *Handler) respondError(c echo.Context, op string, err error) error {
	mapped := mapHTTPError(err)
	if mapped == err {
		h.l.Errorf(c.Request().Context(), "delivery.http.Handler.%s: %v", op, err)
	}
	return response.Error(c, mapped)
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
