package http

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/rembayung/waitroom/internal/models"
	"github.com/rembayung/waitroom/internal/monitoring"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period.
	pingPeriod = 5 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = pingPeriod * 5 / 2

	maxMessageSize = 512
)

// Stream upgrades to a websocket and relays queue position updates until the
// visitor is admitted or disconnects. Lookup errors are answered as plain
// HTTP before the upgrade.
func (h *Handler) Stream(c echo.Context) error {
	vID := c.Param("visitorId")
	if _, err := h.svc.GetQueueStatus(c.Request().Context(), vID); err != nil {
		return h.respondError(c, "Stream", err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.l.Warnf(c.Request().Context(), "delivery.http.Handler.Stream: upgrade: %v", err)
		return nil
	}
	defer conn.Close()

	monitoring.StreamOpened()
	defer monitoring.StreamClosed()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	go h.readPump(ctx, cancel, conn)

	upds := make(chan *models.PositionUpdate, 16)
	done := make(chan error, 1)
	go func() {
		defer close(upds)
		done <- h.svc.StreamQueuePosition(ctx, vID, upds)
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case upd, ok := <-upds:
			if !ok {
				h.closeStream(ctx, conn, <-done)
				return nil
			}

			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(upd); err != nil {
				h.l.Warnf(ctx, "delivery.http.Handler.Stream: write: %v", err)
				return nil
			}

		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.l.Warnf(ctx, "delivery.http.Handler.Stream: ping: %v", err)
				return nil
			}
		}
	}
}

// readPump drains control frames. Any read error means the peer is gone.
func (h *Handler) readPump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.l.Debugf(ctx, "delivery.http.Handler.readPump: %v", err)
			}
			return
		}
	}
}

func (h *Handler) closeStream(ctx context.Context, conn *websocket.Conn, err error) {
	code, text := websocket.CloseNormalClosure, "admitted"
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		return
	default:
		h.l.Errorf(ctx, "delivery.http.Handler.Stream: %v", err)
		code, text = websocket.CloseInternalServerErr, "stream failed"
	}

	msg := websocket.FormatCloseMessage(code, text)
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		h.l.Debugf(ctx, "delivery.http.Handler.closeStream: %v", err)
	}
}
