package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/UnAfraid/ipconfd/pkg/manage"
)

const (
	websocketsKeepAlivePingInterval = 10 * time.Second
	websocketsWriteTimeout          = 5 * time.Second
)

type eventsHandler struct {
	manageService manage.Service
	upgrader      websocket.Upgrader
}

func newEventsHandler(manageService manage.Service, allowedOrigins []string) *eventsHandler {
	return &eventsHandler{
		manageService: manageService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return checkOrigin(r, allowedOrigins)
			},
		},
	}
}

// ServeHTTP streams every interface changed event as a JSON text message
// until the client goes away.
func (h *eventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.
			WithError(err).
			Debug("failed to upgrade events connection")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := h.manageService.Subscribe(ctx)
	if err != nil {
		logrus.
			WithError(err).
			Warn("failed to subscribe to interface events")
		return
	}

	// the client never sends anything, reading only notices the close
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(websocketsKeepAlivePingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(websocketsWriteTimeout)); err != nil {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				logrus.
					WithError(err).
					Debug("failed to write interface event")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(websocketsWriteTimeout)); err != nil {
				return
			}
		}
	}
}
