package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"citywatch-worker/internal/websocket"
)

type FeedHandler struct {
	hub      *websocket.Hub
	upgrader gorilla.Upgrader
}

func NewFeedHandler(hub *websocket.Hub) *FeedHandler {
	return &FeedHandler{
		hub: hub,
		upgrader: gorilla.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Stream upgrades to a websocket carrying dispatched-alert events
// @Summary Live alert feed
// @Description Websocket stream of alert events as they are dispatched
// @Tags alerts
// @Router /ws/alerts [get]
func (h *FeedHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("Websocket upgrade failed")
		return
	}

	h.hub.Register(conn)

	// The feed is write-only; the read loop only detects disconnects.
	go func() {
		defer h.hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
