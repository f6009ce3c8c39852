package handler

import (
	"net/http"
	"time"

	"carecircle/internal/progress"
	"carecircle/internal/transport/httpdto"
	"carecircle/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ProgressHandler streams upload progress events for one upload id over a
// websocket. The connection closes after a terminal event.
type ProgressHandler struct {
	feed *progress.RedisFeed
	log  *logger.Logger
}

func NewProgressHandler(feed *progress.RedisFeed, log *logger.Logger) *ProgressHandler {
	return &ProgressHandler{feed: feed, log: log}
}

func (h *ProgressHandler) Handle(c *gin.Context) {
	uploadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid upload id", "INVALID_REQUEST"))
		return
	}
	if h.feed == nil {
		c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("progress feed not configured", "UNAVAILABLE"))
		return
	}

	events, err := h.feed.Subscribe(c.Request.Context(), uploadID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("progress feed unavailable", "UNAVAILABLE"))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for e := range events {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(e); err != nil {
			return
		}
	}
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
