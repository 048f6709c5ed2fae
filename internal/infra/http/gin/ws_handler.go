package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/infra/realtime"
)

// WSHandler upgrades an authenticated request into a live inbox feed.
// Each frame is one inserted message; clients treat frames as a hint
// to refetch conversations, not as an incremental patch source.
type WSHandler struct {
	Hub            *realtime.Hub
	AllowedOrigins []string
	Logger         *slog.Logger
}

func (h WSHandler) upgrader() websocket.Upgrader {
	allowed := make(map[string]bool, len(h.AllowedOrigins))
	for _, origin := range h.AllowedOrigins {
		allowed[origin] = true
	}
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			return allowed[r.Header.Get("Origin")]
		},
	}
}

func (h WSHandler) Handle(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Debug("websocket upgrade failed", "user_id", p.ID, "error", err)
		}
		return
	}
	defer conn.Close()

	sub := h.Hub.Subscribe(p.ID)
	defer sub.Close()

	// Writer drains the subscription; a write failure means the peer
	// is gone and the subscription must be released.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range sub.Events() {
			if err := conn.WriteJSON(toMessageDTO(msg)); err != nil {
				sub.Close()
				return
			}
		}
	}()

	// Read loop only detects disconnects; inbound frames are ignored
	// (keepalive pings from the client).
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	sub.Close()
	<-done
}
