package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	apperrors "github.com/ikkim/dealer-backend/internal/errors"
	"github.com/ikkim/dealer-backend/internal/middleware"
	ws "github.com/ikkim/dealer-backend/internal/websocket"
)

// SaleFeedController upgrades staff sessions to the live sale event feed.
type SaleFeedController struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

func NewSaleFeedController(hub *ws.Hub, allowedOrigins []string) *SaleFeedController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &SaleFeedController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// non-browser clients send no Origin
				return origin == "" || origins["*"] || origins[origin]
			},
		},
	}
}

// Subscribe opens the feed. The token may come as a query parameter since
// browsers cannot set headers on websocket requests; it is never logged.
// GET /api/v1/ws/sales
func (ctrl *SaleFeedController) Subscribe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	client := ws.NewClient(ctrl.hub, conn, userID)
	ctrl.hub.Register(client)
	go client.Serve()

	log.Info("Sale feed connection established", map[string]interface{}{
		"user_id": userID,
	})
}
