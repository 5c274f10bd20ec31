package websocket

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"messageboard/internal/microservices/http-api/dto"
	"messageboard/internal/microservices/http-api/middleware"
	"messageboard/internal/tenant"
)

// HTTP upgrade handler for the live room feed

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origin policy is enforced by the CORS middleware
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler subscribes the caller to a room of its tenant. The tenant is
// resolved exactly as for message requests; roomId is required.
func WSHandler(hub *Hub, resolver *tenant.Resolver, stageVariables map[string]string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := strings.TrimSpace(c.Query("roomId"))
		if roomID == "" {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "roomId cannot be null or empty"})
			return
		}

		query := map[string]string{}
		for k, v := range c.Request.URL.Query() {
			if len(v) > 0 {
				query[k] = v[0]
			}
		}
		res, err := resolver.Resolve(tenant.Input{
			Query:          query,
			StageVariables: stageVariables,
			Claims:         middleware.ClaimsFrom(c),
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
			return
		}

		// upgrade HTTP connection to WebSocket; on failure the upgrader has
		// already written the error response
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Debug("websocket upgrade failed", zap.Error(err))
			return
		}

		client := NewClient(uuid.NewString(), RoomKey{Table: res.Table, RoomID: roomID}, conn, hub)
		// queued before Register so it precedes every room frame
		if frame, err := NewSystemMessage(roomID, "subscribed").ToJSON(); err == nil {
			client.enqueue(frame)
		}
		hub.Register(client)

		go client.ReadPump()
		go client.WritePump()
	}
}
