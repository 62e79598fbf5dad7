package handler

import (
	"context"
	"net/http"

	"stocksync/internal/middleware"
	"stocksync/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser WS clients cannot set Origin-independent auth headers, so the
	// token carries the trust. Origin itself is not a boundary here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Websocket upgrades the connection and attaches the client to its rooms.
// Browsers cannot set an Authorization header on a WS handshake, so the
// token is also accepted as a ?token= query parameter.
func Websocket(hub *realtime.Hub, ops realtime.SaleOps, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			const prefix = "Bearer "
			auth := c.GetHeader("Authorization")
			if len(auth) > len(prefix) {
				tokenStr = auth[len(prefix):]
			}
		}
		claims, err := middleware.ParseToken(jwtSecret, tokenStr)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Msg("ws: upgrade failed")
			return
		}

		client := realtime.NewClient(hub, conn, ops, userID, claims.Role)
		hub.Register(client)

		// The request context dies with the handler; pumps outlive it.
		go client.WritePump()
		go client.ReadPump(context.Background())
	}
}
