// Exposes the admin event stream of Saffron over SSE.

package sse

import (
	"Saffron/pkg/log"
	"Saffron/pkg/middlewares"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Registers all of the REST API handlers related to internal package sse onto the gin server.
func APIHandlers(router *gin.Engine, broadcaster *Broadcaster, authWithAcc gin.HandlerFunc, logger log.Logger) {
	sseGroup := router.Group("/api/admin", authWithAcc)
	{
		sseGroup.GET("/events", middlewares.SSEMiddleware(), ssehandler(broadcaster, logger))
	}
}

// ssehandler keeps the request open until the client leaves or the broadcaster shuts down.
func ssehandler(broadcaster *Broadcaster, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		gctx.Status(http.StatusOK)
		unregister := broadcaster.AddClient(gctx.Writer)
		defer unregister()
		logger.WithCtx(gctx).Debug().Str("username", gctx.GetString("Username")).Msg("Admin subscribed to event stream")
		select {
		// Client exit
		case <-gctx.Request.Context().Done():
		case <-broadcaster.Done():
		}
	}
}
