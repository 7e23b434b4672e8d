package realtime

import (
	"github.com/gin-gonic/gin"
)

// Registers the realtime channel endpoint onto the gin server.
func APIHandlers(router *gin.Engine, server *Server) {
	router.GET("/api/realtime", gin.WrapH(server))
}
