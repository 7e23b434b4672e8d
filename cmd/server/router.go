// List of all REST API endpoints being used by Saffron can be found here.

package main

import (
	"Saffron/internal/auth"
	"Saffron/internal/entity"
	"Saffron/internal/menu"
	"Saffron/internal/metrics"
	"Saffron/internal/order"
	"Saffron/internal/realtime"
	"Saffron/internal/reservation"
	"Saffron/internal/sse"
	"Saffron/internal/storage"
	"Saffron/internal/user"
	"Saffron/pkg/globalcontext"
	"Saffron/pkg/log"
	"Saffron/pkg/middlewares"
	"net/http"

	"github.com/gin-gonic/gin"
)

func Router(router *gin.Engine, app *application) {
	// Forcing gin to use custom Logger instead of the default one.
	router.Use(log.LoggerGinExtension(app.logger))
	router.Use(gin.Recovery())
	router.Use(middlewares.CORSMiddleware(app.cfg.CORSOrigin))
	router.Use(middlewares.CorrelationMiddleware())
	router.Use(globalcontext.UniqueIDMiddleware(app.logger))

	// This is the route to default path
	router.GET("/", func(gctx *gin.Context) {
		gctx.String(http.StatusOK, "Welcome to Saffron!")
	})
	router.GET("/api/health", func(gctx *gin.Context) {
		gctx.JSON(http.StatusOK, gin.H{
			"status":          "ok",
			"sseClients":      app.broadcaster.ClientCount(),
			"realtimeClients": app.realtime.ConnectionCount(),
			"realtimeAdmins":  app.realtime.GroupSize(entity.AdminGroup),
		})
	})

	auth.APIHandlers(router, app.authService, app.authWithAcc, app.cfg.SrvAddr, app.logger)
	user.APIHandlers(router, app.userService, app.authWithAcc, app.logger)
	menu.APIHandlers(router, app.menuService, app.authWithAcc, app.logger)
	order.APIHandlers(router, app.orderService, app.authWithAcc, app.logger)
	reservation.APIHandlers(router, app.reservationService, app.authWithAcc, app.logger)
	metrics.APIHandlers(router, app.metricsService, app.authWithAcc, app.logger)
	storage.APIHandlers(router, app.uploads, app.authWithAcc, app.logger)
	sse.APIHandlers(router, app.broadcaster, app.authWithAcc, app.logger)
	realtime.APIHandlers(router, app.realtime)
}
