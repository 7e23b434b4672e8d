// Exposes all of the REST APIs related to table reservations in Saffron.

package reservation

import (
	"Saffron/internal/entity"
	"Saffron/internal/errors"
	"Saffron/pkg/log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Registers all of the REST API handlers related to internal package reservation onto the gin server.
func APIHandlers(router *gin.Engine, service Service, AuthWithAcc gin.HandlerFunc, logger log.Logger) {
	reservationGroup := router.Group("/api/reservations")
	{
		reservationGroup.POST("", createReservation(service, logger))
		reservationGroup.GET("", myReservations(service, logger))
		reservationGroup.GET("/:id", trackReservation(service, logger))
		reservationGroup.POST("/:id/cancel", cancelReservation(service, logger, false))
	}
	adminGroup := router.Group("/api/admin/reservations", AuthWithAcc)
	{
		adminGroup.GET("", listReservations(service, logger))
		adminGroup.PATCH("/:id/status", updateStatus(service, logger))
		adminGroup.POST("/:id/cancel", cancelReservation(service, logger, true))
	}
}

func respondError(gctx *gin.Context, err error) {
	resp, _ := errors.StatusOf(err)
	gctx.AbortWithStatusJSON(resp.Status, resp)
}

// createReservation returns a handler which takes care of booking tables in Saffron.
func createReservation(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var res entity.Reservation

		// Serialize received data into Reservation struct
		if binderr := gctx.ShouldBindJSON(&res); binderr != nil {
			logger.WithCtx(gctx).Debug().Err(binderr).Msg("Binding error occured with Reservation struct.")
			gctx.AbortWithStatusJSON(http.StatusUnprocessableEntity, errors.UnprocessableEntity(""))
			return
		}
		created, err := service.createreservation(gctx, res)
		if err != nil {
			respondError(gctx, err)
			return
		}
		gctx.JSON(http.StatusCreated, gin.H{"reservation": created})
	}
}

func trackReservation(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		res, err := service.trackreservation(gctx, gctx.Param("id"), gctx.Query("phone"))
		if err != nil {
			respondError(gctx, err)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"reservation": res})
	}
}

func myReservations(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		list, err := service.myreservations(gctx, gctx.Query("phone"))
		if err != nil {
			respondError(gctx, err)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"reservations": list})
	}
}

func cancelReservation(service Service, logger log.Logger, admin bool) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var req entity.CancelRequest
		if gctx.Request.ContentLength != 0 {
			if binderr := gctx.ShouldBindJSON(&req); binderr != nil {
				logger.WithCtx(gctx).Debug().Err(binderr).Msg("Binding error occured with CancelRequest struct.")
				gctx.AbortWithStatusJSON(http.StatusUnprocessableEntity, errors.UnprocessableEntity(""))
				return
			}
		}
		res, err := service.cancelreservation(gctx, gctx.Param("id"), req, admin)
		if err != nil {
			respondError(gctx, err)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"reservation": res})
	}
}

func listReservations(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		list, err := service.listreservations(gctx, gctx.Query("status"))
		if err != nil {
			respondError(gctx, err)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"reservations": list})
	}
}

func updateStatus(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var req entity.StatusRequest
		if binderr := gctx.ShouldBindJSON(&req); binderr != nil {
			logger.WithCtx(gctx).Debug().Err(binderr).Msg("Binding error occured with StatusRequest struct.")
			gctx.AbortWithStatusJSON(http.StatusUnprocessableEntity, errors.UnprocessableEntity(""))
			return
		}
		res, err := service.updatestatus(gctx, gctx.Param("id"), req.Status)
		if err != nil {
			respondError(gctx, err)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"reservation": res})
	}
}
