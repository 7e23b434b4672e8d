// Exposes all of the REST APIs related to Orders in Saffron.

package order

import (
	"Saffron/internal/entity"
	"Saffron/internal/errors"
	"Saffron/pkg/log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Registers all of the REST API handlers related to internal package order onto the gin server.
func APIHandlers(router *gin.Engine, service Service, AuthWithAcc gin.HandlerFunc, logger log.Logger) {
	orderGroup := router.Group("/api/orders")
	{
		orderGroup.POST("", createOrder(service, logger))
		orderGroup.GET("", myOrders(service, logger))
		orderGroup.GET("/:id", trackOrder(service, logger))
		orderGroup.POST("/:id/cancel", cancelOrder(service, logger, false))
	}
	adminGroup := router.Group("/api/admin/orders", AuthWithAcc)
	{
		adminGroup.GET("", listOrders(service, logger))
		adminGroup.PATCH("/:id/status", updateStatus(service, logger))
		adminGroup.POST("/:id/cancel", cancelOrder(service, logger, true))
	}
}

func respondError(gctx *gin.Context, err error) {
	resp, _ := errors.StatusOf(err)
	gctx.AbortWithStatusJSON(resp.Status, resp)
}

// createOrder returns a handler which places a new order.
// AccessLevel: Public
func createOrder(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var req entity.OrderRequest
		if binderr := gctx.ShouldBindJSON(&req); binderr != nil {
			logger.WithCtx(gctx).Debug().Err(binderr).Msg("Binding error occured with OrderRequest struct.")
			gctx.AbortWithStatusJSON(http.StatusUnprocessableEntity, errors.UnprocessableEntity(""))
			return
		}
		o, err := service.createorder(gctx, req)
		if err != nil {
			respondError(gctx, err)
			return
		}
		gctx.JSON(http.StatusCreated, gin.H{"order": o})
	}
}

// trackOrder returns a handler fetching a single order, ?phone= must match the order.
// AccessLevel: Public
func trackOrder(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		o, err := service.trackorder(gctx, gctx.Param("id"), gctx.Query("phone"))
		if err != nil {
			respondError(gctx, err)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"order": o})
	}
}

// AccessLevel: Public
func myOrders(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		orders, err := service.myorders(gctx, gctx.Query("phone"))
		if err != nil {
			respondError(gctx, err)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

// cancelOrder returns a handler cancelling an order on behalf of the customer or an admin.
func cancelOrder(service Service, logger log.Logger, admin bool) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var req entity.CancelRequest
		// Admins may cancel without a body
		if gctx.Request.ContentLength != 0 {
			if binderr := gctx.ShouldBindJSON(&req); binderr != nil {
				logger.WithCtx(gctx).Debug().Err(binderr).Msg("Binding error occured with CancelRequest struct.")
				gctx.AbortWithStatusJSON(http.StatusUnprocessableEntity, errors.UnprocessableEntity(""))
				return
			}
		}
		o, err := service.cancelorder(gctx, gctx.Param("id"), req, admin)
		if err != nil {
			respondError(gctx, err)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"order": o})
	}
}

// AccessLevel: Admin
func listOrders(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		orders, err := service.listorders(gctx, gctx.Query("status"))
		if err != nil {
			respondError(gctx, err)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

// AccessLevel: Admin
func updateStatus(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var req entity.StatusRequest
		if binderr := gctx.ShouldBindJSON(&req); binderr != nil {
			logger.WithCtx(gctx).Debug().Err(binderr).Msg("Binding error occured with StatusRequest struct.")
			gctx.AbortWithStatusJSON(http.StatusUnprocessableEntity, errors.UnprocessableEntity(""))
			return
		}
		o, err := service.updatestatus(gctx, gctx.Param("id"), req.Status)
		if err != nil {
			respondError(gctx, err)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"order": o})
	}
}
