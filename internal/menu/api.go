// Exposes all of the REST APIs related to the Menu in Saffron.

package menu

import (
	"Saffron/internal/entity"
	"Saffron/internal/errors"
	"Saffron/pkg/log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Registers all of the REST API handlers related to internal package menu onto the gin server.
func APIHandlers(router *gin.Engine, service Service, AuthWithAcc gin.HandlerFunc, logger log.Logger) {
	menuGroup := router.Group("/api/menu")
	{
		menuGroup.GET("", listMenu(service, logger))
		menuGroup.GET("/:id", getMenuItem(service, logger))
	}
	adminGroup := router.Group("/api/admin/menu", AuthWithAcc)
	{
		adminGroup.POST("", createMenuItem(service, logger))
		adminGroup.PATCH("/:id/availability", setAvailability(service, logger))
	}
}

func respondError(gctx *gin.Context, err error) {
	resp, _ := errors.StatusOf(err)
	gctx.AbortWithStatusJSON(resp.Status, resp)
}

// listMenu returns a handler listing the menu, ?category= narrows it down.
func listMenu(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		items, err := service.listmenu(gctx, gctx.Query("category"))
		if err != nil {
			respondError(gctx, err)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func getMenuItem(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		item, err := service.getmenuitem(gctx, gctx.Param("id"))
		if err != nil {
			respondError(gctx, err)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"item": item})
	}
}

func createMenuItem(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var item entity.MenuItem
		if binderr := gctx.ShouldBindJSON(&item); binderr != nil {
			logger.WithCtx(gctx).Debug().Err(binderr).Msg("Binding error occured with MenuItem struct.")
			gctx.AbortWithStatusJSON(http.StatusUnprocessableEntity, errors.UnprocessableEntity(""))
			return
		}
		created, err := service.createmenuitem(gctx, item)
		if err != nil {
			respondError(gctx, err)
			return
		}
		gctx.JSON(http.StatusCreated, gin.H{"item": created})
	}
}

func setAvailability(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var body struct {
			Available *bool `json:"available"`
		}
		if binderr := gctx.ShouldBindJSON(&body); binderr != nil || body.Available == nil {
			gctx.AbortWithStatusJSON(http.StatusUnprocessableEntity, errors.UnprocessableEntity("available must be a boolean"))
			return
		}
		item, err := service.setavailability(gctx, gctx.Param("id"), *body.Available)
		if err != nil {
			respondError(gctx, err)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"item": item})
	}
}
