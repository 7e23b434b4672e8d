// Exposes the admin dashboard metrics of Saffron.

package metrics

import (
	"Saffron/internal/errors"
	"Saffron/pkg/log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func APIHandlers(router *gin.Engine, service Service, AuthWithAcc gin.HandlerFunc, logger log.Logger) {
	router.GET("/api/admin/metrics", AuthWithAcc, getMetrics(service, logger))
}

// AccessLevel: Admin
func getMetrics(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		m, err := service.GetMetrics(gctx)
		if err != nil {
			resp, _ := errors.StatusOf(err)
			gctx.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"metrics": m})
	}
}
