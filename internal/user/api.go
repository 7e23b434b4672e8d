// Exposes all of the REST APIs related to User Model in Saffron.

package user

import (
	"Saffron/internal/errors"
	"Saffron/pkg/log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Registers all of the REST API handlers related to internal package user onto the gin server.
func APIHandlers(router *gin.Engine, service Service, AuthWithAcc gin.HandlerFunc, logger log.Logger) {
	usergroup := router.Group("/api/admin")
	{
		usergroup.GET("/me", AuthWithAcc, getUser(service, logger))
	}
}

// getUser returns a handler which takes care of getting the signed in admin in Saffron.
// requires auth to access.
func getUser(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		// Apply the service logic for Get User in Saffron
		user, err := service.getuser(gctx)
		if err != nil {
			// Error occured, might be validation or server error
			resp, _ := errors.StatusOf(err)
			gctx.JSON(resp.Status, resp)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{
			"user": user,
		})
	}
}
