// Exposes all of the REST APIs related to menu image uploads in Saffron.

package storage

import (
	"Saffron/pkg/log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func APIHandlers(router *gin.Engine, handler *Handler, authWithAcc gin.HandlerFunc, logger log.Logger) {
	tus := func(fn http.HandlerFunc) gin.HandlerFunc {
		return gin.WrapH(handler.Middleware(fn))
	}
	uploadGroup := router.Group(UploadBasePath, authWithAcc, UploadStorageMiddleware(handler.cfg, logger))
	{
		uploadGroup.POST("", tus(handler.PostFile))
		uploadGroup.HEAD("/:id", tus(handler.HeadFile))
		uploadGroup.PATCH("/:id", tus(handler.PatchFile))
		uploadGroup.DELETE("/:id", tus(handler.DelFile))
	}
	// Menu images are public
	router.GET(ImageBasePath+"/:id", tus(handler.GetFile))
}
