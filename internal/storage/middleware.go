// Middlewares needed by tus upload handling service are defined here.

package storage

import (
	"Saffron/pkg/log"
	"context"
	"net/http"
	"syscall"

	"github.com/gin-gonic/gin"
)

// Disk space always kept free besides the largest upload.
const reservedDiskSpace = 52428800

// UploadStorageMiddleware rejects new uploads when the disk cannot take another one.
func UploadStorageMiddleware(cfg Config, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		if gctx.Request.Method != http.MethodPost {
			gctx.Next()
			return
		}
		diskSpaceAvail, err := getAvailableDiskSpace(gctx, cfg.Path, logger)
		if err != nil {
			gctx.AbortWithStatus(http.StatusInternalServerError)
			return
		} else if diskSpaceAvail < uint64(cfg.MaxSize)+reservedDiskSpace {
			// Not enough space available
			gctx.AbortWithStatus(http.StatusInsufficientStorage)
			return
		}
		gctx.Next()
	}
}

// Helper method to get available disk space
func getAvailableDiskSpace(ctx context.Context, path string, logger log.Logger) (uint64, error) {
	fs := syscall.Statfs_t{}
	err := syscall.Statfs(path, &fs)
	if err != nil {
		logger.WithCtx(ctx).Error().Err(err).Msg("Error occured while trying to fetch available disk space")
		return 0, err
	}
	return fs.Bavail * uint64(fs.Bsize), nil
}
