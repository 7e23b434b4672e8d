// Context middleware is used in gin to populate request context with unique ID.
// This ID will be helpful in debugging issues happening for a request in handler chain.

package globalcontext

import (
	"Saffron/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carrying the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// UniqueIDMiddleware stores a ReqID on every request, read back by log.Logger.WithCtx.
// A well formed ID sent by a proxy in front of Saffron is kept so both logs line up.
func UniqueIDMiddleware(logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		reqID := gctx.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(reqID); err != nil {
			rqId, uuiderr := uuid.NewRandom()
			if uuiderr != nil {
				logger.Error().Err(uuiderr).Msg("Error during generating UUID for ReqID.")
				gctx.Next()
				return
			}
			reqID = rqId.String()
		}
		gctx.Set("ReqID", reqID)
		gctx.Writer.Header().Set(RequestIDHeader, reqID)
		gctx.Next()
	}
}
