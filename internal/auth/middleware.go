// Auth middleware is used to validate JWT token sent via header, cookie or query.
// This verification is needed for endpoints which needs authenticated admins.

package auth

import (
	"Saffron/internal/errors"
	"Saffron/pkg/log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// This middleware is used to verify and validate incoming JWT against verifier.
// Blocks the request to go further into other handlers if token is invalid.
func AuthMiddleware(logger log.Logger, verifier Verifier) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		token := TokenFromRequest(gctx.Request)
		if token == "" {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, errors.Unauthorized(""))
			return
		}
		claims, err := verifier.VerifyPrivilegedToken(gctx, token)
		if err != nil {
			if resp, ok := err.(errors.ErrorResponse); ok {
				// Error during DB interaction
				gctx.AbortWithStatusJSON(resp.Status, resp)
				return
			}
			logger.WithCtx(gctx).Debug().Err(err).Msg("Rejected access token")
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, errors.Unauthorized(""))
			return
		}
		// Set Username and Claims in request's context
		// These pairs will be used further down in the handler chain
		gctx.Set("Username", claims.Username)
		gctx.Set("Claims", claims)
		gctx.Next()
	}
}

// TokenFromRequest extracts an access token from the Authorization header,
// the access_token cookie or the token query parameter, in that order.
// The query form exists for EventSource and WebSocket clients which can't set headers.
func TokenFromRequest(req *http.Request) string {
	if header := req.Header.Get("Authorization"); header != "" {
		if bearer, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(bearer)
		}
	}
	if cookie, err := req.Cookie("access_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return req.URL.Query().Get("token")
}
