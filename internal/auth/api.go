// Exposes all of the REST APIs related to admin authentication in Saffron.

package auth

import (
	"Saffron/internal/entity"
	"Saffron/internal/errors"
	"Saffron/pkg/log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Registers all of the REST API handlers related to internal package auth onto the gin server.
func APIHandlers(router *gin.Engine, authService Service, AuthWithAcc gin.HandlerFunc, domain string, logger log.Logger) {
	authGroup := router.Group("/api/auth")
	{
		authGroup.GET("/validate_token", AuthWithAcc, validateToken(logger))
		authGroup.POST("/login", login(authService, domain, logger))
		authGroup.POST("/logout", AuthWithAcc, logout(authService, domain, logger))
	}
}

// login returns a handler which takes care of admin login in Saffron.
func login(authService Service, domain string, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var user entity.UserLogin

		// Serialize received data into UserLogin struct
		if binderr := gctx.ShouldBindJSON(&user); binderr != nil {
			// Error occured during serialization
			logger.WithCtx(gctx).Debug().Err(binderr).Msg("Binding error occured with UserLogin struct.")
			gctx.AbortWithStatusJSON(http.StatusUnprocessableEntity, errors.UnprocessableEntity(""))
			return
		}

		// Apply the service logic for admin login in Saffron
		token, err := authService.login(gctx, user)
		if err != nil {
			// Error occured, might be validation or server error
			resp, _ := errors.StatusOf(err)
			gctx.AbortWithStatusJSON(resp.Status, resp)
			return
		}

		// login successful, Add the jwt in request's cookie with httpOnly as true
		http.SetCookie(gctx.Writer, &http.Cookie{
			Name:     "access_token",
			Value:    token.AccessToken,
			Expires:  token.ExpiresAt,
			MaxAge:   int(time.Until(token.ExpiresAt).Seconds()),
			Domain:   domain,
			Path:     "/api",
			Secure:   true,
			HttpOnly: true,
			SameSite: http.SameSiteNoneMode,
		})
		// Token is also returned in the body for clients which can't use cookies
		gctx.JSON(http.StatusOK, token)
	}
}

// Logout returns a handler which takes care of admin logout from Saffron.
func logout(authService Service, domain string, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		claims, _ := gctx.Value("Claims").(*Claims)
		if err := authService.logout(gctx, claims); err != nil {
			resp, _ := errors.StatusOf(err)
			gctx.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		// Delete access_token cookie from client's header
		http.SetCookie(gctx.Writer, &http.Cookie{
			Name:     "access_token",
			Value:    "",
			Expires:  time.Now(),
			MaxAge:   -1,
			Domain:   domain,
			Path:     "/api",
			Secure:   true,
			HttpOnly: true,
			SameSite: http.SameSiteNoneMode,
		})
		gctx.Status(http.StatusOK)
	}
}

// validateToken reports the identity behind a token which already passed AuthMiddleware.
func validateToken(logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		claims, ok := gctx.Value("Claims").(*Claims)
		if !ok {
			gctx.JSON(http.StatusOK, gin.H{"username": gctx.GetString("Username")})
			return
		}
		gctx.JSON(http.StatusOK, gin.H{
			"username":   claims.Username,
			"role":       claims.Role,
			"expires_at": claims.ExpiresAt.Time,
		})
	}
}
