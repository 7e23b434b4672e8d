// Mock methods required in Saffron tests are all here.

package test

import (
	"Saffron/pkg/log"
	"Saffron/pkg/middlewares"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Returns a fresh gin engine configured the way Saffron tests expect.
func MockRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.CORSMiddleware("*")) // CORS middleware which allows request from all origin
	return router
}

// Cookie to be used in tests to bypass MockAuthMiddleware
var MockAuthAllowCookie *http.Cookie = &http.Cookie{
	Name:     "mode",
	Value:    "test",
	HttpOnly: true,
}

// MockAuthMiddleware lets requests carrying MockAuthAllowCookie through as admin.
// An optional "user" cookie overrides the username.
func MockAuthMiddleware(logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		token, err := gctx.Request.Cookie("mode")
		if err != nil || token.Value != "test" {
			gctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		username := "admin"
		if user, err := gctx.Request.Cookie("user"); err == nil {
			username = user.Value
		}
		// Set Username in request's context
		// This pair will be used further down in the handler chain
		gctx.Set("Username", username)
		gctx.Next()
	}
}

// MockAdminToken signs an admin access token with secret, valid for an hour.
func MockAdminToken(secret string) string {
	return MockToken(secret, "admin", "admin", time.Hour)
}

// MockToken signs an access token carrying the given username and role.
// A negative ttl produces an already expired token.
func MockToken(secret, username, role string, ttl time.Duration) string {
	now := time.Now()
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"role":     role,
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}).SignedString([]byte(secret))
	return token
}
