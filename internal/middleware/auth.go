package middleware

import (
	"errors"
	"strings"

	"github.com/damoang/angple-chat/internal/common"
	"github.com/damoang/angple-chat/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// JWTAuth JWT authentication middleware (Authorization: Bearer <token>)
func JWTAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return authenticate(jwtManager, false)
}

// JWTAuthWS is JWTAuth that also accepts ?token= since browsers cannot set
// headers on a WebSocket handshake
func JWTAuthWS(jwtManager *jwt.Manager) gin.HandlerFunc {
	return authenticate(jwtManager, true)
}

func authenticate(jwtManager *jwt.Manager, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Extract token
		tokenString, ok := bearerToken(c)
		if !ok && allowQuery {
			tokenString = c.Query("token")
			ok = tokenString != ""
		}
		if !ok {
			common.ErrorResponse(c, 401, "Not authorized, no token", common.ErrUnauthorized)
			c.Abort()
			return
		}

		// 2. Verify token
		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				common.ErrorResponse(c, 401, "Token expired", err)
			} else {
				common.ErrorResponse(c, 401, "Not authorized, token failed", err)
			}
			c.Abort()
			return
		}

		// 3. Store user info in context
		c.Set("userID", claims.UserID)
		c.Set("userName", claims.Name)

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get("userID")
	if !exists {
		return ""
	}
	if str, ok := userID.(string); ok {
		return str
	}
	return ""
}

// GetUserName extracts the display name from context
func GetUserName(c *gin.Context) string {
	if name, ok := c.Get("userName"); ok {
		if str, ok := name.(string); ok {
			return str
		}
	}
	return ""
}
