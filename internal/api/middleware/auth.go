package middleware

import (
	"driverless-backend/internal/services"
	"driverless-backend/pkg/jwt"
	"driverless-backend/pkg/utils"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	UsernameKey = "username"
	RoleKey     = "role"
	ClaimsKey   = "claims"
	TokenKey    = "token"
)

// TokenValidator checks a session token against the current active user.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// AuthMiddleware only lets requests through whose token belongs to the
// control unit's active user. The websocket route passes the token as a
// query parameter since browsers cannot set headers on the upgrade.
func AuthMiddleware(sessions TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authorization header required", nil)
			c.Abort()
			return
		}

		claims, err := sessions.ValidateToken(tokenString)
		if err != nil {
			status := http.StatusUnauthorized
			if !errors.Is(err, services.ErrUnauthorized) {
				status = http.StatusInternalServerError
			}
			utils.ErrorResponse(c, status, "Invalid or expired session", err)
			c.Abort()
			return
		}

		c.Set(UsernameKey, claims.Username)
		c.Set(RoleKey, claims.Role)
		c.Set(ClaimsKey, claims)
		c.Set(TokenKey, tokenString)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		// accept both "Bearer <token>" and a bare token
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return c.Query("token")
}

// ClaimsFrom returns the claims stored by AuthMiddleware.
func ClaimsFrom(c *gin.Context) (*jwt.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}
