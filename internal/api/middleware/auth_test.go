package middleware

import (
	"driverless-backend/internal/models"
	"driverless-backend/internal/services"
	"driverless-backend/pkg/jwt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, *services.SessionService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	unit := services.NewControlUnit(models.User{Name: "John", Surname: "Doe", Username: "admin"})
	sessions := services.NewSessionService(unit, jwt.NewJWTUtil("test-secret", time.Hour))

	router := gin.New()
	router.GET("/protected", AuthMiddleware(sessions), func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"username": c.GetString(UsernameKey), "sid": claims.SessionID})
	})
	return router, sessions
}

func get(router *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	router, sessions := setupAuthRouter(t)
	login, err := sessions.Login(&services.LoginRequest{Username: "admin"})
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		w := get(router, "/protected", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Authorization header required")
	})

	t.Run("bearer token", func(t *testing.T) {
		w := get(router, "/protected", "Bearer "+login.Token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"username":"admin"`)
	})

	t.Run("bare token", func(t *testing.T) {
		w := get(router, "/protected", login.Token)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("query token", func(t *testing.T) {
		w := get(router, "/protected?token="+login.Token, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := get(router, "/protected", "Bearer nope")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthMiddlewareRejectsReplacedSession(t *testing.T) {
	router, sessions := setupAuthRouter(t)

	first, err := sessions.Login(&services.LoginRequest{Username: "admin"})
	require.NoError(t, err)
	_, err = sessions.Login(&services.LoginRequest{Username: "admin"})
	require.NoError(t, err)

	w := get(router, "/protected", "Bearer "+first.Token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
