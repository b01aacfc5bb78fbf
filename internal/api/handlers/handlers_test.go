package handlers

import (
	"bytes"
	"driverless-backend/internal/api/middleware"
	"driverless-backend/internal/models"
	"driverless-backend/internal/services"
	"driverless-backend/pkg/jwt"
	"driverless-backend/pkg/utils"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	unit     *services.ControlUnit
	sessions *services.SessionService
	router   *gin.Engine
	// protected routes are registered on this group
	protected *gin.RouterGroup
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	unit := services.NewControlUnit(models.User{Name: "John", Surname: "Doe", Username: "admin"})
	sessions := services.NewSessionService(unit, jwt.NewJWTUtil("test-secret", time.Hour))

	router := gin.New()
	protected := router.Group("")
	protected.Use(middleware.AuthMiddleware(sessions))

	return &testEnv{
		unit:      unit,
		sessions:  sessions,
		router:    router,
		protected: protected,
	}
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	resp, err := e.sessions.Login(&services.LoginRequest{Username: username})
	require.NoError(t, err)
	return resp.Token
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		if raw, ok := body.(string); ok {
			reader = bytes.NewBufferString(raw)
		} else {
			payload, _ := json.Marshal(body)
			reader = bytes.NewBuffer(payload)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decode unmarshals the response envelope, decoding data into data when it
// is not nil.
func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) utils.APIResponse {
	t.Helper()
	var envelope struct {
		utils.APIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	if data != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, data))
	}
	return envelope.APIResponse
}

func logMessages(unit *services.ControlUnit) []string {
	var messages []string
	for _, entry := range unit.ReadLog() {
		messages = append(messages, entry.Message)
	}
	return messages
}
