package handlers

import (
	"driverless-backend/internal/models"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUserRoutes(env *testEnv) {
	handler := NewUserHandler(env.unit)
	env.protected.GET("/users", handler.GetUsers)
	env.protected.POST("/users", handler.CreateUser)
	env.protected.DELETE("/users/:username", handler.DeleteUser)
}

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)
	setupUserRoutes(env)
	token := env.login(t, "admin")
	env.unit.ReadLog()

	ada := map[string]string{"name": "Ada", "surname": "Lovelace", "username": "ada"}

	w := env.do(http.MethodPost, "/users", token, ada)
	require.Equal(t, http.StatusCreated, w.Code)
	var user models.User
	decode(t, w, &user)
	assert.Equal(t, "ada", user.Username)
	assert.False(t, user.Admin)

	w = env.do(http.MethodPost, "/users", token, ada)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodPost, "/users", token, map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, []string{
		"Attempted to add the user 'ada'. The user already exists.",
		"The user 'ada' has been added.",
	}, logMessages(env.unit))

	w = env.do(http.MethodGet, "/users", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []models.User
	decode(t, w, &users)
	assert.Len(t, users, 2)
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	setupUserRoutes(env)
	token := env.login(t, "admin")

	w := env.do(http.MethodPost, "/users", token, map[string]string{"name": "Ada", "surname": "Lovelace", "username": "ada"})
	require.Equal(t, http.StatusCreated, w.Code)

	tests := []struct {
		name     string
		username string
		want     int
	}{
		{"active admin is protected", "admin", http.StatusForbidden},
		{"unknown user", "ghost", http.StatusNotFound},
		{"regular user", "ada", http.StatusOK},
		{"already deleted", "ada", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodDelete, "/users/"+tt.username, token, nil)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestUserRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t)
	setupUserRoutes(env)

	w := env.do(http.MethodGet, "/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
