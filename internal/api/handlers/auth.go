package handlers

import (
	"driverless-backend/internal/api/middleware"
	"driverless-backend/internal/services"
	"driverless-backend/pkg/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	sessions  *services.SessionService
	validator *validator.Validate
}

func NewAuthHandler(sessions *services.SessionService) *AuthHandler {
	return &AuthHandler{
		sessions:  sessions,
		validator: validator.New(),
	}
}

// Login authenticates the operator. A failed login ends the console session:
// no token is issued and the caller has to start over.
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	response, err := h.sessions.Login(&req)
	if err != nil {
		DomainErrorResponse(c, "Authentication failed", err, nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Login successful", response)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	if err := h.sessions.Logout(claims); err != nil {
		DomainErrorResponse(c, "Logout failed", err, nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Logout successful", nil)
}

// Refresh reissues the session token when it is about to expire.
func (h *AuthHandler) Refresh(c *gin.Context) {
	tokenString := c.GetString(middleware.TokenKey)
	if tokenString == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	token, err := h.sessions.Refresh(tokenString)
	if err != nil {
		DomainErrorResponse(c, "Token refresh failed", err, nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Token refreshed successfully", gin.H{
		"token": token,
	})
}

// Me returns the session's username and role.
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Session retrieved successfully", gin.H{
		"username":  claims.Username,
		"role":      claims.Role,
		"expiresAt": claims.ExpiresAt,
	})
}
