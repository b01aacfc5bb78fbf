package handlers

import (
	"driverless-backend/internal/services"
	"driverless-backend/pkg/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type UserHandler struct {
	unit      *services.ControlUnit
	validator *validator.Validate
}

func NewUserHandler(unit *services.ControlUnit) *UserHandler {
	return &UserHandler{
		unit:      unit,
		validator: validator.New(),
	}
}

// GetUsers retrieves all users
func (h *UserHandler) GetUsers(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Users retrieved successfully", h.unit.ListUsers())
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req services.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	user, err := h.unit.AddUser(req)
	if err != nil {
		DomainErrorResponse(c, "Failed to create user", err, nil)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "User created successfully", user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	username := c.Param("username")
	if username == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Username is required", nil)
		return
	}

	if err := h.unit.DeleteUser(username); err != nil {
		DomainErrorResponse(c, "Failed to delete user", err, nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "User deleted successfully", nil)
}
