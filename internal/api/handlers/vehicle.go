package handlers

import (
	"driverless-backend/internal/models"
	"driverless-backend/internal/services"
	"driverless-backend/pkg/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ChangeLaneRequest struct {
	Lane int `json:"lane" validate:"required,min=1,max=3"`
}

// VehicleHandler exposes the car's state machine. Every response carries the
// vehicle snapshot, also when the transition was rejected.
type VehicleHandler struct {
	unit      *services.ControlUnit
	validator *validator.Validate
}

func NewVehicleHandler(unit *services.ControlUnit) *VehicleHandler {
	return &VehicleHandler{
		unit:      unit,
		validator: validator.New(),
	}
}

func (h *VehicleHandler) GetStatus(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Vehicle status retrieved successfully", h.unit.Status())
}

func (h *VehicleHandler) Start(c *gin.Context) {
	h.respond(c, "Car started", h.unit.Start)
}

func (h *VehicleHandler) Stop(c *gin.Context) {
	h.respond(c, "Car stopped", h.unit.Stop)
}

func (h *VehicleHandler) Accelerate(c *gin.Context) {
	h.respond(c, "Car accelerated", h.unit.Accelerate)
}

func (h *VehicleHandler) Brake(c *gin.Context) {
	h.respond(c, "Car slowed down", h.unit.Brake)
}

func (h *VehicleHandler) ChangeDirection(c *gin.Context) {
	h.respond(c, "Direction changed", h.unit.ChangeDirection)
}

func (h *VehicleHandler) ChangeLane(c *gin.Context) {
	var req ChangeLaneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	h.respond(c, "Lane changed", func() (models.Vehicle, error) {
		return h.unit.ChangeLane(req.Lane)
	})
}

func (h *VehicleHandler) respond(c *gin.Context, message string, transition func() (models.Vehicle, error)) {
	vehicle, err := transition()
	if err != nil {
		DomainErrorResponse(c, "Request rejected", err, vehicle)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, message, vehicle)
}
