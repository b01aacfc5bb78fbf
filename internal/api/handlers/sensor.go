package handlers

import (
	"driverless-backend/internal/services"
	"driverless-backend/pkg/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ObstacleRequest struct {
	Type int `json:"type" validate:"required,min=1,max=5"`
	Lane int `json:"lane" validate:"required,min=1,max=3"`
}

type PeerVehicleRequest struct {
	Type      int    `json:"type" validate:"required,min=1,max=5"`
	Velocity  int    `json:"velocity" validate:"min=0,max=160"`
	Direction string `json:"direction" validate:"required,oneof=N S n s"`
	Lane      int    `json:"lane" validate:"required,min=1,max=3"`
}

type SignRequest struct {
	Code int `json:"code" validate:"required,min=1,max=5"`
}

// SensorHandler accepts LiDAR, V2V and traffic sign events and returns the
// control unit's decision for each one.
type SensorHandler struct {
	unit      *services.ControlUnit
	validator *validator.Validate
}

func NewSensorHandler(unit *services.ControlUnit) *SensorHandler {
	return &SensorHandler{
		unit:      unit,
		validator: validator.New(),
	}
}

func (h *SensorHandler) RecordObstacle(c *gin.Context) {
	var req ObstacleRequest
	if !h.bind(c, &req) {
		return
	}

	report, err := h.unit.RecordObstacle(req.Type, req.Lane)
	h.respond(c, "Obstacle recorded", report, err)
}

func (h *SensorHandler) GetObstacles(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Obstacles retrieved successfully", h.unit.ListObstacles())
}

func (h *SensorHandler) RecordPeerVehicle(c *gin.Context) {
	var req PeerVehicleRequest
	if !h.bind(c, &req) {
		return
	}

	report, err := h.unit.RecordPeerVehicle(req.Type, req.Velocity, req.Direction, req.Lane)
	h.respond(c, "Vehicle recorded", report, err)
}

func (h *SensorHandler) GetPeerVehicles(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Vehicles retrieved successfully", h.unit.ListPeerVehicles())
}

func (h *SensorHandler) RecordSign(c *gin.Context) {
	var req SignRequest
	if !h.bind(c, &req) {
		return
	}

	report, err := h.unit.RecordSign(req.Code)
	h.respond(c, "Traffic sign evaluated", report, err)
}

func (h *SensorHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := h.validator.Struct(req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return false
	}
	return true
}

func (h *SensorHandler) respond(c *gin.Context, message string, report services.Report, err error) {
	if err != nil {
		DomainErrorResponse(c, "Sensor event rejected", err, nil)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, message, report)
}
