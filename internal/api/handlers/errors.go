package handlers

import (
	"driverless-backend/internal/services"
	"driverless-backend/pkg/utils"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DomainErrorResponse answers with the status matching a control unit error.
// data is attached when the operation still produced a result, such as the
// vehicle snapshot after a rejected transition.
func DomainErrorResponse(c *gin.Context, message string, err error, data interface{}) {
	c.JSON(StatusFromError(err), utils.APIResponse{
		Success: false,
		Message: message,
		Data:    data,
		Error:   err.Error(),
	})
}

// StatusFromError maps the control unit's error taxonomy to HTTP.
func StatusFromError(err error) int {
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, services.ErrProtected):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrAlreadyOn),
		errors.Is(err, services.ErrAlreadyOff),
		errors.Is(err, services.ErrAlreadyStopped),
		errors.Is(err, services.ErrNotRunning):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidTarget):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInvalidEvent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
