package handlers

import (
	"context"
	"driverless-backend/internal/models"
	"driverless-backend/internal/repository"
	"driverless-backend/internal/services"
	"driverless-backend/pkg/utils"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// IncidentArchive reads back archived log entries.
type IncidentArchive interface {
	FindRecent(ctx context.Context, limit int) ([]models.LogEntry, error)
}

type LogHandler struct {
	unit    *services.ControlUnit
	archive IncidentArchive
}

// NewLogHandler builds the log endpoints. archive may be nil when no
// archive database is configured.
func NewLogHandler(unit *services.ControlUnit, archive IncidentArchive) *LogHandler {
	return &LogHandler{
		unit:    unit,
		archive: archive,
	}
}

// ReadLog drains the incident log, newest entry first.
func (h *LogHandler) ReadLog(c *gin.Context) {
	entries := h.unit.ReadLog()
	utils.SuccessResponse(c, http.StatusOK, "Incident log read successfully", gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

func (h *LogHandler) GetArchive(c *gin.Context) {
	if h.archive == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Incident archive not configured", nil)
		return
	}

	limit := repository.DefaultArchiveLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid limit", errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	entries, err := h.archive.FindRecent(ctx, limit)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to read incident archive", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Archived incidents retrieved successfully", entries)
}
