package handlers

import (
	"driverless-backend/internal/api/middleware"
	"driverless-backend/internal/websocket"
	"driverless-backend/pkg/utils"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// WebSocketHandler streams incidents to the console. The route sits behind
// AuthMiddleware, which also accepts the token as ?token=.
type WebSocketHandler struct {
	manager *websocket.Manager
}

func NewWebSocketHandler(manager *websocket.Manager) *WebSocketHandler {
	return &WebSocketHandler{
		manager: manager,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	username := c.GetString(middleware.UsernameKey)

	conn, err := h.manager.GetUpgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already wrote the HTTP error
		log.Printf("Failed to upgrade connection to WebSocket: %v", err)
		return
	}

	log.Printf("WebSocket client connected for %s", username)
	if err := h.manager.ServeClient(username, conn); err != nil {
		log.Printf("WebSocket client for %s rejected: %v", username, err)
	}
}

func (h *WebSocketHandler) GetConnectedClients(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "WebSocket clients retrieved successfully", gin.H{
		"connectedClients": h.manager.GetConnectedClients(),
		"stats":            h.manager.GetClientStats(),
	})
}

func (h *WebSocketHandler) DisconnectClient(c *gin.Context) {
	clientID := c.Param("clientId")
	if clientID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Client ID is required", nil)
		return
	}

	if err := h.manager.UnregisterClient(clientID); err != nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Failed to disconnect client", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Client disconnected successfully", nil)
}
