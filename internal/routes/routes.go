package routes

import (
	"github.com/gin-gonic/gin"

	"bondlink_backend/internal/handlers"
	"bondlink_backend/internal/logger"
	"bondlink_backend/ws"
)

// RegisterRoutes регистрирует все HTTP и WebSocket маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.Handler,
) {
	// HTTP API v1
	api := ginRouter.Group("/api/v1")
	{
		appHandlers.Chat.RegisterRoutes(api)
		appHandlers.Notification.RegisterRoutes(api)
	}

	// WebSocket: аутентификация выполняется самим handshake'ом
	// (токен в cookie), поэтому без AuthMiddleware
	ginRouter.GET("/ws", wsHandler.ServeWS)
	logger.Info("WebSocket route /ws registered")
}
