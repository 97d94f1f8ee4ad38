package handlers

import (
	"github.com/gin-gonic/gin"

	"bondlink_backend/internal/middleware"
)

// RegisterRoutes - маршруты чатов и сообщений
func (h *ChatHandler) RegisterRoutes(api *gin.RouterGroup) {
	chats := api.Group("/chats")
	chats.Use(middleware.AuthMiddleware())
	{
		chats.POST("/direct", h.CreateDirectChat)
		chats.POST("/group", h.CreateGroupChat)
		chats.GET("", h.GetUserChats)
		chats.GET("/:chatId/messages", h.GetChatMessages)
		chats.POST("/:chatId/messages", h.SendMessage)
		chats.POST("/:chatId/read", h.MarkChatRead)
	}

	messages := api.Group("/messages")
	messages.Use(middleware.AuthMiddleware())
	{
		messages.DELETE("/:messageId", h.DeleteMessage)
	}
}

// RegisterRoutes - маршруты уведомлений
func (h *NotificationHandler) RegisterRoutes(api *gin.RouterGroup) {
	notifications := api.Group("/notifications")
	notifications.Use(middleware.AuthMiddleware())
	{
		notifications.GET("", h.ListNotifications)
		notifications.GET("/unseen-counts", h.UnseenCounts)
		notifications.PUT("/:id/seen", h.MarkSeen)
		notifications.PUT("/read-all", h.MarkAllSeen)
		notifications.DELETE("/:id", h.DeleteNotification)
	}
}
