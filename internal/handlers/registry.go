package handlers

import (
	"bondlink_backend/internal/services"
)

// AppHandlers - контейнер всех HTTP-обработчиков приложения
type AppHandlers struct {
	Chat         *ChatHandler
	Notification *NotificationHandler
}

func NewAppHandlers(container *services.ServiceContainer) *AppHandlers {
	base := NewBaseHandler()

	return &AppHandlers{
		Chat:         NewChatHandler(base, container.ChatService),
		Notification: NewNotificationHandler(base, container.NotificationService),
	}
}
