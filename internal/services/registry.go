package services

import (
	"bondlink_backend/internal/email"
	"bondlink_backend/internal/repositories"
)

// ServiceContainer - контейнер сервисов ядра, собирается один раз в app
type ServiceContainer struct {
	ChatService         ChatService
	NotificationService NotificationService
}

func NewServiceContainer(
	chatRepo repositories.ChatRepository,
	userRepo repositories.UserRepository,
	communityRepo repositories.CommunityRepository,
	notificationRepo repositories.NotificationRepository,
	broadcaster Broadcaster,
	emailProvider email.Provider,
) *ServiceContainer {
	notificationService := NewNotificationService(notificationRepo, userRepo, chatRepo, broadcaster, emailProvider)
	return &ServiceContainer{
		ChatService:         NewChatService(chatRepo, userRepo, communityRepo, broadcaster, notificationService),
		NotificationService: notificationService,
	}
}
