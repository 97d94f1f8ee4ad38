package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"bondlink_backend/internal/config"
	"bondlink_backend/internal/logger"
	"bondlink_backend/internal/models"
	chatmodels "bondlink_backend/internal/models/chat"
)

var gormDB *gorm.DB

// ConnectGorm инициализирует GORM с URL из конфигурации
func ConnectGorm() (*gorm.DB, error) {
	if gormDB != nil {
		return gormDB, nil
	}

	cfg := config.GetConfig()
	dsn := cfg.Database.DSN

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to GORM: %w", err)
	}

	gormDB = db
	return db, nil
}

// AutoMigrate выполняет миграцию всех моделей
func AutoMigrate(db *gorm.DB) error {
	// chat-модели живут в отдельной postgres-схеме
	if err := db.Exec("CREATE SCHEMA IF NOT EXISTS chat").Error; err != nil {
		return fmt.Errorf("failed to create chat schema: %w", err)
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.Community{},
		&models.CommunityMember{},
		&models.Notification{},
		// chat модуль
		&chatmodels.Chat{},
		&chatmodels.ChatParticipant{},
		&chatmodels.Message{},
		&chatmodels.MessageAttachment{},
		&chatmodels.MessageReadReceipt{},
	)
	if err != nil {
		return fmt.Errorf("AutoMigrate failed: %w", err)
	}

	logger.Info("AutoMigrate completed")
	return nil
}
