package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bondlink_backend/database"
	"bondlink_backend/internal/config"
	"bondlink_backend/internal/email"
	"bondlink_backend/internal/handlers"
	"bondlink_backend/internal/logger"
	"bondlink_backend/internal/middleware"
	"bondlink_backend/internal/repositories"
	"bondlink_backend/internal/routes"
	"bondlink_backend/internal/services"
	"bondlink_backend/internal/workers"
	"bondlink_backend/ws"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := database.ConnectGorm()
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}

	ginRouter, container := assemble(cfg, gormDB)

	// Фоновые воркеры живут до остановки процесса
	workers.NewNotificationWorker(gormDB, container.NotificationService).Start(context.Background())

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter собирает полный gin.Engine приложения. Используется
// интеграционными тестами, которым воркеры не нужны.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) *gin.Engine {
	ginRouter, _ := assemble(cfg, gormDB)
	return ginRouter
}

// assemble связывает реестр соединений, сервисы, хэндлеры и маршруты
func assemble(cfg *config.Config, gormDB *gorm.DB) (*gin.Engine, *services.ServiceContainer) {
	// 1. Реестр живых соединений
	registry := ws.NewRegistry()

	// 2. Сервисы (broadcaster'ом выступает реестр)
	serviceContainer := buildServices(cfg, gormDB, registry)

	// 3. Хэндлеры
	appHandlers := handlers.NewAppHandlers(serviceContainer)

	// 4. WebSocket handshake
	userRepo := repositories.NewUserRepository()
	wsHandler := ws.NewHandler(registry, serviceContainer.ChatService, userRepo, gormDB, cfg)

	// 5. Gin + маршруты
	ginRouter := initializeGinRouter(gormDB)
	routes.RegisterRoutes(ginRouter, appHandlers, wsHandler)

	return ginRouter, serviceContainer
}

func buildServices(cfg *config.Config, gormDB *gorm.DB, broadcaster services.Broadcaster) *services.ServiceContainer {
	var emailProvider email.Provider
	if cfg.Email.Enabled {
		emailProvider = email.NewSMTPProvider(&email.SMTPConfig{
			Host:      cfg.Email.SMTPHost,
			Port:      cfg.Email.SMTPPort,
			Username:  cfg.Email.SMTPUsername,
			Password:  cfg.Email.SMTPPassword,
			FromEmail: cfg.Email.FromEmail,
			FromName:  cfg.Email.FromName,
		})
		logger.Info("Email provider initialized", "host", cfg.Email.SMTPHost)
	} else {
		logger.Warn("Email provider disabled: offline notification emails will not be sent")
	}

	userRepo := repositories.NewUserRepository()
	communityRepo := repositories.NewCommunityRepository()
	chatRepo := repositories.NewChatRepository()
	notificationRepo := repositories.NewNotificationRepository()

	return services.NewServiceContainer(
		chatRepo,
		userRepo,
		communityRepo,
		notificationRepo,
		broadcaster,
		emailProvider,
	)
}

func initializeGinRouter(db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DBMiddleware(db))
	return router
}
