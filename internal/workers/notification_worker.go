package workers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bondlink_backend/internal/logger"
	"bondlink_backend/internal/services"
)

const (
	// retentionDays - сколько дней живут просмотренные уведомления
	retentionDays = 90
	// cleanInterval - период уборки
	cleanInterval = 24 * time.Hour
)

// NotificationWorker периодически чистит старые просмотренные уведомления
type NotificationWorker struct {
	db                  *gorm.DB
	notificationService services.NotificationService
}

func NewNotificationWorker(db *gorm.DB, notificationService services.NotificationService) *NotificationWorker {
	return &NotificationWorker{
		db:                  db,
		notificationService: notificationService,
	}
}

// Start запускает фоновую уборку уведомлений
func (w *NotificationWorker) Start(ctx context.Context) {
	go w.cleanOldNotifications(ctx)
}

func (w *NotificationWorker) cleanOldNotifications(ctx context.Context) {
	ticker := time.NewTicker(cleanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("notification worker stopped")
			return
		case <-ticker.C:
			deleted, err := w.notificationService.CleanOldNotifications(w.db, retentionDays)
			if err != nil {
				logger.WorkerLog("notification", "clean old notifications", err)
				continue
			}
			if deleted > 0 {
				logger.Info("cleaned old notifications", "worker", "notification", "deleted", deleted)
			}
		}
	}
}
