package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"bondlink_backend/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository interface {
	Create(db *gorm.DB, n *models.Notification) error
	FindByID(db *gorm.DB, id string) (*models.Notification, error)
	FindByRecipient(db *gorm.DB, recipientID string, offset, limit int) ([]models.Notification, int64, error)
	MarkSeen(db *gorm.DB, recipientID string, ids []string, at time.Time) error
	MarkAllSeen(db *gorm.DB, recipientID string, at time.Time) error
	CountUnseen(db *gorm.DB, recipientID string) (int64, error)
	Delete(db *gorm.DB, recipientID, id string) error
	DeleteOldSeen(db *gorm.DB, olderThan time.Time) (int64, error)
}

type NotificationRepositoryImpl struct{}

func NewNotificationRepository() NotificationRepository {
	return &NotificationRepositoryImpl{}
}

func (r *NotificationRepositoryImpl) Create(db *gorm.DB, n *models.Notification) error {
	return db.Create(n).Error
}

func (r *NotificationRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Notification, error) {
	var n models.Notification
	if err := db.First(&n, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepositoryImpl) FindByRecipient(db *gorm.DB, recipientID string, offset, limit int) ([]models.Notification, int64, error) {
	var total int64
	if err := db.Model(&models.Notification{}).Where("recipient_id = ?", recipientID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []models.Notification
	err := db.Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&notifications).Error
	return notifications, total, err
}

// MarkSeen помечает перечисленные уведомления; уже просмотренные не
// трогаются, чтобы не перезаписывать seen_at.
func (r *NotificationRepositoryImpl) MarkSeen(db *gorm.DB, recipientID string, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return db.Model(&models.Notification{}).
		Where("recipient_id = ? AND id IN ? AND seen = ?", recipientID, ids, false).
		Updates(map[string]interface{}{"seen": true, "seen_at": at}).Error
}

func (r *NotificationRepositoryImpl) MarkAllSeen(db *gorm.DB, recipientID string, at time.Time) error {
	return db.Model(&models.Notification{}).
		Where("recipient_id = ? AND seen = ?", recipientID, false).
		Updates(map[string]interface{}{"seen": true, "seen_at": at}).Error
}

func (r *NotificationRepositoryImpl) CountUnseen(db *gorm.DB, recipientID string) (int64, error) {
	var count int64
	err := db.Model(&models.Notification{}).
		Where("recipient_id = ? AND seen = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// Delete удаляет уведомление только по явному действию владельца
func (r *NotificationRepositoryImpl) Delete(db *gorm.DB, recipientID, id string) error {
	result := db.Where("recipient_id = ? AND id = ?", recipientID, id).
		Delete(&models.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// DeleteOldSeen чистит просмотренные уведомления старше границы (retention worker)
func (r *NotificationRepositoryImpl) DeleteOldSeen(db *gorm.DB, olderThan time.Time) (int64, error) {
	result := db.Where("seen = ? AND created_at < ?", true, olderThan).
		Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}
