package chat

import (
	"time"

	"gorm.io/datatypes"
)

// MessageAttachment хранит только ссылку на уже загруженный файл -
// само хранилище файлов живет снаружи ядра.
type MessageAttachment struct {
	ID        string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	MessageID string         `gorm:"index;not null" json:"message_id"`
	URL       string         `gorm:"not null" json:"url"`
	Kind      string         `json:"kind"` // image, video, file
	Metadata  datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func (MessageAttachment) TableName() string {
	return "chat.message_attachments"
}
