package chat

import "time"

// MessageReadReceipt - отметка "прочитано" конкретным читателем.
// Пара (message_id, user_id) уникальна; ReadAt никогда не перезаписывается.
type MessageReadReceipt struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	MessageID string    `gorm:"index;not null;uniqueIndex:idx_message_reader" json:"message_id"`
	UserID    string    `gorm:"index;not null;uniqueIndex:idx_message_reader" json:"user_id"`
	ReadAt    time.Time `json:"read_at"`
}

func (MessageReadReceipt) TableName() string {
	return "chat.message_read_receipts"
}
