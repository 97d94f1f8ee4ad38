package chat

import "time"

type ChatParticipant struct {
	ID       string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ChatID   string    `gorm:"index;not null;uniqueIndex:idx_chat_user" json:"chat_id"`
	UserID   string    `gorm:"index;not null;uniqueIndex:idx_chat_user" json:"user_id"`
	JoinedAt time.Time `gorm:"default:now()" json:"joined_at"`
}

func (ChatParticipant) TableName() string {
	return "chat.chat_participants"
}
