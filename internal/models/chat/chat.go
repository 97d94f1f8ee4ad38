package chat

import "time"

// Chat - persistent-сущность беседы. Личный чат уникален по
// неупорядоченной паре участников (lookup-before-create в сервисе),
// групповой требует непустое Name. Чат никогда не удаляется жестко -
// soft-delete есть только у его сообщений.
type Chat struct {
	ID            string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	IsGroup       bool    `gorm:"default:false" json:"is_group"`
	Name          *string `json:"name,omitempty"`
	CommunityID   *string `gorm:"index" json:"community_id,omitempty"`
	LastMessageID *string `gorm:"index" json:"last_message_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Participants []ChatParticipant `gorm:"foreignKey:ChatID" json:"participants,omitempty"`
	LastMessage  *Message          `gorm:"foreignKey:LastMessageID" json:"last_message,omitempty"`
}

func (Chat) TableName() string {
	return "chat.chats"
}
