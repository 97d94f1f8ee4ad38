package chat

import "time"

// Message мутируется только добавлением read receipt или установкой
// флага Deleted. Content после удаления не перезаписывается - tombstone
// рендерится клиентом по флагу.
type Message struct {
	ID        string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ChatID    string     `gorm:"index;not null" json:"chat_id"`
	SenderID  string     `gorm:"index;not null" json:"sender_id"`
	Content   string     `gorm:"type:text" json:"content"`
	Deleted   bool       `gorm:"default:false" json:"deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	Attachments  []MessageAttachment  `gorm:"foreignKey:MessageID" json:"attachments,omitempty"`
	ReadReceipts []MessageReadReceipt `gorm:"foreignKey:MessageID" json:"read_receipts,omitempty"`
}

func (Message) TableName() string {
	return "chat.messages"
}

// MaxContentLength - верхняя граница длины текста сообщения
const MaxContentLength = 5000
