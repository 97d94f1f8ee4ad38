package models

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationKind string

const (
	NotificationKindMessage      NotificationKind = "message"
	NotificationKindLike         NotificationKind = "like"
	NotificationKindComment      NotificationKind = "comment"
	NotificationKindBondRequest  NotificationKind = "bond_request"
	NotificationKindBondAccepted NotificationKind = "bond_accepted"
	NotificationKindPayment      NotificationKind = "payment"
	NotificationKindJoin         NotificationKind = "join"
)

// ValidNotificationKind проверяет, что kind входит в известный набор
func ValidNotificationKind(kind string) bool {
	switch NotificationKind(kind) {
	case NotificationKindMessage, NotificationKindLike, NotificationKindComment,
		NotificationKindBondRequest, NotificationKindBondAccepted,
		NotificationKindPayment, NotificationKindJoin:
		return true
	}
	return false
}

// Notification - persisted-запись уведомления.
// Создается любым доменным действием через NotificationService.Notify;
// мутируется только флагом seen; удаляется только явным действием владельца.
type Notification struct {
	BaseModel
	RecipientID string           `gorm:"not null;index" json:"recipient_id"`
	ActorID     string           `gorm:"index" json:"actor_id"`
	Kind        NotificationKind `gorm:"type:varchar(20);not null" json:"kind"`
	Message     string           `json:"message"`
	Refs        datatypes.JSON   `gorm:"type:jsonb" json:"refs,omitempty"` // {"post_id": "...", "chat_id": "...", "payment_id": "..."}
	Seen        bool             `gorm:"default:false;index" json:"seen"`
	SeenAt      *time.Time       `json:"seen_at,omitempty"`
}
