package dto

import "time"

// NotificationRefs - опциональные ссылки на связанные сущности
type NotificationRefs struct {
	PostID    *string `json:"post_id,omitempty"`
	ChatID    *string `json:"chat_id,omitempty"`
	PaymentID *string `json:"payment_id,omitempty"`
}

func (r NotificationRefs) Empty() bool {
	return r.PostID == nil && r.ChatID == nil && r.PaymentID == nil
}

type NotificationResponse struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	ActorID     string           `json:"actor_id,omitempty"`
	ActorName   string           `json:"actor_name,omitempty"`
	ActorAvatar *string          `json:"actor_avatar,omitempty"`
	Kind        string           `json:"kind"`
	Message     string           `json:"message"`
	Refs        NotificationRefs `json:"refs"`
	Seen        bool             `json:"seen"`
	SeenAt      *time.Time       `json:"seen_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

type NotificationListResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	Total         int64                   `json:"total"`
	Page          int                     `json:"page"`
	PageSize      int                     `json:"page_size"`
	TotalPages    int                     `json:"total_pages"`
}

// UnseenCountsResponse - непросмотренные уведомления плюс непрочитанные
// чужие сообщения в чатах пользователя.
type UnseenCountsResponse struct {
	Notifications int64 `json:"notifications"`
	Messages      int64 `json:"messages"`
}
