package dto

import "time"

// Request/Response structures

type CreateDirectChatRequest struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
}

type CreateGroupChatRequest struct {
	Name           string   `json:"name" validate:"required,max=100"`
	ParticipantIDs []string `json:"participant_ids" validate:"required,min=1,dive,uuid4"`
	CommunityID    *string  `json:"community_id,omitempty" validate:"omitempty,uuid4"`
}

type AttachmentInput struct {
	URL      string                 `json:"url" validate:"required,url"`
	Kind     string                 `json:"kind" validate:"required,oneof=image video file"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// SendMessageRequest используется и REST-путем, и live-каналом.
// Инвариант content/attachments проверяется в сервисе, а не тегами:
// content обязателен только при пустых attachments.
type SendMessageRequest struct {
	ChatID      string            `json:"chat_id" validate:"required,uuid4"`
	Content     string            `json:"content" validate:"omitempty,max=5000"`
	Attachments []AttachmentInput `json:"attachments,omitempty" validate:"omitempty,dive"`
}

type ChatResponse struct {
	ID           string                 `json:"id"`
	IsGroup      bool                   `json:"is_group"`
	Name         *string                `json:"name,omitempty"`
	CommunityID  *string                `json:"community_id,omitempty"`
	LastMessage  *MessageResponse       `json:"last_message,omitempty"`
	Participants []*ParticipantResponse `json:"participants"`
	UnreadCount  int64                  `json:"unread_count"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

type ParticipantResponse struct {
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	JoinedAt  time.Time `json:"joined_at"`
}

type MessageResponse struct {
	ID           string                `json:"id"`
	ChatID       string                `json:"chat_id"`
	SenderID     string                `json:"sender_id"`
	SenderName   string                `json:"sender_name,omitempty"`
	SenderAvatar *string               `json:"sender_avatar,omitempty"`
	Content      string                `json:"content"`
	Deleted      bool                  `json:"deleted"`
	DeletedAt    *time.Time            `json:"deleted_at,omitempty"`
	Attachments  []*AttachmentResponse `json:"attachments"`
	ReadBy       []*ReadReceiptItem    `json:"read_by"`
	CreatedAt    time.Time             `json:"created_at"`
}

type AttachmentResponse struct {
	ID       string                 `json:"id"`
	URL      string                 `json:"url"`
	Kind     string                 `json:"kind"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type ReadReceiptItem struct {
	UserID string    `json:"user_id"`
	ReadAt time.Time `json:"read_at"`
}

type MessageListResponse struct {
	Messages      []*MessageResponse `json:"messages"`
	Page          int                `json:"page"`
	PageSize      int                `json:"page_size"`
	TotalPages    int                `json:"total_pages"`
	TotalMessages int64              `json:"total_messages"`
}
