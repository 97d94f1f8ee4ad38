package models

import "time"

// Community - срез сообщества, нужный ядру для авторизации
// входа в привязанные к сообществу чаты.
type Community struct {
	BaseModel
	Name    string  `gorm:"not null" json:"name"`
	OwnerID string  `gorm:"index;not null" json:"owner_id"`
	IconURL *string `json:"icon_url,omitempty"`

	Members []CommunityMember `gorm:"foreignKey:CommunityID" json:"members,omitempty"`
}

type CommunityMember struct {
	ID          string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CommunityID string    `gorm:"index;not null;uniqueIndex:idx_community_user" json:"community_id"`
	UserID      string    `gorm:"index;not null;uniqueIndex:idx_community_user" json:"user_id"`
	Role        string    `gorm:"default:'member'" json:"role"` // member, moderator
	JoinedAt    time.Time `gorm:"default:now()" json:"joined_at"`
}

const (
	CommunityRoleMember    = "member"
	CommunityRoleModerator = "moderator"
)
