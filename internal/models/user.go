package models

type UserRole string

const (
	UserRoleMember UserRole = "member"
	UserRoleAdmin  UserRole = "admin"
)

// User - минимальный срез профиля, который потребляет realtime-ядро:
// идентичность + отображаемые поля для резолва отправителя/актора.
// Полный CRUD профиля живет снаружи ядра.
type User struct {
	BaseModel
	Email     string   `gorm:"uniqueIndex;not null" json:"email"`
	Name      string   `gorm:"not null" json:"name"`
	AvatarURL *string  `json:"avatar_url,omitempty"`
	Role      UserRole `gorm:"type:varchar(20);default:'member'" json:"role"`
}
