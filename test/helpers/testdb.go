package helpers

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bondlink_backend/internal/auth"
	"bondlink_backend/internal/models"
)

// CreateUser создает пользователя с уникальным email
func CreateUser(t *testing.T, db *gorm.DB, name string) *models.User {
	user := &models.User{
		Name:  name,
		Email: fmt.Sprintf("%s_%d_%s@test.com", name, time.Now().UnixNano(), uuid.NewString()[:8]),
		Role:  models.UserRoleMember,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Не удалось создать тестового пользователя %s: %v", name, err)
	}
	return user
}

// CreateUserWithToken создает пользователя и выпускает для него
// сессионный токен (выпуск учетных данных живет вне ядра, поэтому
// токен подписывается напрямую)
func CreateUserWithToken(t *testing.T, db *gorm.DB, name string) (string, *models.User) {
	user := CreateUser(t, db, name)

	token, err := auth.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		t.Fatalf("Не удалось выпустить токен для %s: %v", name, err)
	}
	return token, user
}

// CreateCommunity создает сообщество; владелец входит модератором
func CreateCommunity(t *testing.T, db *gorm.DB, ownerID, name string) *models.Community {
	community := &models.Community{
		Name:    name,
		OwnerID: ownerID,
	}
	if err := db.Create(community).Error; err != nil {
		t.Fatalf("Не удалось создать сообщество %s: %v", name, err)
	}

	AddCommunityMember(t, db, community.ID, ownerID, models.CommunityRoleModerator)
	return community
}

// AddCommunityMember добавляет участника сообщества с ролью
func AddCommunityMember(t *testing.T, db *gorm.DB, communityID, userID, role string) {
	member := &models.CommunityMember{
		CommunityID: communityID,
		UserID:      userID,
		Role:        role,
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("Не удалось добавить участника сообщества: %v", err)
	}
}
