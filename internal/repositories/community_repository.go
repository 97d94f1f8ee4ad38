package repositories

import (
	"errors"

	"gorm.io/gorm"

	"bondlink_backend/internal/models"
)

var ErrCommunityNotFound = errors.New("community not found")

// CommunityRepository - контракт lookup'а сообщества: ядру нужны только
// проверки членства/модераторства для авторизации входа в community-чаты.
type CommunityRepository interface {
	Create(db *gorm.DB, community *models.Community) error
	FindByID(db *gorm.DB, id string) (*models.Community, error)
	AddMember(db *gorm.DB, member *models.CommunityMember) error
	IsMember(db *gorm.DB, communityID, userID string) (bool, error)
	IsModerator(db *gorm.DB, communityID, userID string) (bool, error)
}

type CommunityRepositoryImpl struct{}

func NewCommunityRepository() CommunityRepository {
	return &CommunityRepositoryImpl{}
}

func (r *CommunityRepositoryImpl) Create(db *gorm.DB, community *models.Community) error {
	return db.Create(community).Error
}

func (r *CommunityRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Community, error) {
	var community models.Community
	if err := db.First(&community, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommunityNotFound
		}
		return nil, err
	}
	return &community, nil
}

func (r *CommunityRepositoryImpl) AddMember(db *gorm.DB, member *models.CommunityMember) error {
	return db.Create(member).Error
}

func (r *CommunityRepositoryImpl) IsMember(db *gorm.DB, communityID, userID string) (bool, error) {
	var count int64
	err := db.Model(&models.CommunityMember{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *CommunityRepositoryImpl) IsModerator(db *gorm.DB, communityID, userID string) (bool, error) {
	var count int64
	err := db.Model(&models.CommunityMember{}).
		Where("community_id = ? AND user_id = ? AND role = ?", communityID, userID, models.CommunityRoleModerator).
		Count(&count).Error
	return count > 0, err
}
