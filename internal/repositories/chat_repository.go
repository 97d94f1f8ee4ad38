package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bondlink_backend/internal/models/chat"
)

var (
	ErrChatNotFound    = errors.New("chat not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrUserNotInChat   = errors.New("user is not a participant in this chat")
)

type ChatRepository interface {
	// Chat operations
	CreateChat(db *gorm.DB, c *chat.Chat) error
	FindChatByID(db *gorm.DB, id string) (*chat.Chat, error)
	FindDirectChatBetween(db *gorm.DB, userA, userB string) (*chat.Chat, error)
	FindUserChats(db *gorm.DB, userID string) ([]chat.Chat, error)
	UpdateLastMessage(db *gorm.DB, chatID, messageID string) error

	// Participant operations
	AddParticipants(db *gorm.DB, participants []*chat.ChatParticipant) error
	IsParticipant(db *gorm.DB, chatID, userID string) (bool, error)
	ParticipantIDs(db *gorm.DB, chatID string) ([]string, error)

	// Message operations
	CreateMessage(db *gorm.DB, m *chat.Message) error
	FindMessageByID(db *gorm.DB, id string) (*chat.Message, error)
	FindMessagesByChat(db *gorm.DB, chatID string, offset, limit int) ([]chat.Message, int64, error)
	MarkMessageDeleted(db *gorm.DB, messageID string, at time.Time) error

	// Read receipts
	FindUnreadMessageIDs(db *gorm.DB, chatID, readerID string) ([]string, error)
	CreateReadReceipts(db *gorm.DB, receipts []*chat.MessageReadReceipt) error
	CountUnreadInChat(db *gorm.DB, chatID, userID string) (int64, error)
	CountUnreadForUser(db *gorm.DB, userID string) (int64, error)
}

type ChatRepositoryImpl struct{}

func NewChatRepository() ChatRepository {
	return &ChatRepositoryImpl{}
}

// --- Chat operations ---

func (r *ChatRepositoryImpl) CreateChat(db *gorm.DB, c *chat.Chat) error {
	return db.Create(c).Error
}

func (r *ChatRepositoryImpl) FindChatByID(db *gorm.DB, id string) (*chat.Chat, error) {
	var c chat.Chat
	err := db.Preload("Participants").First(&c, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindDirectChatBetween ищет личный чат по неупорядоченной паре участников.
// Личный чат не-групповой и содержит ровно двух участников, поэтому
// достаточно найти не-групповой чат, в котором состоят оба.
func (r *ChatRepositoryImpl) FindDirectChatBetween(db *gorm.DB, userA, userB string) (*chat.Chat, error) {
	sub := db.Session(&gorm.Session{NewDB: true}).
		Table("chat.chat_participants").
		Select("chat_id").
		Where("user_id IN ?", []string{userA, userB}).
		Group("chat_id").
		Having("COUNT(DISTINCT user_id) = 2")

	var c chat.Chat
	err := db.Preload("Participants").
		Where("is_group = ?", false).
		Where("id IN (?)", sub).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ChatRepositoryImpl) FindUserChats(db *gorm.DB, userID string) ([]chat.Chat, error) {
	sub := db.Session(&gorm.Session{NewDB: true}).
		Table("chat.chat_participants").
		Select("chat_id").
		Where("user_id = ?", userID)

	var chats []chat.Chat
	err := db.Preload("Participants").
		Preload("LastMessage").
		Preload("LastMessage.Attachments").
		Where("id IN (?)", sub).
		Order("updated_at DESC").
		Find(&chats).Error
	return chats, err
}

// UpdateLastMessage - единичный update указателя последнего сообщения;
// атомарность гарантирует storage-слой, не приложение.
func (r *ChatRepositoryImpl) UpdateLastMessage(db *gorm.DB, chatID, messageID string) error {
	return db.Model(&chat.Chat{}).
		Where("id = ?", chatID).
		Updates(map[string]interface{}{
			"last_message_id": messageID,
			"updated_at":      time.Now(),
		}).Error
}

// --- Participant operations ---

func (r *ChatRepositoryImpl) AddParticipants(db *gorm.DB, participants []*chat.ChatParticipant) error {
	if len(participants) == 0 {
		return nil
	}
	// Повторное добавление участника - no-op (идемпотентность членства)
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(participants).Error
}

func (r *ChatRepositoryImpl) IsParticipant(db *gorm.DB, chatID, userID string) (bool, error) {
	var count int64
	err := db.Model(&chat.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *ChatRepositoryImpl) ParticipantIDs(db *gorm.DB, chatID string) ([]string, error) {
	var ids []string
	err := db.Model(&chat.ChatParticipant{}).
		Where("chat_id = ?", chatID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// --- Message operations ---

func (r *ChatRepositoryImpl) CreateMessage(db *gorm.DB, m *chat.Message) error {
	return db.Create(m).Error
}

func (r *ChatRepositoryImpl) FindMessageByID(db *gorm.DB, id string) (*chat.Message, error) {
	var m chat.Message
	err := db.Preload("Attachments").Preload("ReadReceipts").First(&m, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return &m, nil
}

// FindMessagesByChat возвращает страницу newest-first (границу страницы
// считает offset) + общее количество сообщений чата.
func (r *ChatRepositoryImpl) FindMessagesByChat(db *gorm.DB, chatID string, offset, limit int) ([]chat.Message, int64, error) {
	var total int64
	if err := db.Model(&chat.Message{}).Where("chat_id = ?", chatID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []chat.Message
	err := db.Preload("Attachments").
		Preload("ReadReceipts").
		Where("chat_id = ?", chatID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error
	return messages, total, err
}

// MarkMessageDeleted ставит tombstone-флаг; content не перезаписывается.
func (r *ChatRepositoryImpl) MarkMessageDeleted(db *gorm.DB, messageID string, at time.Time) error {
	return db.Model(&chat.Message{}).
		Where("id = ?", messageID).
		Updates(map[string]interface{}{
			"deleted":    true,
			"deleted_at": at,
		}).Error
}

// --- Read receipts ---

// FindUnreadMessageIDs - сообщения чата, отправленные не читателем
// и еще не имеющие его receipt'а.
func (r *ChatRepositoryImpl) FindUnreadMessageIDs(db *gorm.DB, chatID, readerID string) ([]string, error) {
	var ids []string
	err := db.Table("chat.messages AS m").
		Select("m.id").
		Where("m.chat_id = ?", chatID).
		Where("m.sender_id <> ?", readerID).
		Where("NOT EXISTS (SELECT 1 FROM chat.message_read_receipts r WHERE r.message_id = m.id AND r.user_id = ?)", readerID).
		Scan(&ids).Error
	return ids, err
}

// CreateReadReceipts - батч-вставка; конфликт по (message_id, user_id)
// игнорируется, чтобы повторный mark-read не трогал существующие ReadAt.
func (r *ChatRepositoryImpl) CreateReadReceipts(db *gorm.DB, receipts []*chat.MessageReadReceipt) error {
	if len(receipts) == 0 {
		return nil
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(receipts).Error
}

func (r *ChatRepositoryImpl) CountUnreadInChat(db *gorm.DB, chatID, userID string) (int64, error) {
	var count int64
	err := db.Table("chat.messages AS m").
		Where("m.chat_id = ?", chatID).
		Where("m.sender_id <> ?", userID).
		Where("m.deleted = ?", false).
		Where("NOT EXISTS (SELECT 1 FROM chat.message_read_receipts r WHERE r.message_id = m.id AND r.user_id = ?)", userID).
		Count(&count).Error
	return count, err
}

// CountUnreadForUser - непрочитанные чужие сообщения во всех чатах,
// где пользователь состоит участником. Чистый запрос по persisted-состоянию.
func (r *ChatRepositoryImpl) CountUnreadForUser(db *gorm.DB, userID string) (int64, error) {
	var count int64
	err := db.Table("chat.messages AS m").
		Joins("JOIN chat.chat_participants p ON p.chat_id = m.chat_id AND p.user_id = ?", userID).
		Where("m.sender_id <> ?", userID).
		Where("m.deleted = ?", false).
		Where("NOT EXISTS (SELECT 1 FROM chat.message_read_receipts r WHERE r.message_id = m.id AND r.user_id = ?)", userID).
		Count(&count).Error
	return count, err
}
