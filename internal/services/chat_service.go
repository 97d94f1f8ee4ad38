package services

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"bondlink_backend/internal/events"
	"bondlink_backend/internal/logger"
	"bondlink_backend/internal/models"
	"bondlink_backend/internal/models/chat"
	"bondlink_backend/internal/repositories"
	"bondlink_backend/internal/services/dto"
	"bondlink_backend/pkg/apperrors"
)

const (
	DefaultMessagePageSize = 50
	MaxMessagePageSize     = 100
)

type ChatService interface {
	// Chat operations
	CreateOrGetDirectChat(db *gorm.DB, userID string, req *dto.CreateDirectChatRequest) (*dto.ChatResponse, error)
	CreateGroupChat(db *gorm.DB, userID string, req *dto.CreateGroupChatRequest) (*dto.ChatResponse, error)
	GetUserChats(db *gorm.DB, userID string) ([]*dto.ChatResponse, error)

	// AuthorizeParticipant - единая проверка доступа к чату. Ее используют
	// и REST-чтение истории, и join-room живого канала: один и тот же
	// user+chat всегда получает одно и то же accept/deny решение.
	AuthorizeParticipant(db *gorm.DB, chatID, userID string) error

	// Message pipeline
	SendMessage(db *gorm.DB, senderID string, req *dto.SendMessageRequest) (*dto.MessageResponse, error)
	ListMessages(db *gorm.DB, chatID, requesterID string, page, pageSize int) (*dto.MessageListResponse, error)
	DeleteMessage(db *gorm.DB, requesterID, messageID string) error
	MarkRead(db *gorm.DB, chatID, readerID string) error
}

type chatService struct {
	chatRepo      repositories.ChatRepository
	userRepo      repositories.UserRepository
	communityRepo repositories.CommunityRepository
	broadcaster   Broadcaster
	notifier      NotificationService

	// Критическая секция отправки на уровне pipeline: конкурентные send'ы
	// в один чат сериализуются, чтобы порядок broadcast совпадал с порядком
	// коммита. Разные чаты друг друга не блокируют.
	chatLocks sync.Map // chatID -> *sync.Mutex
}

func NewChatService(
	chatRepo repositories.ChatRepository,
	userRepo repositories.UserRepository,
	communityRepo repositories.CommunityRepository,
	broadcaster Broadcaster,
	notifier NotificationService,
) ChatService {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	return &chatService{
		chatRepo:      chatRepo,
		userRepo:      userRepo,
		communityRepo: communityRepo,
		broadcaster:   broadcaster,
		notifier:      notifier,
	}
}

// --- Chat operations ---

// CreateOrGetDirectChat коммутативен и дедуплицирует: повторный вызов
// для той же неупорядоченной пары возвращает существующий чат
// (lookup-before-create).
func (s *chatService) CreateOrGetDirectChat(db *gorm.DB, userID string, req *dto.CreateDirectChatRequest) (*dto.ChatResponse, error) {
	if req.UserID == userID {
		return nil, apperrors.ErrInvalidOperation("chat", "Cannot create a direct chat with yourself")
	}

	if _, err := s.userRepo.FindByID(db, req.UserID); err != nil {
		return nil, apperrors.ErrNotFound(err)
	}

	existing, err := s.chatRepo.FindDirectChatBetween(db, userID, req.UserID)
	if err == nil {
		return s.buildChatResponse(db, existing, userID)
	}
	if err != repositories.ErrChatNotFound {
		return nil, apperrors.InternalError(err)
	}

	c := &chat.Chat{IsGroup: false}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := s.chatRepo.CreateChat(tx, c); err != nil {
			return err
		}
		participants := []*chat.ChatParticipant{
			{ChatID: c.ID, UserID: userID},
			{ChatID: c.ID, UserID: req.UserID},
		}
		return s.chatRepo.AddParticipants(tx, participants)
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	created, err := s.chatRepo.FindChatByID(db, c.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return s.buildChatResponse(db, created, userID)
}

func (s *chatService) CreateGroupChat(db *gorm.DB, userID string, req *dto.CreateGroupChatRequest) (*dto.ChatResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.ErrGroupNameRequired
	}

	if req.CommunityID != nil {
		if _, err := s.communityRepo.FindByID(db, *req.CommunityID); err != nil {
			return nil, apperrors.ErrCommunityNotFound
		}
		isMember, err := s.communityRepo.IsMember(db, *req.CommunityID, userID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		if !isMember {
			return nil, apperrors.ErrChatAccessDenied
		}
	}

	memberIDs := lo.Uniq(append([]string{userID}, req.ParticipantIDs...))
	for _, id := range memberIDs {
		if _, err := s.userRepo.FindByID(db, id); err != nil {
			return nil, apperrors.ErrNotFound(err)
		}
	}

	name := req.Name
	c := &chat.Chat{
		IsGroup:     true,
		Name:        &name,
		CommunityID: req.CommunityID,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := s.chatRepo.CreateChat(tx, c); err != nil {
			return err
		}
		participants := lo.Map(memberIDs, func(id string, _ int) *chat.ChatParticipant {
			return &chat.ChatParticipant{ChatID: c.ID, UserID: id}
		})
		return s.chatRepo.AddParticipants(tx, participants)
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	created, err := s.chatRepo.FindChatByID(db, c.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return s.buildChatResponse(db, created, userID)
}

func (s *chatService) GetUserChats(db *gorm.DB, userID string) ([]*dto.ChatResponse, error) {
	chats, err := s.chatRepo.FindUserChats(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	responses := make([]*dto.ChatResponse, 0, len(chats))
	for i := range chats {
		resp, err := s.buildChatResponse(db, &chats[i], userID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (s *chatService) AuthorizeParticipant(db *gorm.DB, chatID, userID string) error {
	c, err := s.chatRepo.FindChatByID(db, chatID)
	if err != nil {
		if err == repositories.ErrChatNotFound {
			return apperrors.ErrChatNotFound
		}
		return apperrors.InternalError(err)
	}

	isParticipant, err := s.chatRepo.IsParticipant(db, chatID, userID)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if isParticipant {
		return nil
	}

	// Модератор привязанного сообщества имеет доступ к community-чатам
	if c.CommunityID != nil {
		isModerator, err := s.communityRepo.IsModerator(db, *c.CommunityID, userID)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if isModerator {
			return nil
		}
	}

	return apperrors.ErrChatAccessDenied
}

// --- Message pipeline ---

// SendMessage: авторизация отправителя -> валидация инварианта
// content/attachments -> persist -> обновление указателя последнего
// сообщения -> broadcast. Broadcast происходит строго после
// подтвержденной записи; отказ на любом шаге до persist возвращается
// только актору и не рождает broadcast.
func (s *chatService) SendMessage(db *gorm.DB, senderID string, req *dto.SendMessageRequest) (*dto.MessageResponse, error) {
	if err := s.AuthorizeParticipant(db, req.ChatID, senderID); err != nil {
		return nil, err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" && len(req.Attachments) == 0 {
		return nil, apperrors.ErrEmptyMessage
	}
	if len(content) > chat.MaxContentLength {
		return nil, apperrors.ValidationError(map[string]string{
			"content": "content exceeds maximum length",
		})
	}

	lock := s.lockChat(req.ChatID)
	lock.Lock()
	defer lock.Unlock()

	msg := &chat.Message{
		ChatID:   req.ChatID,
		SenderID: senderID,
		Content:  content,
	}
	for _, a := range req.Attachments {
		attachment := chat.MessageAttachment{
			URL:  a.URL,
			Kind: a.Kind,
		}
		if a.Metadata != nil {
			raw, err := marshalJSON(a.Metadata)
			if err != nil {
				return nil, apperrors.InternalError(err)
			}
			attachment.Metadata = raw
		}
		msg.Attachments = append(msg.Attachments, attachment)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := s.chatRepo.CreateMessage(tx, msg); err != nil {
			return err
		}
		return s.chatRepo.UpdateLastMessage(tx, req.ChatID, msg.ID)
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	resp := s.buildMessageResponse(db, msg)
	s.broadcaster.Broadcast(events.ChatRoom(req.ChatID), events.New(events.EventReceiveMessage, resp))

	s.notifyParticipants(db, req.ChatID, senderID, resp)

	return resp, nil
}

// notifyParticipants - мост в fan-out уведомлений: каждому участнику,
// кроме отправителя, уходит уведомление вида message. Best-effort:
// сообщение уже закоммичено, сбой уведомления его не отменяет.
func (s *chatService) notifyParticipants(db *gorm.DB, chatID, senderID string, msg *dto.MessageResponse) {
	if s.notifier == nil {
		return
	}

	participantIDs, err := s.chatRepo.ParticipantIDs(db, chatID)
	if err != nil {
		logger.Warn("message notification fan-out failed", "chat_id", chatID, "error", err)
		return
	}

	preview := messagePreview(msg)

	refs := dto.NotificationRefs{ChatID: &chatID}
	for _, id := range participantIDs {
		if id == senderID {
			continue
		}
		if _, err := s.notifier.Notify(db, id, senderID, models.NotificationKindMessage, preview, refs); err != nil {
			logger.Warn("message notification failed", "chat_id", chatID, "recipient_id", id, "error", err)
		}
	}
}

// ListMessages - страница истории newest-first, развернутая в
// хронологический порядок для отображения. Открытие чата означает
// прочтение: после выборки вызывается MarkRead.
func (s *chatService) ListMessages(db *gorm.DB, chatID, requesterID string, page, pageSize int) (*dto.MessageListResponse, error) {
	if err := s.AuthorizeParticipant(db, chatID, requesterID); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultMessagePageSize
	}
	if pageSize > MaxMessagePageSize {
		pageSize = MaxMessagePageSize
	}

	offset := (page - 1) * pageSize
	messages, total, err := s.chatRepo.FindMessagesByChat(db, chatID, offset, pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	// Выборка newest-first; разворачиваем в хронологию
	lo.Reverse(messages)

	responses := lo.Map(messages, func(m chat.Message, _ int) *dto.MessageResponse {
		return s.buildMessageResponse(db, &m)
	})

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	if err := s.MarkRead(db, chatID, requesterID); err != nil {
		return nil, err
	}

	return &dto.MessageListResponse{
		Messages:      responses,
		Page:          page,
		PageSize:      pageSize,
		TotalPages:    totalPages,
		TotalMessages: total,
	}, nil
}

// DeleteMessage - soft-delete. Удалять может только отправитель
// (moderator-override - точка расширения, здесь не реализована).
// Повторное удаление - no-op без второго broadcast'а.
func (s *chatService) DeleteMessage(db *gorm.DB, requesterID, messageID string) error {
	msg, err := s.chatRepo.FindMessageByID(db, messageID)
	if err != nil {
		if err == repositories.ErrMessageNotFound {
			return apperrors.ErrMessageNotFound
		}
		return apperrors.InternalError(err)
	}

	if msg.SenderID != requesterID {
		return apperrors.ErrCannotDeleteMessage
	}

	if msg.Deleted {
		return nil
	}

	if err := s.chatRepo.MarkMessageDeleted(db, messageID, time.Now()); err != nil {
		return apperrors.InternalError(err)
	}

	s.broadcaster.Broadcast(events.ChatRoom(msg.ChatID), events.New(events.EventMessageDeleted, events.MessageDeletedPayload{
		MessageID: messageID,
		ChatID:    msg.ChatID,
	}))

	return nil
}

// MarkRead - bulk-идемпотентная операция: receipt добавляется каждому
// чужому сообщению чата, еще не прочитанному читателем. Существующие
// receipts не перезаписываются (конфликт игнорируется на уровне вставки).
func (s *chatService) MarkRead(db *gorm.DB, chatID, readerID string) error {
	if err := s.AuthorizeParticipant(db, chatID, readerID); err != nil {
		return err
	}

	ids, err := s.chatRepo.FindUnreadMessageIDs(db, chatID, readerID)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if len(ids) == 0 {
		return nil
	}

	now := time.Now()
	receipts := lo.Map(ids, func(id string, _ int) *chat.MessageReadReceipt {
		return &chat.MessageReadReceipt{MessageID: id, UserID: readerID, ReadAt: now}
	})
	if err := s.chatRepo.CreateReadReceipts(db, receipts); err != nil {
		return apperrors.InternalError(err)
	}

	s.broadcaster.Broadcast(events.ChatRoom(chatID), events.New(events.EventMessagesMarkedSeen, events.MessagesMarkedSeenPayload{
		ChatID:   chatID,
		ReaderID: readerID,
		ReadAt:   now,
	}))

	return nil
}

// --- helpers ---

const notificationPreviewLimit = 120

// messagePreview - короткий текст для уведомления о сообщении.
// Обрезка строго по границе руны: байтовый срез мог бы разорвать
// многобайтовый символ и дать невалидный UTF-8, который postgres
// отвергнет при записи уведомления.
func messagePreview(msg *dto.MessageResponse) string {
	preview := msg.Content
	if preview == "" && len(msg.Attachments) > 0 {
		preview = "Attachment"
	}
	if utf8.RuneCountInString(preview) > notificationPreviewLimit {
		preview = string([]rune(preview)[:notificationPreviewLimit])
	}
	return preview
}

func (s *chatService) lockChat(chatID string) *sync.Mutex {
	lock, _ := s.chatLocks.LoadOrStore(chatID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// buildMessageResponse резолвит display-поля отправителя и рендерит
// tombstone: у удаленного сообщения content наружу не отдается.
func (s *chatService) buildMessageResponse(db *gorm.DB, m *chat.Message) *dto.MessageResponse {
	resp := &dto.MessageResponse{
		ID:          m.ID,
		ChatID:      m.ChatID,
		SenderID:    m.SenderID,
		Content:     m.Content,
		Deleted:     m.Deleted,
		DeletedAt:   m.DeletedAt,
		Attachments: []*dto.AttachmentResponse{},
		ReadBy:      []*dto.ReadReceiptItem{},
		CreatedAt:   m.CreatedAt,
	}

	if m.Deleted {
		resp.Content = ""
	}

	if sender, err := s.userRepo.FindByID(db, m.SenderID); err == nil {
		resp.SenderName = sender.Name
		resp.SenderAvatar = sender.AvatarURL
	}

	for _, a := range m.Attachments {
		item := &dto.AttachmentResponse{
			ID:   a.ID,
			URL:  a.URL,
			Kind: a.Kind,
		}
		if len(a.Metadata) > 0 {
			_ = unmarshalJSON(a.Metadata, &item.Metadata)
		}
		resp.Attachments = append(resp.Attachments, item)
	}

	for _, r := range m.ReadReceipts {
		resp.ReadBy = append(resp.ReadBy, &dto.ReadReceiptItem{UserID: r.UserID, ReadAt: r.ReadAt})
	}

	return resp
}

func (s *chatService) buildChatResponse(db *gorm.DB, c *chat.Chat, viewerID string) (*dto.ChatResponse, error) {
	resp := &dto.ChatResponse{
		ID:           c.ID,
		IsGroup:      c.IsGroup,
		Name:         c.Name,
		CommunityID:  c.CommunityID,
		Participants: []*dto.ParticipantResponse{},
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}

	userIDs := lo.Map(c.Participants, func(p chat.ChatParticipant, _ int) string { return p.UserID })
	users, err := s.userRepo.FindByIDs(db, userIDs)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	byID := lo.KeyBy(users, func(u models.User) string { return u.ID })

	for _, p := range c.Participants {
		item := &dto.ParticipantResponse{
			UserID:   p.UserID,
			JoinedAt: p.JoinedAt,
		}
		if u, ok := byID[p.UserID]; ok {
			item.UserName = u.Name
			item.AvatarURL = u.AvatarURL
		}
		resp.Participants = append(resp.Participants, item)
	}

	if c.LastMessage != nil {
		resp.LastMessage = s.buildMessageResponse(db, c.LastMessage)
	}

	unread, err := s.chatRepo.CountUnreadInChat(db, c.ID, viewerID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	resp.UnreadCount = unread

	return resp, nil
}
