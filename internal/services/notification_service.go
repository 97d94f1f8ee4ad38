package services

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"bondlink_backend/internal/email"
	"bondlink_backend/internal/events"
	"bondlink_backend/internal/logger"
	"bondlink_backend/internal/models"
	"bondlink_backend/internal/repositories"
	"bondlink_backend/internal/services/dto"
	"bondlink_backend/pkg/apperrors"
)

// NotificationService - единая точка fan-out'а: любой доменный поток
// (лайк, коммент, bond-запрос, платеж, join) зовет Notify и больше
// ничего не знает о живых соединениях.
type NotificationService interface {
	// Notify сначала персистит запись (durability не зависит от доставки),
	// затем best-effort пушит в персональную комнату получателя, если тот
	// онлайн. Сбой доставки никогда не роняет вызывающую транзакцию.
	Notify(db *gorm.DB, recipientID, actorID string, kind models.NotificationKind, message string, refs dto.NotificationRefs) (*dto.NotificationResponse, error)

	ListNotifications(db *gorm.DB, recipientID string, page, pageSize int, markSeen bool) (*dto.NotificationListResponse, error)
	MarkSeen(db *gorm.DB, recipientID, notificationID string) error
	MarkAllSeen(db *gorm.DB, recipientID string) error
	DeleteNotification(db *gorm.DB, recipientID, notificationID string) error
	UnseenCounts(db *gorm.DB, userID string) (*dto.UnseenCountsResponse, error)
	CleanOldNotifications(db *gorm.DB, days int) (int64, error)
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	chatRepo         repositories.ChatRepository
	broadcaster      Broadcaster
	emailProvider    email.Provider // nil - email-фоллбек выключен
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	chatRepo repositories.ChatRepository,
	broadcaster Broadcaster,
	emailProvider email.Provider,
) NotificationService {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		chatRepo:         chatRepo,
		broadcaster:      broadcaster,
		emailProvider:    emailProvider,
	}
}

// emailWorthyKinds - виды уведомлений, при которых офлайн-получателю
// дополнительно уходит письмо
var emailWorthyKinds = map[models.NotificationKind]bool{
	models.NotificationKindBondRequest: true,
	models.NotificationKindPayment:     true,
}

func (s *notificationService) Notify(db *gorm.DB, recipientID, actorID string, kind models.NotificationKind, message string, refs dto.NotificationRefs) (*dto.NotificationResponse, error) {
	if !models.ValidNotificationKind(string(kind)) {
		return nil, apperrors.ErrInvalidNotificationKind
	}

	recipient, err := s.userRepo.FindByID(db, recipientID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}

	n := &models.Notification{
		RecipientID: recipientID,
		ActorID:     actorID,
		Kind:        kind,
		Message:     message,
	}
	if !refs.Empty() {
		raw, err := marshalJSON(refs)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		n.Refs = raw
	}

	// Persist до любой доставки
	if err := s.notificationRepo.Create(db, n); err != nil {
		return nil, apperrors.InternalError(err)
	}

	resp := s.buildNotificationResponse(db, n)

	if s.broadcaster.IsOnline(recipientID) {
		s.broadcaster.Broadcast(events.PersonalRoom(recipientID), events.New(events.EventNotify, resp))
	} else if s.emailProvider != nil && emailWorthyKinds[kind] {
		// Best-effort: ошибка почты не влияет на результат
		subject := fmt.Sprintf("bondlink: %s", kind)
		if err := s.emailProvider.Send(recipient.Email, subject, message); err != nil {
			logger.Warn("offline notification email failed",
				"recipient_id", recipientID, "kind", kind, "error", err)
		}
	}

	return resp, nil
}

func (s *notificationService) ListNotifications(db *gorm.DB, recipientID string, page, pageSize int, markSeen bool) (*dto.NotificationListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	offset := (page - 1) * pageSize
	notifications, total, err := s.notificationRepo.FindByRecipient(db, recipientID, offset, pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	responses := lo.Map(notifications, func(n models.Notification, _ int) *dto.NotificationResponse {
		return s.buildNotificationResponse(db, &n)
	})

	// Открытие списка означает просмотр: возвращенная страница
	// помечается seen (уже просмотренные не трогаются)
	if markSeen && len(notifications) > 0 {
		unseen := lo.FilterMap(notifications, func(n models.Notification, _ int) (string, bool) {
			return n.ID, !n.Seen
		})
		if err := s.notificationRepo.MarkSeen(db, recipientID, unseen, time.Now()); err != nil {
			return nil, apperrors.InternalError(err)
		}
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &dto.NotificationListResponse{
		Notifications: responses,
		Total:         total,
		Page:          page,
		PageSize:      pageSize,
		TotalPages:    totalPages,
	}, nil
}

func (s *notificationService) MarkSeen(db *gorm.DB, recipientID, notificationID string) error {
	n, err := s.notificationRepo.FindByID(db, notificationID)
	if err != nil || n.RecipientID != recipientID {
		return apperrors.ErrNotificationNotFound
	}
	if n.Seen {
		return nil
	}
	return s.notificationRepo.MarkSeen(db, recipientID, []string{notificationID}, time.Now())
}

func (s *notificationService) MarkAllSeen(db *gorm.DB, recipientID string) error {
	if err := s.notificationRepo.MarkAllSeen(db, recipientID, time.Now()); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *notificationService) DeleteNotification(db *gorm.DB, recipientID, notificationID string) error {
	if err := s.notificationRepo.Delete(db, recipientID, notificationID); err != nil {
		if err == repositories.ErrNotificationNotFound {
			return apperrors.ErrNotificationNotFound
		}
		return apperrors.InternalError(err)
	}
	return nil
}

// UnseenCounts - чистая агрегация по persisted-состоянию; in-memory
// реестр соединений здесь не читается (он транзиентный и не переживает
// reconnect).
func (s *notificationService) UnseenCounts(db *gorm.DB, userID string) (*dto.UnseenCountsResponse, error) {
	notifications, err := s.notificationRepo.CountUnseen(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	messages, err := s.chatRepo.CountUnreadForUser(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.UnseenCountsResponse{
		Notifications: notifications,
		Messages:      messages,
	}, nil
}

func (s *notificationService) CleanOldNotifications(db *gorm.DB, days int) (int64, error) {
	olderThan := time.Now().AddDate(0, 0, -days)
	return s.notificationRepo.DeleteOldSeen(db, olderThan)
}

func (s *notificationService) buildNotificationResponse(db *gorm.DB, n *models.Notification) *dto.NotificationResponse {
	resp := &dto.NotificationResponse{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		ActorID:     n.ActorID,
		Kind:        string(n.Kind),
		Message:     n.Message,
		Seen:        n.Seen,
		SeenAt:      n.SeenAt,
		CreatedAt:   n.CreatedAt,
	}

	if len(n.Refs) > 0 {
		_ = unmarshalJSON(n.Refs, &resp.Refs)
	}

	if n.ActorID != "" {
		if actor, err := s.userRepo.FindByID(db, n.ActorID); err == nil {
			resp.ActorName = actor.Name
			resp.ActorAvatar = actor.AvatarURL
		}
	}

	return resp
}
