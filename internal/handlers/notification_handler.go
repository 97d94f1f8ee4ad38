package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bondlink_backend/internal/services"
)

type NotificationHandler struct {
	*BaseHandler
	notificationService services.NotificationService
}

func NewNotificationHandler(base *BaseHandler, notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         base,
		notificationService: notificationService,
	}
}

// ListNotifications
// @Summary      Список уведомлений пользователя
// @Description  Возвращенная страница помечается просмотренной (seen)
// @Tags         notifications
// @Produce      json
// @Param        page      query int false "Номер страницы"
// @Param        page_size query int false "Размер страницы"
// @Success      200 {object} dto.NotificationListResponse
// @Router       /notifications [get]
// @Security     BearerAuth
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	page, pageSize := ParsePagination(c)

	list, err := h.notificationService.ListNotifications(h.GetDB(c), userID, page, pageSize, true)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// UnseenCounts
// @Summary      Непросмотренные счетчики
// @Description  Количество непросмотренных уведомлений и непрочитанных сообщений; считается по persisted-состоянию
// @Tags         notifications
// @Produce      json
// @Success      200 {object} dto.UnseenCountsResponse
// @Router       /notifications/unseen-counts [get]
// @Security     BearerAuth
func (h *NotificationHandler) UnseenCounts(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	counts, err := h.notificationService.UnseenCounts(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, counts)
}

// MarkSeen
// @Summary      Пометить уведомление просмотренным
// @Tags         notifications
// @Produce      json
// @Param        id path string true "ID уведомления"
// @Success      204
// @Failure      404 {object} apperrors.ErrorResponse
// @Router       /notifications/{id}/seen [put]
// @Security     BearerAuth
func (h *NotificationHandler) MarkSeen(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	notificationID, ok := h.RequireParam(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkSeen(h.GetDB(c), userID, notificationID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkAllSeen
// @Summary      Пометить все уведомления просмотренными
// @Tags         notifications
// @Produce      json
// @Success      204
// @Router       /notifications/read-all [put]
// @Security     BearerAuth
func (h *NotificationHandler) MarkAllSeen(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkAllSeen(h.GetDB(c), userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteNotification
// @Summary      Удалить уведомление
// @Tags         notifications
// @Produce      json
// @Param        id path string true "ID уведомления"
// @Success      204
// @Failure      404 {object} apperrors.ErrorResponse
// @Router       /notifications/{id} [delete]
// @Security     BearerAuth
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	notificationID, ok := h.RequireParam(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.DeleteNotification(h.GetDB(c), userID, notificationID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
