package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bondlink_backend/internal/services"
	"bondlink_backend/internal/services/dto"
)

type ChatHandler struct {
	*BaseHandler
	chatService services.ChatService
}

func NewChatHandler(base *BaseHandler, chatService services.ChatService) *ChatHandler {
	return &ChatHandler{
		BaseHandler: base,
		chatService: chatService,
	}
}

// CreateDirectChat
// @Summary      Создать (или получить) личный чат
// @Description  Для одной и той же пары пользователей всегда возвращается один и тот же чат
// @Tags         chats
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateDirectChatRequest true "Собеседник"
// @Success      200 {object} dto.ChatResponse
// @Failure      400 {object} apperrors.ErrorResponse
// @Router       /chats/direct [post]
// @Security     BearerAuth
func (h *ChatHandler) CreateDirectChat(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateDirectChatRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	chat, err := h.chatService.CreateOrGetDirectChat(h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, chat)
}

// CreateGroupChat
// @Summary      Создать групповой чат
// @Tags         chats
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateGroupChatRequest true "Название и участники"
// @Success      201 {object} dto.ChatResponse
// @Failure      400 {object} apperrors.ErrorResponse
// @Router       /chats/group [post]
// @Security     BearerAuth
func (h *ChatHandler) CreateGroupChat(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateGroupChatRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	chat, err := h.chatService.CreateGroupChat(h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, chat)
}

// GetUserChats
// @Summary      Список чатов пользователя
// @Description  Отсортирован по последней активности, с непрочитанными счетчиками
// @Tags         chats
// @Produce      json
// @Success      200 {array} dto.ChatResponse
// @Router       /chats [get]
// @Security     BearerAuth
func (h *ChatHandler) GetUserChats(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	chats, err := h.chatService.GetUserChats(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, chats)
}

// GetChatMessages
// @Summary      История сообщений чата
// @Description  Страница истории в хронологическом порядке; открытие страницы помечает сообщения прочитанными
// @Tags         chats
// @Produce      json
// @Param        chatId    path  string true  "ID чата"
// @Param        page      query int    false "Номер страницы"
// @Param        page_size query int    false "Размер страницы"
// @Success      200 {object} dto.MessageListResponse
// @Failure      403 {object} apperrors.ErrorResponse
// @Failure      404 {object} apperrors.ErrorResponse
// @Router       /chats/{chatId}/messages [get]
// @Security     BearerAuth
func (h *ChatHandler) GetChatMessages(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	chatID, ok := h.RequireParam(c, "chatId")
	if !ok {
		return
	}

	// У истории чата свой размер страницы по умолчанию
	page := ParseQueryInt(c, "page", 1)
	pageSize := ParseQueryInt(c, "page_size", services.DefaultMessagePageSize)

	messages, err := h.chatService.ListMessages(h.GetDB(c), chatID, userID, page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// SendMessage
// @Summary      Отправить сообщение в чат
// @Tags         chats
// @Accept       json
// @Produce      json
// @Param        chatId  path string                 true "ID чата"
// @Param        request body dto.SendMessageRequest true "Содержимое"
// @Success      201 {object} dto.MessageResponse
// @Failure      400 {object} apperrors.ErrorResponse
// @Failure      403 {object} apperrors.ErrorResponse
// @Router       /chats/{chatId}/messages [post]
// @Security     BearerAuth
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	chatID, ok := h.RequireParam(c, "chatId")
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	// chatId пути - источник истины; тело его не переопределяет
	req.ChatID = chatID

	message, err := h.chatService.SendMessage(h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// MarkChatRead
// @Summary      Пометить все сообщения чата прочитанными
// @Tags         chats
// @Produce      json
// @Param        chatId path string true "ID чата"
// @Success      204
// @Failure      403 {object} apperrors.ErrorResponse
// @Router       /chats/{chatId}/read [post]
// @Security     BearerAuth
func (h *ChatHandler) MarkChatRead(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	chatID, ok := h.RequireParam(c, "chatId")
	if !ok {
		return
	}

	if err := h.chatService.MarkRead(h.GetDB(c), chatID, userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteMessage
// @Summary      Удалить свое сообщение
// @Description  Мягкое удаление: в истории остается tombstone без содержимого
// @Tags         chats
// @Produce      json
// @Param        messageId path string true "ID сообщения"
// @Success      204
// @Failure      403 {object} apperrors.ErrorResponse
// @Failure      404 {object} apperrors.ErrorResponse
// @Router       /messages/{messageId} [delete]
// @Security     BearerAuth
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	messageID, ok := h.RequireParam(c, "messageId")
	if !ok {
		return
	}

	if err := h.chatService.DeleteMessage(h.GetDB(c), userID, messageID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
