package apperrors

import (
	"net/http"
)

/*
Фабрики и предопределенные переменные для доменных ошибок
realtime-ядра: чаты, сообщения, уведомления, сообщества.
*/

// ErrNotFound - фабрика для ошибки "не найдено" (404)
// Используется, когда ошибка репозитория (типа gorm.ErrRecordNotFound)
// должна быть преобразована в AppError.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrInvalidOperation - фабрика для невалидных операций (400)
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// --- Auth / сессия ---

// ErrTokenExpired - срок действия сессионного токена истек.
var ErrTokenExpired = New(
	CodeTokenExpired,
	"auth",
	"Session token has expired",
	http.StatusUnauthorized,
)

// ErrInvalidSessionToken - подпись токена не прошла проверку или токен поврежден.
var ErrInvalidSessionToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid session token",
	http.StatusUnauthorized,
)

// --- Chat ---

// ErrChatNotFound - чат не найден.
var ErrChatNotFound = New(
	CodeNotFound,
	"chat",
	"Chat not found",
	http.StatusNotFound,
)

// ErrChatAccessDenied - пользователь не является участником чата
// (и не модератором привязанного сообщества).
var ErrChatAccessDenied = New(
	CodeForbidden,
	"chat",
	"Access to chat denied",
	http.StatusForbidden,
)

// ErrMessageNotFound - сообщение не найдено.
var ErrMessageNotFound = New(
	CodeNotFound,
	"chat",
	"Message not found",
	http.StatusNotFound,
)

// ErrCannotDeleteMessage - удалять сообщение может только его отправитель.
var ErrCannotDeleteMessage = New(
	CodeForbidden,
	"chat",
	"Only the sender may delete this message",
	http.StatusForbidden,
)

// ErrEmptyMessage - сообщение без текста и без вложений.
var ErrEmptyMessage = New(
	CodeValidationFailed,
	"chat",
	"Message must contain content or at least one attachment",
	http.StatusBadRequest,
)

// ErrGroupNameRequired - групповой чат без названия.
var ErrGroupNameRequired = New(
	CodeValidationFailed,
	"chat",
	"Group chat requires a non-empty name",
	http.StatusBadRequest,
)

// --- Notification ---

// ErrNotificationNotFound - уведомление не найдено.
var ErrNotificationNotFound = New(
	CodeNotFound,
	"notification",
	"Notification not found",
	http.StatusNotFound,
)

// ErrInvalidNotificationKind - неизвестный тип уведомления.
var ErrInvalidNotificationKind = New(
	CodeValidationFailed,
	"notification",
	"Invalid notification kind",
	http.StatusBadRequest,
)

// --- Community ---

// ErrCommunityNotFound - сообщество не найдено.
var ErrCommunityNotFound = New(
	CodeNotFound,
	"community",
	"Community not found",
	http.StatusNotFound,
)
