package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"bondlink_backend/internal/auth"
	"bondlink_backend/internal/config"
	"bondlink_backend/internal/logger"
	"bondlink_backend/internal/repositories"
	"bondlink_backend/internal/services"
	"bondlink_backend/pkg/apperrors"
)

// SessionCookieName - cookie с сессионным токеном для handshake.
// Токен живет в cookie, а не в query-параметре: query попадает в
// access-логи и Referer.
const SessionCookieName = "bondlink_session"

// Handler обслуживает websocket-handshake live-канала
type Handler struct {
	registry    *Registry
	chatService services.ChatService
	userRepo    repositories.UserRepository
	db          *gorm.DB
	cfg         *config.Config
	upgrader    websocket.Upgrader
}

func NewHandler(
	registry *Registry,
	chatService services.ChatService,
	userRepo repositories.UserRepository,
	db *gorm.DB,
	cfg *config.Config,
) *Handler {
	return &Handler{
		registry:    registry,
		chatService: chatService,
		userRepo:    userRepo,
		db:          db,
		cfg:         cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   cfg.WebSocket.ReadBufferSize,
			WriteBufferSize:  cfg.WebSocket.WriteBufferSize,
			HandshakeTimeout: cfg.WebSocket.HandshakeTimeout,
			CheckOrigin: func(r *http.Request) bool {
				// Доступ контролируется сессионным токеном
				return true
			},
		},
	}
}

// ServeWS - точка входа live-канала. Аутентификация полностью
// завершается ДО апгрейда и регистрации: невалидный токен получает
// обычный HTTP 401 и ни одной записи в реестре.
//
// @Summary      Live-канал (websocket)
// @Description  Апгрейд соединения; сессионный токен берется из cookie
// @Tags         ws
// @Success      101
// @Failure      401 {object} apperrors.ErrorResponse
// @Router       /ws [get]
func (h *Handler) ServeWS(c *gin.Context) {
	token, err := c.Cookie(SessionCookieName)
	if err != nil || token == "" {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("Session cookie is required"))
		return
	}

	claims, err := auth.ParseToken(token)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	user, err := h.userRepo.FindByID(h.db, claims.UserID)
	if err != nil {
		apperrors.HandleError(c, apperrors.ErrInvalidSessionToken)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade сам пишет HTTP-ответ клиенту
		logger.Warn("ws upgrade failed", "user_id", user.ID, "error", err)
		return
	}

	client := newClient(conn, user.ID, h)
	h.registry.Register(client)

	go client.writePump()
	go client.readPump()
}
