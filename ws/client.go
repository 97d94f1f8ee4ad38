package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"bondlink_backend/internal/events"
	"bondlink_backend/internal/logger"
	"bondlink_backend/internal/services"
	"bondlink_backend/internal/services/dto"
	"bondlink_backend/pkg/apperrors"
)

const pingRatio = 9 // ping уходит на 9/10 pong-таймаута

// Command - входящий кадр live-канала: имя команды плюс сырой payload,
// который декодируется уже конкретным обработчиком.
type Command struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client - одно websocket-соединение аутентифицированного пользователя.
// readPump разбирает команды и зовет сервисы, writePump сливает очередь
// send. Всё взаимодействие с реестром идет через интерфейс Session.
type Client struct {
	id     string
	userID string

	conn *websocket.Conn
	send chan events.Envelope

	registry    *Registry
	chatService services.ChatService
	db          *gorm.DB

	pongTimeout time.Duration
	maxMessage  int64

	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, userID string, h *Handler) *Client {
	return &Client{
		id:          uuid.NewString(),
		userID:      userID,
		conn:        conn,
		send:        make(chan events.Envelope, h.cfg.WebSocket.SendQueueSize),
		registry:    h.registry,
		chatService: h.chatService,
		db:          h.db,
		pongTimeout: h.cfg.WebSocket.PongTimeout,
		maxMessage:  h.cfg.WebSocket.MaxMessageBytes,
	}
}

func (c *Client) ID() string     { return c.id }
func (c *Client) UserID() string { return c.userID }

// Deliver кладет событие в очередь отправки без блокировки.
// false означает переполнение - реестр закроет такое соединение.
func (c *Client) Deliver(event events.Envelope) bool {
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}

// readPump читает команды до разрыва соединения. Выход из цикла - это
// и есть момент снятия с учета: любой путь разрыва сходится сюда.
func (c *Client) readPump() {
	defer func() {
		c.registry.Unregister(c)
		_ = c.Close()
	}()

	c.conn.SetReadLimit(c.maxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws unexpected close", "conn_id", c.id, "user_id", c.userID, "error", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			c.sendError("", apperrors.NewBadRequestError("Malformed command frame"))
			continue
		}

		c.dispatch(&cmd)
	}
}

// writePump сливает очередь send и пингует соединение. Единственный
// писатель в conn - конкурентных WriteJSON не бывает.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.pongTimeout * pingRatio / 10)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch маршрутизирует команду на обработчик. Ошибка любой команды
// уходит эхом только этому клиенту; комната упавшую операцию не видит.
func (c *Client) dispatch(cmd *Command) {
	logger.WSLog(cmd.Event, c.id, c.userID)

	var err error
	switch cmd.Event {
	case events.CmdJoinRoom:
		err = c.handleJoinRoom(cmd.Data)
	case events.CmdLeaveRoom:
		err = c.handleLeaveRoom(cmd.Data)
	case events.CmdSendMessage:
		err = c.handleSendMessage(cmd.Data)
	case events.CmdMarkSeen:
		err = c.handleMarkSeen(cmd.Data)
	case events.CmdDeleteMessage:
		err = c.handleDeleteMessage(cmd.Data)
	default:
		err = apperrors.NewBadRequestError("Unknown command: " + cmd.Event)
	}

	if err != nil {
		c.sendError(cmd.Event, err)
	}
}

// handleJoinRoom вводит соединение в комнату чата после проверки
// членства. Чужая персональная комната недоступна, presence и своя
// персональная комнаты подключены всегда - повторный join безвреден.
func (c *Client) handleJoinRoom(data json.RawMessage) error {
	var p events.RoomPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		return apperrors.NewBadRequestError("room_id is required")
	}

	if chatID, ok := events.ChatIDFromRoom(p.RoomID); ok {
		if err := c.chatService.AuthorizeParticipant(c.db, chatID, c.userID); err != nil {
			return err
		}
	} else if p.RoomID != events.PersonalRoom(c.userID) && p.RoomID != events.PresenceRoom {
		return apperrors.NewForbiddenError("Cannot join this room")
	}

	c.registry.Join(c, p.RoomID)
	c.Deliver(events.New(events.EventRoomJoined, events.RoomPayload{RoomID: p.RoomID}))
	return nil
}

// handleLeaveRoom выводит соединение из комнаты. Выход из комнаты, в
// которой соединение не состоит, - no-op с тем же подтверждением.
func (c *Client) handleLeaveRoom(data json.RawMessage) error {
	var p events.RoomPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		return apperrors.NewBadRequestError("room_id is required")
	}

	c.registry.Leave(c, p.RoomID)
	c.Deliver(events.New(events.EventRoomLeft, events.RoomPayload{RoomID: p.RoomID}))
	return nil
}

func (c *Client) handleSendMessage(data json.RawMessage) error {
	var req dto.SendMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return apperrors.NewBadRequestError("Malformed send-message payload")
	}
	if req.ChatID == "" {
		return apperrors.NewBadRequestError("chat_id is required")
	}

	// Broadcast в комнату чата делает сервис после коммита
	_, err := c.chatService.SendMessage(c.db, c.userID, &req)
	return err
}

func (c *Client) handleMarkSeen(data json.RawMessage) error {
	var p struct {
		ChatID string `json:"chat_id"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ChatID == "" {
		return apperrors.NewBadRequestError("chat_id is required")
	}

	return c.chatService.MarkRead(c.db, p.ChatID, c.userID)
}

func (c *Client) handleDeleteMessage(data json.RawMessage) error {
	var p struct {
		MessageID string `json:"message_id"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.MessageID == "" {
		return apperrors.NewBadRequestError("message_id is required")
	}

	return c.chatService.DeleteMessage(c.db, c.userID, p.MessageID)
}

// sendError возвращает актору типизированную ошибку с кодом из таксономии
func (c *Client) sendError(refEvent string, err error) {
	payload := events.ErrorPayload{
		Code:     string(apperrors.CodeInternalError),
		Message:  "Internal error",
		RefEvent: refEvent,
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		payload.Code = string(appErr.Code)
		payload.Message = appErr.Message
	}

	c.Deliver(events.New(events.EventError, payload))
}
