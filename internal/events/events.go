package events

import "time"

// Имена событий live-канала. Входящие - команды клиента,
// исходящие - результаты и broadcast-события.
const (
	// client -> server
	CmdJoinRoom      = "join-room"
	CmdLeaveRoom     = "leave-room"
	CmdSendMessage   = "send-message"
	CmdMarkSeen      = "mark-seen"
	CmdDeleteMessage = "delete-message"

	// server -> client
	EventRoomJoined         = "room-joined"
	EventRoomLeft           = "room-left"
	EventReceiveMessage     = "receive-message"
	EventMessagesMarkedSeen = "messages-marked-seen"
	EventMessageDeleted     = "message-deleted"
	EventNotify             = "notify"
	EventPresenceOnline     = "presence-online"
	EventPresenceOffline    = "presence-offline"
	EventError              = "error"
)

// Envelope - единый конверт всех сообщений live-канала
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

func New(event string, data any) Envelope {
	return Envelope{Event: event, Data: data}
}

// --- Типовые payload'ы broadcast-событий ---

type RoomPayload struct {
	RoomID string `json:"room_id"`
}

type MessageDeletedPayload struct {
	MessageID string `json:"message_id"`
	ChatID    string `json:"chat_id"`
}

type MessagesMarkedSeenPayload struct {
	ChatID   string    `json:"chat_id"`
	ReaderID string    `json:"reader_id"`
	ReadAt   time.Time `json:"read_at"`
}

type PresencePayload struct {
	UserID string `json:"user_id"`
}

// ErrorPayload эхом возвращается только актору; другие участники комнаты
// никогда не видят broadcast упавшей операции.
type ErrorPayload struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	RefEvent string `json:"ref_event,omitempty"` // команда, которую отклонили
}
