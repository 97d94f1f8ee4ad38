package services

import (
	"bondlink_backend/internal/events"
)

// Broadcaster - узкий контракт реестра живых соединений, видимый
// сервисам. Сервисы не знают, кто подключен, и не владеют реестром -
// только операциями доставки. Доставка best-effort: пустая комната
// молча пропускается, durability обеспечивает persisted-запись.
type Broadcaster interface {
	Broadcast(roomID string, event events.Envelope)
	IsOnline(userID string) bool
}

// NopBroadcaster используется до старта ws-слоя и в тестах сервисов
type NopBroadcaster struct{}

func (NopBroadcaster) Broadcast(string, events.Envelope) {}
func (NopBroadcaster) IsOnline(string) bool              { return false }
