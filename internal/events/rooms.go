package events

// Ключи комнат. Комната - живой fan-out-канал: либо персональный
// канал уведомлений пользователя, либо канал сообщений чата.
const (
	userRoomPrefix = "user:"
	chatRoomPrefix = "chat:"

	// PresenceRoom - глобальная best-effort комната presence-событий,
	// в нее автоматически входит каждое соединение.
	PresenceRoom = "presence"
)

// PersonalRoom возвращает ключ персональной комнаты пользователя
func PersonalRoom(userID string) string {
	return userRoomPrefix + userID
}

// ChatRoom возвращает ключ комнаты чата
func ChatRoom(chatID string) string {
	return chatRoomPrefix + chatID
}

// ChatIDFromRoom извлекает chatID из ключа комнаты чата.
// Вторым значением возвращает false для не-чатовых комнат.
func ChatIDFromRoom(roomID string) (string, bool) {
	if len(roomID) > len(chatRoomPrefix) && roomID[:len(chatRoomPrefix)] == chatRoomPrefix {
		return roomID[len(chatRoomPrefix):], true
	}
	return "", false
}
