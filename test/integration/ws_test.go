package integration_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bondlink_backend/internal/events"
	"bondlink_backend/internal/services/dto"
	"bondlink_backend/test/helpers"
	"bondlink_backend/ws"
)

// frame - конверт live-канала с сырым payload для поэтапного разбора
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func dialWS(t *testing.T, ts *helpers.TestServer, token string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/ws"

	header := http.Header{}
	header.Set("Cookie", ws.SessionCookieName+"="+token)

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("WS dial failed (status %d): %v", status, err)
	}
	return conn
}

// waitForEvent читает кадры до искомого события; нерелевантные
// (presence и пр.) пропускаются
func waitForEvent(t *testing.T, conn *websocket.Conn, event string) frame {
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.SetReadDeadline(deadline)

	for time.Now().Before(deadline) {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("Не дождались события %q: %v", event, err)
		}
		if f.Event == event {
			return f
		}
	}
	t.Fatalf("Не дождались события %q", event)
	return frame{}
}

func sendCommand(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"event": event,
		"data":  data,
	}))
}

// TestWS_HandshakeRequiresCookie - без валидного cookie апгрейда нет
func TestWS_HandshakeRequiresCookie(t *testing.T) {
	ts := GetTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/ws"

	// Без cookie
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Мусорный токен
	header := http.Header{}
	header.Set("Cookie", ws.SessionCookieName+"=garbage.token.here")
	_, resp, err = websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// TestWS_MessageFlow - join, отправка, broadcast, прочитанность, удаление
func TestWS_MessageFlow(t *testing.T) {
	ts := GetTestServer(t)

	tokenA, _ := helpers.CreateUserWithToken(t, ts.DB, "wsalice")
	tokenB, userB := helpers.CreateUserWithToken(t, ts.DB, "wsbob")

	// Чат создается REST-путем
	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/chats/direct", tokenA,
		map[string]interface{}{"user_id": userB.ID})
	require.Equal(t, http.StatusOK, res.StatusCode, bodyStr)
	var chat dto.ChatResponse
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &chat))

	connA := dialWS(t, ts, tokenA)
	defer connA.Close()
	connB := dialWS(t, ts, tokenB)
	defer connB.Close()

	room := events.ChatRoom(chat.ID)

	// Оба участника входят в комнату чата
	sendCommand(t, connA, events.CmdJoinRoom, events.RoomPayload{RoomID: room})
	waitForEvent(t, connA, events.EventRoomJoined)
	sendCommand(t, connB, events.CmdJoinRoom, events.RoomPayload{RoomID: room})
	waitForEvent(t, connB, events.EventRoomJoined)

	// A отправляет сообщение через live-канал
	sendCommand(t, connA, events.CmdSendMessage, map[string]interface{}{
		"chat_id": chat.ID,
		"content": "живое сообщение",
	})

	// Оба (включая отправителя) получают broadcast после persist
	var msg dto.MessageResponse
	f := waitForEvent(t, connB, events.EventReceiveMessage)
	require.NoError(t, json.Unmarshal(f.Data, &msg))
	assert.Equal(t, "живое сообщение", msg.Content)
	assert.Equal(t, chat.ID, msg.ChatID)
	waitForEvent(t, connA, events.EventReceiveMessage)

	// B помечает прочитанным - A видит messages-marked-seen
	sendCommand(t, connB, events.CmdMarkSeen, map[string]interface{}{"chat_id": chat.ID})
	f = waitForEvent(t, connA, events.EventMessagesMarkedSeen)
	var seen events.MessagesMarkedSeenPayload
	require.NoError(t, json.Unmarshal(f.Data, &seen))
	assert.Equal(t, userB.ID, seen.ReaderID)
	assert.Equal(t, chat.ID, seen.ChatID)

	// A удаляет сообщение - B видит tombstone-событие
	sendCommand(t, connA, events.CmdDeleteMessage, map[string]interface{}{"message_id": msg.ID})
	f = waitForEvent(t, connB, events.EventMessageDeleted)
	var deleted events.MessageDeletedPayload
	require.NoError(t, json.Unmarshal(f.Data, &deleted))
	assert.Equal(t, msg.ID, deleted.MessageID)
}

// TestWS_JoinForeignChatDenied - ошибка уходит только актору
func TestWS_JoinForeignChatDenied(t *testing.T) {
	ts := GetTestServer(t)

	tokenA, _ := helpers.CreateUserWithToken(t, ts.DB, "wsowner")
	_, userB := helpers.CreateUserWithToken(t, ts.DB, "wspeer")
	tokenC, _ := helpers.CreateUserWithToken(t, ts.DB, "wsmallory")

	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/chats/direct", tokenA,
		map[string]interface{}{"user_id": userB.ID})
	require.Equal(t, http.StatusOK, res.StatusCode, bodyStr)
	var chat dto.ChatResponse
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &chat))

	connC := dialWS(t, ts, tokenC)
	defer connC.Close()

	sendCommand(t, connC, events.CmdJoinRoom, events.RoomPayload{RoomID: events.ChatRoom(chat.ID)})

	f := waitForEvent(t, connC, events.EventError)
	var errPayload events.ErrorPayload
	require.NoError(t, json.Unmarshal(f.Data, &errPayload))
	assert.Equal(t, "FORBIDDEN", errPayload.Code)
	assert.Equal(t, events.CmdJoinRoom, errPayload.RefEvent)

	// Чужая персональная комната тоже закрыта
	sendCommand(t, connC, events.CmdJoinRoom, events.RoomPayload{RoomID: events.PersonalRoom(userB.ID)})
	f = waitForEvent(t, connC, events.EventError)
	require.NoError(t, json.Unmarshal(f.Data, &errPayload))
	assert.Equal(t, "FORBIDDEN", errPayload.Code)
}

// TestWS_NotifyReachesPersonalRoom - уведомление о сообщении доходит
// получателю, который онлайн, но не входил в комнату чата: доставка
// идет в персональную комнату, подключаемую автоматически
func TestWS_NotifyReachesPersonalRoom(t *testing.T) {
	ts := GetTestServer(t)

	tokenA, _ := helpers.CreateUserWithToken(t, ts.DB, "wsactor")
	tokenB, userB := helpers.CreateUserWithToken(t, ts.DB, "wsrecipient")

	connB := dialWS(t, ts, tokenB)
	defer connB.Close()

	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/chats/direct", tokenA,
		map[string]interface{}{"user_id": userB.ID})
	require.Equal(t, http.StatusOK, res.StatusCode, bodyStr)
	var chat dto.ChatResponse
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &chat))

	res, bodyStr = ts.SendRequest(t, "POST", "/api/v1/chats/"+chat.ID+"/messages", tokenA,
		map[string]interface{}{"content": "проверка доставки"})
	require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)

	f := waitForEvent(t, connB, events.EventNotify)
	var notification dto.NotificationResponse
	require.NoError(t, json.Unmarshal(f.Data, &notification))
	assert.Equal(t, "message", notification.Kind)
	assert.Equal(t, userB.ID, notification.RecipientID)
	require.NotNil(t, notification.Refs.ChatID)
	assert.Equal(t, chat.ID, *notification.Refs.ChatID)
}
