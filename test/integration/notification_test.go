package integration_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bondlink_backend/internal/models"
	"bondlink_backend/internal/repositories"
	"bondlink_backend/internal/services"
	"bondlink_backend/internal/services/dto"
	"bondlink_backend/pkg/apperrors"
	"bondlink_backend/test/helpers"
)

// newNotificationService - сервис поверх тестовой БД без live-канала
// и почты; Notify - внутренняя точка интеграции, HTTP-ручки у нее нет
func newNotificationService() services.NotificationService {
	return services.NewNotificationService(
		repositories.NewNotificationRepository(),
		repositories.NewUserRepository(),
		repositories.NewChatRepository(),
		nil,
		nil,
	)
}

// TestNotifications_NotifyAndRead - persist через Notify, чтение через REST
func TestNotifications_NotifyAndRead(t *testing.T) {
	ts := GetTestServer(t)
	svc := newNotificationService()

	tokenB, userB := helpers.CreateUserWithToken(t, ts.DB, "recipient")
	_, userA := helpers.CreateUserWithToken(t, ts.DB, "actor")

	postID := "post-123"
	created, err := svc.Notify(ts.DB, userB.ID, userA.ID, models.NotificationKindLike,
		"actor liked your post", dto.NotificationRefs{PostID: &postID})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.Seen)

	_, err = svc.Notify(ts.DB, userB.ID, userA.ID, models.NotificationKindComment,
		"actor commented on your post", dto.NotificationRefs{PostID: &postID})
	require.NoError(t, err)

	// До чтения: два непросмотренных
	res, bodyStr := ts.SendRequest(t, "GET", "/api/v1/notifications/unseen-counts", tokenB, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, bodyStr)
	var counts dto.UnseenCountsResponse
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &counts))
	assert.Equal(t, int64(2), counts.Notifications)

	// Чтение списка: страница возвращается и помечается просмотренной
	res, bodyStr = ts.SendRequest(t, "GET", "/api/v1/notifications", tokenB, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, bodyStr)
	var list dto.NotificationListResponse
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &list))
	require.Len(t, list.Notifications, 2)
	// Список newest-first
	assert.Equal(t, "comment", list.Notifications[0].Kind)
	require.NotNil(t, list.Notifications[1].Refs.PostID)
	assert.Equal(t, postID, *list.Notifications[1].Refs.PostID)
	// Актор резолвится в отображаемые поля
	assert.Equal(t, userA.Name, list.Notifications[0].ActorName)

	// После чтения счетчик обнулился
	res, bodyStr = ts.SendRequest(t, "GET", "/api/v1/notifications/unseen-counts", tokenB, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, bodyStr)
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &counts))
	assert.Equal(t, int64(0), counts.Notifications)
}

// TestNotifications_SeenAndDelete - пометка и удаление принадлежат владельцу
func TestNotifications_SeenAndDelete(t *testing.T) {
	ts := GetTestServer(t)
	svc := newNotificationService()

	tokenB, userB := helpers.CreateUserWithToken(t, ts.DB, "owner5")
	tokenC, _ := helpers.CreateUserWithToken(t, ts.DB, "stranger5")
	_, userA := helpers.CreateUserWithToken(t, ts.DB, "actor5")

	created, err := svc.Notify(ts.DB, userB.ID, userA.ID, models.NotificationKindBondAccepted,
		"bond accepted", dto.NotificationRefs{})
	require.NoError(t, err)

	// Чужое уведомление невидимо
	res, _ := ts.SendRequest(t, "PUT", "/api/v1/notifications/"+created.ID+"/seen", tokenC, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	// Владелец помечает просмотренным; повтор - no-op
	res, _ = ts.SendRequest(t, "PUT", "/api/v1/notifications/"+created.ID+"/seen", tokenB, nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	res, _ = ts.SendRequest(t, "PUT", "/api/v1/notifications/"+created.ID+"/seen", tokenB, nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	// Чужое удаление - 404, владельческое - 204, повтор - 404
	res, _ = ts.SendRequest(t, "DELETE", "/api/v1/notifications/"+created.ID, tokenC, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	res, _ = ts.SendRequest(t, "DELETE", "/api/v1/notifications/"+created.ID, tokenB, nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	res, _ = ts.SendRequest(t, "DELETE", "/api/v1/notifications/"+created.ID, tokenB, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

// TestNotifications_MarkAllSeen
func TestNotifications_MarkAllSeen(t *testing.T) {
	ts := GetTestServer(t)
	svc := newNotificationService()

	tokenB, userB := helpers.CreateUserWithToken(t, ts.DB, "owner6")
	_, userA := helpers.CreateUserWithToken(t, ts.DB, "actor6")

	for i := 0; i < 3; i++ {
		_, err := svc.Notify(ts.DB, userB.ID, userA.ID, models.NotificationKindJoin,
			"joined your community", dto.NotificationRefs{})
		require.NoError(t, err)
	}

	res, _ := ts.SendRequest(t, "PUT", "/api/v1/notifications/read-all", tokenB, nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res, bodyStr := ts.SendRequest(t, "GET", "/api/v1/notifications/unseen-counts", tokenB, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, bodyStr)
	var counts dto.UnseenCountsResponse
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &counts))
	assert.Equal(t, int64(0), counts.Notifications)
}

// TestNotifications_InvalidKindRejected - закрытый перечень видов
func TestNotifications_InvalidKindRejected(t *testing.T) {
	ts := GetTestServer(t)
	svc := newNotificationService()

	_, userB := helpers.CreateUserWithToken(t, ts.DB, "owner7")
	_, userA := helpers.CreateUserWithToken(t, ts.DB, "actor7")

	_, err := svc.Notify(ts.DB, userB.ID, userA.ID, models.NotificationKind("smoke_signal"),
		"???", dto.NotificationRefs{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidNotificationKind)
}
