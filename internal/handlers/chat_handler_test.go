package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"bondlink_backend/internal/services"
	"bondlink_backend/internal/services/dto"
	"bondlink_backend/pkg/contextkeys"
)

// stubChatService записывает аргументы ListMessages
type stubChatService struct {
	listPage     int
	listPageSize int
}

func (s *stubChatService) CreateOrGetDirectChat(*gorm.DB, string, *dto.CreateDirectChatRequest) (*dto.ChatResponse, error) {
	return &dto.ChatResponse{}, nil
}

func (s *stubChatService) CreateGroupChat(*gorm.DB, string, *dto.CreateGroupChatRequest) (*dto.ChatResponse, error) {
	return &dto.ChatResponse{}, nil
}

func (s *stubChatService) GetUserChats(*gorm.DB, string) ([]*dto.ChatResponse, error) {
	return nil, nil
}

func (s *stubChatService) AuthorizeParticipant(*gorm.DB, string, string) error { return nil }

func (s *stubChatService) SendMessage(*gorm.DB, string, *dto.SendMessageRequest) (*dto.MessageResponse, error) {
	return &dto.MessageResponse{}, nil
}

func (s *stubChatService) ListMessages(_ *gorm.DB, _, _ string, page, pageSize int) (*dto.MessageListResponse, error) {
	s.listPage = page
	s.listPageSize = pageSize
	return &dto.MessageListResponse{Page: page, PageSize: pageSize}, nil
}

func (s *stubChatService) DeleteMessage(*gorm.DB, string, string) error { return nil }

func (s *stubChatService) MarkRead(*gorm.DB, string, string) error { return nil }

func newMessagesContext(t *testing.T, query string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/chats/chat-1/messages"+query, nil)
	c.Params = gin.Params{{Key: "chatId", Value: "chat-1"}}
	c.Set("userID", "user-1")
	c.Set(string(contextkeys.DBContextKey), &gorm.DB{})
	return c, w
}

// Без query-параметров история отдается страницей стандартного для
// чатов размера, а не общим пагинационным умолчанием
func TestChatHandler_GetChatMessages_DefaultPageSize(t *testing.T) {
	stub := &stubChatService{}
	h := NewChatHandler(NewBaseHandler(), stub)

	c, w := newMessagesContext(t, "")
	h.GetChatMessages(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, stub.listPage)
	assert.Equal(t, services.DefaultMessagePageSize, stub.listPageSize)
}

func TestChatHandler_GetChatMessages_ExplicitPagination(t *testing.T) {
	stub := &stubChatService{}
	h := NewChatHandler(NewBaseHandler(), stub)

	c, w := newMessagesContext(t, "?page=3&page_size=5")
	h.GetChatMessages(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, stub.listPage)
	assert.Equal(t, 5, stub.listPageSize)
}
