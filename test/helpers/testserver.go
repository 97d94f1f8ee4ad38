package helpers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"bondlink_backend/database"
	"bondlink_backend/internal/app"
	"bondlink_backend/internal/config"
)

// TestServer - httptest-сервер поверх полного роутера приложения
// и подключение к тестовой БД
type TestServer struct {
	Server *httptest.Server
	DB     *gorm.DB
}

// NewTestServer поднимает тестовый сервер. Конфиг берется из окружения
// (DATABASE_URL должен указывать на тестовую базу).
func NewTestServer(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)

	config.LoadConfig()
	cfg := config.GetConfig()

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		t.Fatalf("Не удалось подключиться к тестовой БД (%s): %v", cfg.Database.DSN, err)
	}

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate тестовой БД упал: %v", err)
	}

	router := app.SetupRouter(cfg, db)
	server := httptest.NewServer(router)

	return &TestServer{
		Server: server,
		DB:     db,
	}
}

func (ts *TestServer) Close() {
	ts.Server.Close()
	sqlDB, _ := ts.DB.DB()
	sqlDB.Close()
}

// ClearTables очищает все таблицы ядра
func (ts *TestServer) ClearTables(t *testing.T) {
	err := ts.DB.Exec(`TRUNCATE TABLE
		users, communities, community_members, notifications,
		chat.chats, chat.chat_participants, chat.messages,
		chat.message_attachments, chat.message_read_receipts
		RESTART IDENTITY CASCADE`).Error
	if err != nil {
		t.Fatalf("Не удалось очистить таблицы: %v", err)
	}
}

// SendRequest выполняет HTTP-запрос к тестовому серверу
func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	url := ts.Server.URL + path

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Ошибка кодирования JSON для запроса: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("Ошибка создания HTTP-запроса: %v", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := ts.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("Ошибка отправки HTTP-запроса: %v", err)
	}

	resBodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("Ошибка чтения тела ответа: %v", err)
	}
	defer res.Body.Close()

	return res, string(resBodyBytes)
}
