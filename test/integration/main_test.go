package integration_test

import (
	"os"
	"sync"
	"testing"

	"bondlink_backend/test/helpers"
)

// Интеграционные тесты требуют живой postgres. Адрес тестовой базы
// передается через TEST_DATABASE_URL; без него пакет пропускается.
var (
	globalTestServer *helpers.TestServer
	serverOnce       sync.Once
)

// GetTestServer возвращает общий тестовый сервер (создает при первом вызове)
func GetTestServer(t *testing.T) *helpers.TestServer {
	testDB := os.Getenv("TEST_DATABASE_URL")
	if testDB == "" {
		t.Skip("TEST_DATABASE_URL is not set; skipping integration tests")
	}

	serverOnce.Do(func() {
		os.Setenv("DATABASE_URL", testDB)
		os.Setenv("SERVER_ENV", "test")
		if os.Getenv("JWT_SECRET") == "" {
			os.Setenv("JWT_SECRET", "integration_test_secret_12345")
		}

		globalTestServer = helpers.NewTestServer(t)
	})
	return globalTestServer
}

func TestMain(m *testing.M) {
	code := m.Run()

	if globalTestServer != nil {
		globalTestServer.Close()
	}

	os.Exit(code)
}
