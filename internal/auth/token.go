package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bondlink_backend/internal/config"
	"bondlink_backend/pkg/apperrors"
)

// Claims - полезная нагрузка сессионного токена.
// Ядро потребляет только контракт проверки: verify(token) -> {userID, expiry}.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken выпускает подписанный сессионный токен.
// Выпуск учетных данных живет снаружи ядра; функция нужна
// коллаборатору аутентификации и тестам.
func GenerateToken(userID, role string) (string, error) {
	cfg := config.GetConfig()

	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(cfg.JWT.TTL) * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWT.Secret))
}

// ParseToken проверяет подпись и срок действия токена.
// Возвращает доменные ошибки: ErrTokenExpired / ErrInvalidSessionToken.
func ParseToken(tokenStr string) (*Claims, error) {
	cfg := config.GetConfig()

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidSessionToken
	}

	if !token.Valid || claims.UserID == "" {
		return nil, apperrors.ErrInvalidSessionToken
	}

	return claims, nil
}
