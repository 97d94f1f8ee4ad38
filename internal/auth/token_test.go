package auth

import (
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"bondlink_backend/internal/config"
	"bondlink_backend/pkg/apperrors"
)

func TestMain(m *testing.M) {
	os.Setenv("DATABASE_URL", "postgres://localhost:5432/unused")
	os.Setenv("JWT_SECRET", "test_secret_key_1234567890")
	config.LoadConfig()
	os.Exit(m.Run())
}

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("user-123", "member")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := ParseToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "member", claims.Role)
}

func TestParseToken_Garbage(t *testing.T) {
	_, err := ParseToken("not.a.token")
	assert.ErrorIs(t, err, apperrors.ErrInvalidSessionToken)
}

func TestParseToken_WrongSecret(t *testing.T) {
	claims := Claims{
		UserID: "user-123",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("another_secret"))
	assert.NoError(t, err)

	_, err = ParseToken(signed)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSessionToken)
}

func TestParseToken_Expired(t *testing.T) {
	cfg := config.GetConfig()
	claims := Claims{
		UserID: "user-123",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWT.Secret))
	assert.NoError(t, err)

	_, err = ParseToken(signed)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestParseToken_MissingUserID(t *testing.T) {
	cfg := config.GetConfig()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWT.Secret))
	assert.NoError(t, err)

	_, err = ParseToken(signed)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSessionToken)
}
