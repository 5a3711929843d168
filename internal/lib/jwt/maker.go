// Package jwt выпускает и проверяет JWT операторов панели.
//
// Токен несёт идентификатор оператора и его роль; из них HTTP-слой
// собирает models.Actor для каждого запроса.
package jwt

import (
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-billing/internal/models"
)

// Maker описывает выпуск и разбор токенов.
type Maker interface {
	GenerateToken(userID uuid.UUID, role models.Role) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl подписывает токены HMAC-ключом и задаёт им время жизни.
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
}

// NewJWTMaker создаёт MakerImpl.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
