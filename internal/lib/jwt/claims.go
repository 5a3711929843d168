package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-billing/internal/models"
)

// CustomClaims данные оператора внутри токена.
type CustomClaims struct {
	UserID               uuid.UUID   `json:"uid"`  // Идентификатор оператора
	Role                 models.Role `json:"role"` // Роль оператора
	jwt.RegisteredClaims             // ExpiresAt, IssuedAt и пр.
}

// Actor возвращает актора, от имени которого действует владелец токена.
func (c *CustomClaims) Actor() models.Actor {
	return models.NewActor(c.UserID, c.Role)
}

// GenerateToken создаёт токен для оператора userID с ролью role.
func (j *MakerImpl) GenerateToken(userID uuid.UUID, role models.Role) (string, error) {
	const op = "jwt.GenerateToken"
	now := time.Now()
	claims := CustomClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken проверяет подпись и срок действия токена и возвращает claims.
// Токен с неизвестной ролью или пустым идентификатором отклоняется.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	if claims.UserID == uuid.Nil || !claims.Role.Valid() {
		return nil, fmt.Errorf("%s: token has no valid actor", op)
	}
	return claims, nil
}
