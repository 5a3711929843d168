package models

import (
	"time"

	"github.com/google/uuid"
)

// User учётная запись оператора панели.
type User struct {
	ID           uuid.UUID `json:"id"`         // Уникальный идентификатор
	Username     string    `json:"username"`   // Имя пользователя (уникальное)
	Email        string    `json:"email"`      // Электронная почта
	PasswordHash string    `json:"-"`          // bcrypt-хэш пароля
	Role         Role      `json:"role"`       // Роль оператора
	CreatedAt    time.Time `json:"created_at"` // Дата создания
}

// NewUser данные для создания оператора.
type NewUser struct {
	Username string `json:"username" validate:"required,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     Role   `json:"role" validate:"required,oneof=super_admin admin staff"`
}
