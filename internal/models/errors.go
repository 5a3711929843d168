package models

import (
	"errors"

	"github.com/magabrotheeeer/subscription-billing/internal/lib/calendar"
)

var (
	// ErrInvalidCalendarDate день вне длины месяца календаря отображения.
	ErrInvalidCalendarDate = calendar.ErrInvalidDate
	// ErrUnauthorized у вызывающего нет права или минимальной роли.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound подписчик, платёж или пользователь не найден.
	ErrNotFound = errors.New("not found")
	// ErrInconsistentState переход недопустим из текущего статуса.
	ErrInconsistentState = errors.New("inconsistent state")
	// ErrDispatchFailure канал уведомлений не доставил сообщение.
	ErrDispatchFailure = errors.New("dispatch failure")
	// ErrPersistenceFailure запись в хранилище не удалась.
	ErrPersistenceFailure = errors.New("persistence failure")
	// ErrRunInProgress другой проход планировщика ещё выполняется.
	ErrRunInProgress = errors.New("daily pass already in progress")
	// ErrAlreadyExists нарушение уникальности.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidCredentials неверное имя пользователя или пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
