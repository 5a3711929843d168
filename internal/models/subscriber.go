// Package models содержит доменные структуры движка подписок: подписчика,
// платёж, запись аудита, роли и ошибки, общие для сервисов и хранилища.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency периодичность оплаты подписчика.
type Frequency string

const (
	// FrequencyMonthly ставка за один месяц календаря отображения.
	FrequencyMonthly Frequency = "monthly"
	// FrequencyAnnual ставка за один год календаря отображения.
	FrequencyAnnual Frequency = "annual"
)

// Status хранимый статус подписчика.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Subscriber представляет подписчика и состояние его оплаты.
type Subscriber struct {
	ID                 int64           `json:"id"`
	Name               string          `json:"name"`
	Email              string          `json:"email,omitempty"`
	Phone              string          `json:"phone,omitempty"`
	Frequency          Frequency       `json:"frequency"`
	Rate               decimal.Decimal `json:"rate"`                 // Ставка за единицу периода
	ReminderDaysBefore int             `json:"reminder_days_before"` // За сколько дней напоминать
	SubscriptionEnd    time.Time       `json:"subscription_end"`     // Оплачено до этого момента
	Status             Status          `json:"status"`
	StatusNotes        string          `json:"status_notes,omitempty"` // Заполняется при автоотключении
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// DisplayStatus единственное место, где выводится отображаемый статус:
// подписчик с истёкшей датой окончания показывается как expired
// независимо от хранимого статуса.
func (s Subscriber) DisplayStatus(now time.Time) Status {
	if s.SubscriptionEnd.Before(now) {
		return StatusExpired
	}
	return s.Status
}

// Contact возвращает контакт для уведомлений: почту, а при её отсутствии телефон.
func (s Subscriber) Contact() string {
	if s.Email != "" {
		return s.Email
	}
	return s.Phone
}

// NewSubscriber данные для создания подписчика.
type NewSubscriber struct {
	Name               string          `json:"name" validate:"required"`
	Email              string          `json:"email" validate:"omitempty,email"`
	Phone              string          `json:"phone"`
	Frequency          Frequency       `json:"frequency" validate:"required,oneof=monthly annual"`
	Rate               decimal.Decimal `json:"rate"`
	ReminderDaysBefore int             `json:"reminder_days_before" validate:"required,gt=0"`
}

// SubscriberView подписчик вместе с вычисленным отображаемым статусом.
type SubscriberView struct {
	Subscriber
	DisplayStatus Status `json:"display_status"`
	EndDisplay    string `json:"subscription_end_display"`
}
