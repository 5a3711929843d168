package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Period месяц календаря отображения. Month начинается с нуля.
type Period struct {
	Year  int `json:"year" validate:"required"`
	Month int `json:"month" validate:"gte=0,lte=11"`
}

// Before сообщает, что период p идёт раньше other.
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// Payment зарегистрированная оплата подписчика.
type Payment struct {
	ID             int64           `json:"id"`
	SubscriberID   int64           `json:"subscriber_id"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	PaymentDate    time.Time       `json:"payment_date"`
	CoveredPeriods []Period        `json:"covered_periods"` // Оплаченные месяцы
	ReceiptNumber  string          `json:"receipt_number,omitempty"`
	PaymentMode    string          `json:"payment_mode,omitempty"`
	ProofURL       string          `json:"proof_url,omitempty"`
	RecordedBy     *uuid.UUID      `json:"recorded_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// PaymentInput данные, с которыми оператор регистрирует оплату.
// Пустой PaymentDate означает текущий момент.
type PaymentInput struct {
	Periods       []Period   `json:"periods" validate:"required,min=1,dive"`
	PaymentDate   *time.Time `json:"payment_date,omitempty"`
	ReceiptNumber string     `json:"receipt_number,omitempty"`
	PaymentMode   string     `json:"payment_mode,omitempty"`
	ProofURL      string     `json:"proof_url,omitempty"`
}

// PaymentPatch изменяемые поля существующего платежа.
// Nil-поля не меняются. Дата окончания подписки при этом не пересчитывается.
type PaymentPatch struct {
	AmountPaid    *decimal.Decimal `json:"amount_paid,omitempty"`
	ReceiptNumber *string          `json:"receipt_number,omitempty"`
	PaymentMode   *string          `json:"payment_mode,omitempty"`
	ProofURL      *string          `json:"proof_url,omitempty"`
}
