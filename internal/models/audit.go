package models

import (
	"time"

	"github.com/google/uuid"
)

// ActionType закрытый набор типов событий журнала аудита.
type ActionType string

const (
	ActionSubscriberCreated ActionType = "subscriber_created"
	ActionSubscriberUpdated ActionType = "subscriber_updated"
	ActionSubscriberDeleted ActionType = "subscriber_deleted"
	ActionPaymentCreated    ActionType = "payment_created"
	ActionPaymentUpdated    ActionType = "payment_updated"
	ActionPaymentDeleted    ActionType = "payment_deleted"
	ActionUserCreated       ActionType = "user_created"
	ActionUserDeleted       ActionType = "user_deleted"
	ActionCommunicationSent ActionType = "communication_sent"
	ActionCronTriggered     ActionType = "cron_triggered"
)

// Названия таблиц для поля TargetTable.
const (
	TableSubscribers = "subscribers"
	TablePayments    = "payments"
	TableUsers       = "users"
)

// AuditRecord неизменяемая запись журнала. ActorID == nil для системных событий.
// ActorRole сохраняется на момент записи, чтобы видимость не менялась
// после удаления учётной записи.
type AuditRecord struct {
	ID          int64          `json:"id"`
	ActorID     *uuid.UUID     `json:"actor_id"`
	ActorRole   *Role          `json:"actor_role"`
	ActionType  ActionType     `json:"action_type"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	TargetTable string         `json:"target_table,omitempty"`
	TargetID    string         `json:"target_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewAuditRecord заполняет поля автора из актора.
func NewAuditRecord(actor Actor, action ActionType, description string) AuditRecord {
	rec := AuditRecord{
		ActionType:  action,
		Description: description,
	}
	if !actor.IsSystem() {
		rec.ActorID = actor.ID
		role := actor.Role
		rec.ActorRole = &role
	}
	return rec
}

// AuditFilter необязательные условия выборки журнала.
type AuditFilter struct {
	ActionType  ActionType
	TargetTable string
	TargetID    string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// AuditScope ограничение видимости, применяемое хранилищем на уровне запроса.
type AuditScope struct {
	// Unrestricted снимает все ограничения.
	Unrestricted bool
	// StaffAndSystemOnly оставляет только записи без автора и записи сотрудников.
	StaffAndSystemOnly bool
	// IncludeCommunication разрешает записи communication_sent.
	IncludeCommunication bool
}
