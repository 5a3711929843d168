package models

import "time"

// Стадии, на которых может упасть проход планировщика.
const (
	StageSelect     = "select"
	StageReminder   = "reminder"
	StageDeactivate = "deactivate"
	StageDispatch   = "dispatch"
	StageAudit      = "audit"
)

// RunError ошибка одного шага ежедневного прохода.
type RunError struct {
	Stage        string `json:"stage"`
	SubscriberID int64  `json:"subscriber_id,omitempty"`
	Channel      string `json:"channel,omitempty"`
	Message      string `json:"message"`
}

// RunSummary итог ежедневного прохода, единственный внешний артефакт запуска.
type RunSummary struct {
	RunAt            time.Time  `json:"run_at"`
	RemindersSent    int        `json:"reminders_sent"`
	DeactivatedCount int        `json:"deactivated_count"`
	Errors           []RunError `json:"errors"`
}
