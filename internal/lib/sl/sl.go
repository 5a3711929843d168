// Package sl содержит вспомогательные атрибуты для логгера slog,
// чтобы ключи полей были одинаковыми во всех сервисах.
package sl

import "log/slog"

// Err возвращает атрибут с ключом "error" и текстом ошибки.
//
// Пример:
//
//	log.Error("failed to record payment", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Op возвращает атрибут с именем операции.
func Op(op string) slog.Attr {
	return slog.String("op", op)
}

// SubscriberID возвращает атрибут с идентификатором подписчика.
func SubscriberID(id int64) slog.Attr {
	return slog.Int64("subscriber_id", id)
}
