package models

// Transition результат перехода состояния, который хранилище
// записывает в одной транзакции с блокировкой строки подписчика.
type Transition struct {
	Subscriber *Subscriber   // Новое состояние; при nil подписчик не меняется
	Payment    *Payment      // Платёж для вставки, если есть
	Audit      []AuditRecord // Записи журнала
	Delete     bool          // Удалить подписчика (платежи удаляются каскадно)
}

// NoChange переход без изменений и без записей аудита.
var NoChange = Transition{}

// MutationResult итог записи перехода хранилищем.
type MutationResult struct {
	Subscriber *Subscriber // Состояние после перехода; nil, если подписчик удалён
	Payment    *Payment    // Вставленный платёж
	Applied    bool        // false, если переход ничего не изменил
}
