package models

import "github.com/google/uuid"

// Actor вызывающая сторона, передаваемая явно в каждый вызов ядра.
// ID == nil означает системного актора (cron).
type Actor struct {
	ID   *uuid.UUID
	Role Role
}

// SystemActor используется планировщиком для системных переходов.
var SystemActor = Actor{}

// IsSystem сообщает, что вызов инициирован системой, а не оператором.
func (a Actor) IsSystem() bool {
	return a.ID == nil && a.Role == ""
}

// NewActor создаёт актора для аутентифицированного оператора.
func NewActor(id uuid.UUID, role Role) Actor {
	return Actor{ID: &id, Role: role}
}
