package models

// Role роль оператора системы.
type Role string

const (
	// RoleSuperAdmin видит всё, включая журналы каналов уведомлений.
	RoleSuperAdmin Role = "super_admin"
	// RoleAdmin управляет подписчиками и платежами.
	RoleAdmin Role = "admin"
	// RoleStaff может только просматривать и создавать записи.
	RoleStaff Role = "staff"
)

// Rank возвращает позицию роли в полном порядке super_admin > admin > staff.
// Неизвестная роль имеет ранг 0.
func (r Role) Rank() int {
	switch r {
	case RoleSuperAdmin:
		return 3
	case RoleAdmin:
		return 2
	case RoleStaff:
		return 1
	default:
		return 0
	}
}

// Valid сообщает, является ли роль одной из известных.
func (r Role) Valid() bool {
	return r.Rank() > 0
}
