// Package permission содержит единую точку проверки прав операторов.
//
// Матрица роль → именованные права статична и загружается в casbin-энфорсер
// в памяти. Роли наследуют права младших ролей: super_admin ⊃ admin ⊃ staff.
// Проверка минимальной роли (AtLeast) независима от матрицы.
package permission

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/magabrotheeeer/subscription-billing/internal/models"
)

// Permission именованное право.
type Permission string

const (
	ViewSubscriber        Permission = "VIEW_SUBSCRIBER"
	CreateSubscriber      Permission = "CREATE_SUBSCRIBER"
	UpdateSubscriber      Permission = "UPDATE_SUBSCRIBER"
	DeleteSubscriber      Permission = "DELETE_SUBSCRIBER"
	ViewPayment           Permission = "VIEW_PAYMENT"
	CreatePayment         Permission = "CREATE_PAYMENT"
	UpdatePayment         Permission = "UPDATE_PAYMENT"
	DeletePayment         Permission = "DELETE_PAYMENT"
	ViewStaffLogs         Permission = "VIEW_STAFF_LOGS"
	ViewAllLogs           Permission = "VIEW_ALL_LOGS"
	ViewCommunicationLogs Permission = "VIEW_COMMUNICATION_LOGS"
	TriggerCron           Permission = "TRIGGER_CRON"
	ManageStaff           Permission = "MANAGE_STAFF"
	ManageAdmins          Permission = "MANAGE_ADMINS"
)

const rbacModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj
`

// matrix перечисляет права, которые роль получает сверх унаследованных.
var matrix = map[models.Role][]Permission{
	models.RoleStaff: {
		ViewSubscriber, CreateSubscriber,
		ViewPayment, CreatePayment,
	},
	models.RoleAdmin: {
		UpdateSubscriber, DeleteSubscriber,
		UpdatePayment, DeletePayment,
		ViewStaffLogs, TriggerCron, ManageStaff,
	},
	models.RoleSuperAdmin: {
		ViewAllLogs, ViewCommunicationLogs, ManageAdmins,
	},
}

// inherits: роль слева получает все права роли справа.
var inherits = [][2]models.Role{
	{models.RoleAdmin, models.RoleStaff},
	{models.RoleSuperAdmin, models.RoleAdmin},
}

// Gate проверяет права и минимальную роль.
type Gate struct {
	enforcer *casbin.SyncedEnforcer
}

// New строит энфорсер по статической матрице.
func New() (*Gate, error) {
	const op = "permission.New"

	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for role, perms := range matrix {
		for _, p := range perms {
			if _, err := e.AddPolicy(string(role), string(p)); err != nil {
				return nil, fmt.Errorf("%s: add policy %s/%s: %w", op, role, p, err)
			}
		}
	}
	for _, pair := range inherits {
		if _, err := e.AddGroupingPolicy(string(pair[0]), string(pair[1])); err != nil {
			return nil, fmt.Errorf("%s: add role link %s->%s: %w", op, pair[0], pair[1], err)
		}
	}
	return &Gate{enforcer: e}, nil
}

// MustNew как New, но паникует при ошибке. Матрица статична,
// поэтому ошибка здесь означает дефект сборки.
func MustNew() *Gate {
	g, err := New()
	if err != nil {
		panic(err)
	}
	return g
}

// Can сообщает, есть ли у роли право.
func (g *Gate) Can(role models.Role, perm Permission) bool {
	if !role.Valid() {
		return false
	}
	ok, err := g.enforcer.Enforce(string(role), string(perm))
	return err == nil && ok
}

// Require возвращает ErrUnauthorized, если у актора нет права.
// Системный актор прав оператора не имеет.
func (g *Gate) Require(actor models.Actor, perm Permission) error {
	if actor.IsSystem() || !g.Can(actor.Role, perm) {
		return fmt.Errorf("%w: role %q lacks %s", models.ErrUnauthorized, actor.Role, perm)
	}
	return nil
}

// AtLeast грубая проверка по рангу роли.
func AtLeast(actual, required models.Role) bool {
	return actual.Valid() && actual.Rank() >= required.Rank()
}

// RequireRole возвращает ErrUnauthorized, если роль актора ниже required.
func (g *Gate) RequireRole(actor models.Actor, required models.Role) error {
	if actor.IsSystem() || !AtLeast(actor.Role, required) {
		return fmt.Errorf("%w: role %q is below %q", models.ErrUnauthorized, actor.Role, required)
	}
	return nil
}

// AuditScope переводит права роли в ограничение выборки журнала.
// visible == false означает, что роль не видит ни одной записи.
func (g *Gate) AuditScope(role models.Role) (scope models.AuditScope, visible bool) {
	switch {
	case g.Can(role, ViewAllLogs):
		return models.AuditScope{Unrestricted: true, IncludeCommunication: true}, true
	case g.Can(role, ViewStaffLogs):
		return models.AuditScope{
			StaffAndSystemOnly:   true,
			IncludeCommunication: g.Can(role, ViewCommunicationLogs),
		}, true
	default:
		return models.AuditScope{}, false
	}
}

// CanManage сообщает, может ли роль создавать и удалять учётные записи с ролью target.
func (g *Gate) CanManage(role, target models.Role) bool {
	switch target {
	case models.RoleStaff:
		return g.Can(role, ManageStaff)
	case models.RoleAdmin, models.RoleSuperAdmin:
		return g.Can(role, ManageAdmins)
	default:
		return false
	}
}
