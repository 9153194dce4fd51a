// Пакет rbac — трёхуровневая модель ролей дашборда.
// Роли образуют полный порядок crew < leader < admin; любое решение
// об авторизации сводится к сравнению уровней HasPermission.
package rbac

import "fmt"

// Role — роль пользователя. Упорядоченное перечисление: числовое
// значение задаёт уровень привилегий, сравнение значений — иерархию.
type Role int

const (
	// RoleCrew — базовая роль: доступ только к общедоступным ссылкам.
	RoleCrew Role = iota + 1
	// RoleLeader — управление пользователями и реестром ссылок.
	RoleLeader
	// RoleAdmin — максимальные привилегии.
	RoleAdmin
)

// Строковые значения ролей — хранятся в БД и передаются по API.
const (
	crewName   = "crew"
	leaderName = "leader"
	adminName  = "admin"
)

// String возвращает строковое представление роли (значение для БД и API).
func (r Role) String() string {
	switch r {
	case RoleCrew:
		return crewName
	case RoleLeader:
		return leaderName
	case RoleAdmin:
		return adminName
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Parse преобразует строковое значение роли в Role.
// Любое значение вне {admin, leader, crew} — ошибка.
func Parse(s string) (Role, error) {
	switch s {
	case crewName:
		return RoleCrew, nil
	case leaderName:
		return RoleLeader, nil
	case adminName:
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("неизвестная роль %q, допустимые: admin, leader, crew", s)
	}
}

// HasPermission сообщает, достаточно ли роли actual для требования required:
// level(actual) >= level(required).
func HasPermission(actual, required Role) bool {
	return actual >= required
}

// Label возвращает отображаемое название роли для UI.
// Интерфейс панели — на японском языке.
func Label(r Role) string {
	switch r {
	case RoleAdmin:
		return "管理者"
	case RoleLeader:
		return "リーダー"
	case RoleCrew:
		return "クルー"
	default:
		return r.String()
	}
}
