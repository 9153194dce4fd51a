package model

import (
	"time"

	"github.com/wannav/dashboard/internal/domain/rbac"
)

// SystemLink — ссылка на внешнюю систему в реестре.
// Хранится в таблице systems.
type SystemLink struct {
	// ID — первичный ключ
	ID int64
	// Name — отображаемое имя системы
	Name string
	// URL — адрес внешней системы
	URL string
	// Description — необязательное описание (пустая строка = нет)
	Description string
	// OrderIndex — явный ключ сортировки; при равенстве порядок по id
	OrderIndex int
	// RequiredRole — минимальная роль, необходимая для просмотра
	RequiredRole rbac.Role
	// CreatedAt — время создания записи
	CreatedAt time.Time
}

// VisibleTo сообщает, видна ли ссылка пользователю с ролью role.
func (l *SystemLink) VisibleTo(role rbac.Role) bool {
	return rbac.HasPermission(role, l.RequiredRole)
}
