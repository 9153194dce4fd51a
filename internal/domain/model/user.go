// Пакет model — доменные модели дашборда.
package model

import (
	"time"

	"github.com/wannav/dashboard/internal/domain/rbac"
)

// User — учётная запись пользователя дашборда.
// Хранится в таблице users.
type User struct {
	// ID — первичный ключ
	ID int64
	// Username — уникальное имя пользователя (регистрозависимое)
	Username string
	// PasswordHash — bcrypt-хеш пароля; наружу никогда не отдаётся
	PasswordHash string
	// Role — роль пользователя (crew, leader, admin)
	Role rbac.Role
	// MustChangePassword — требуется смена пароля при следующем входе
	MustChangePassword bool
	// CreatedAt — время создания записи
	CreatedAt time.Time
}

// IsProtected сообщает, является ли пользователь защищённой учётной
// записью bootstrap-администратора: её нельзя удалить или понизить.
func (u *User) IsProtected() bool {
	return u.Username == ProtectedUsername
}

// ProtectedUsername — имя защищённой учётной записи администратора.
const ProtectedUsername = "admin"
