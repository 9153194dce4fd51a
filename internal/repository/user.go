package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wannav/dashboard/internal/domain/model"
	"github.com/wannav/dashboard/internal/domain/rbac"
)

// UserRepository — CRUD для таблицы users.
type UserRepository interface {
	// Create создаёт пользователя. Дублирующийся username → ErrConflict.
	Create(ctx context.Context, u *model.User) error
	// GetByID возвращает пользователя по id.
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// GetByUsername возвращает пользователя по точному (регистрозависимому) имени.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// List возвращает всех пользователей в порядке создания.
	List(ctx context.Context) ([]*model.User, error)
	// UpdatePassword сохраняет новый хеш пароля и флаг обязательной смены.
	UpdatePassword(ctx context.Context, id int64, passwordHash string, mustChange bool) error
	// ForceRole выставляет роль пользователю по имени (self-heal bootstrap-админа).
	ForceRole(ctx context.Context, username string, role rbac.Role) error
	// MigrateLegacyRoles назначает роль строкам без неё по устаревшему
	// флагу is_admin: true → admin, false → crew. Возвращает число
	// обновлённых строк; уже мигрированные строки не трогает.
	MigrateLegacyRoles(ctx context.Context) (int64, error)
	// Delete удаляет пользователя. Сессии должны быть удалены вызывающей стороной.
	Delete(ctx context.Context, id int64) error
}

// userRepo — реализация UserRepository.
type userRepo struct {
	db DBTX
}

// NewUserRepository создаёт репозиторий пользователей.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepo{db: db}
}

// Роль может быть NULL только у legacy-строк до прогона миграции данных,
// поэтому читаем с запасным значением crew.
const userColumns = `id, username, password_hash, COALESCE(role, 'crew'),
	must_change_password, created_at`

// scanUser сканирует строку результата в модель User.
func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	var roleStr string
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &roleStr,
		&u.MustChangePassword, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Role, err = rbac.Parse(roleStr)
	if err != nil {
		return nil, fmt.Errorf("некорректная роль в БД: %w", err)
	}
	return u, nil
}

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (username, password_hash, role, must_change_password)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		u.Username, u.PasswordHash, u.Role.String(), u.MustChangePassword,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: имя пользователя уже занято", ErrConflict)
		}
		return fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	return u, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1`, userColumns)
	u, err := scanUser(r.db.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя по имени: %w", err)
	}
	return u, nil
}

func (r *userRepo) List(ctx context.Context) ([]*model.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY id ASC`, userColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка пользователей: %w", err)
	}
	defer rows.Close()

	var result []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (r *userRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string, mustChange bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $2, must_change_password = $3 WHERE id = $1`,
		id, passwordHash, mustChange)
	if err != nil {
		return fmt.Errorf("ошибка обновления пароля: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) ForceRole(ctx context.Context, username string, role rbac.Role) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET role = $2 WHERE username = $1 AND (role IS DISTINCT FROM $2)`,
		username, role.String())
	if err != nil {
		return fmt.Errorf("ошибка выставления роли: %w", err)
	}
	return nil
}

func (r *userRepo) MigrateLegacyRoles(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET role = CASE WHEN is_admin THEN 'admin' ELSE 'crew' END
		WHERE role IS NULL`)
	if err != nil {
		return 0, fmt.Errorf("ошибка миграции legacy-ролей: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *userRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
