package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wannav/dashboard/internal/domain/model"
	"github.com/wannav/dashboard/internal/domain/rbac"
)

// SystemLinkRepository — CRUD для таблицы systems (реестр ссылок).
type SystemLinkRepository interface {
	// Create добавляет ссылку в реестр.
	Create(ctx context.Context, l *model.SystemLink) error
	// GetByID возвращает ссылку по id.
	GetByID(ctx context.Context, id int64) (*model.SystemLink, error)
	// List возвращает все ссылки в определённом порядке:
	// order_index ASC, при равенстве — id ASC.
	List(ctx context.Context) ([]*model.SystemLink, error)
	// Update обновляет все редактируемые поля ссылки.
	Update(ctx context.Context, l *model.SystemLink) error
	// Delete удаляет ссылку.
	Delete(ctx context.Context, id int64) error
	// Count возвращает число ссылок в реестре.
	Count(ctx context.Context) (int, error)
	// DefaultMissingRequiredRole назначает crew строкам без требуемой
	// роли (legacy-данные). Возвращает число обновлённых строк.
	DefaultMissingRequiredRole(ctx context.Context) (int64, error)
}

// systemLinkRepo — реализация SystemLinkRepository.
type systemLinkRepo struct {
	db DBTX
}

// NewSystemLinkRepository создаёт репозиторий реестра ссылок.
func NewSystemLinkRepository(db DBTX) SystemLinkRepository {
	return &systemLinkRepo{db: db}
}

const linkColumns = `id, name, url, COALESCE(description, ''), order_index,
	COALESCE(required_role, 'crew'), created_at`

// scanLink сканирует строку результата в модель SystemLink.
func scanLink(row pgx.Row) (*model.SystemLink, error) {
	l := &model.SystemLink{}
	var roleStr string
	err := row.Scan(&l.ID, &l.Name, &l.URL, &l.Description, &l.OrderIndex,
		&roleStr, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	l.RequiredRole, err = rbac.Parse(roleStr)
	if err != nil {
		return nil, fmt.Errorf("некорректная требуемая роль в БД: %w", err)
	}
	return l, nil
}

func (r *systemLinkRepo) Create(ctx context.Context, l *model.SystemLink) error {
	query := `
		INSERT INTO systems (name, url, description, order_index, required_role)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		l.Name, l.URL, l.Description, l.OrderIndex, l.RequiredRole.String(),
	).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания ссылки: %w", err)
	}
	return nil
}

func (r *systemLinkRepo) GetByID(ctx context.Context, id int64) (*model.SystemLink, error) {
	query := fmt.Sprintf(`SELECT %s FROM systems WHERE id = $1`, linkColumns)
	l, err := scanLink(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения ссылки: %w", err)
	}
	return l, nil
}

func (r *systemLinkRepo) List(ctx context.Context) ([]*model.SystemLink, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM systems ORDER BY order_index ASC, id ASC`, linkColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка ссылок: %w", err)
	}
	defer rows.Close()

	var result []*model.SystemLink
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования ссылки: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

func (r *systemLinkRepo) Update(ctx context.Context, l *model.SystemLink) error {
	query := `
		UPDATE systems
		SET name = $2, url = $3, description = NULLIF($4, ''),
			order_index = $5, required_role = $6
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		l.ID, l.Name, l.URL, l.Description, l.OrderIndex, l.RequiredRole.String())
	if err != nil {
		return fmt.Errorf("ошибка обновления ссылки: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *systemLinkRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM systems WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления ссылки: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *systemLinkRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM systems`).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта ссылок: %w", err)
	}
	return count, nil
}

func (r *systemLinkRepo) DefaultMissingRequiredRole(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE systems SET required_role = 'crew' WHERE required_role IS NULL`)
	if err != nil {
		return 0, fmt.Errorf("ошибка заполнения требуемой роли: %w", err)
	}
	return tag.RowsAffected(), nil
}
