package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wannav/dashboard/internal/domain/model"
)

// SessionRepository — операции над таблицей sessions.
// Активной чистки истёкших строк нет: валидность определяется
// предикатом expires_at > now() при чтении.
type SessionRepository interface {
	// Create сохраняет выданную сессию.
	Create(ctx context.Context, s *model.Session) error
	// GetLiveByToken возвращает неистёкшую сессию по токену.
	// Истёкшая или отсутствующая строка → ErrNotFound.
	GetLiveByToken(ctx context.Context, token string) (*model.Session, error)
	// DeleteByToken удаляет сессию по токену. Идемпотентна:
	// отсутствие строки не считается ошибкой.
	DeleteByToken(ctx context.Context, token string) error
	// DeleteByUser удаляет все сессии пользователя (принудительный
	// выход везде). Возвращает число удалённых строк.
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
}

// sessionRepo — реализация SessionRepository.
type sessionRepo struct {
	db DBTX
}

// NewSessionRepository создаёт репозиторий сессий.
func NewSessionRepository(db DBTX) SessionRepository {
	return &sessionRepo{db: db}
}

const sessionColumns = `id, user_id, token, expires_at, created_at`

func (r *sessionRepo) Create(ctx context.Context, s *model.Session) error {
	query := `
		INSERT INTO sessions (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query, s.UserID, s.Token, s.ExpiresAt).
		Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: токен сессии уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка сохранения сессии: %w", err)
	}
	return nil
}

func (r *sessionRepo) GetLiveByToken(ctx context.Context, token string) (*model.Session, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM sessions WHERE token = $1 AND expires_at > now()`,
		sessionColumns)

	s := &model.Session{}
	err := r.db.QueryRow(ctx, query, token).
		Scan(&s.ID, &s.UserID, &s.Token, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска сессии: %w", err)
	}
	return s, nil
}

func (r *sessionRepo) DeleteByToken(ctx context.Context, token string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("ошибка удаления сессии: %w", err)
	}
	return nil
}

func (r *sessionRepo) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления сессий пользователя: %w", err)
	}
	return tag.RowsAffected(), nil
}
