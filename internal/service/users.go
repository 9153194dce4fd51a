package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/wannav/dashboard/internal/domain/model"
	"github.com/wannav/dashboard/internal/domain/rbac"
	"github.com/wannav/dashboard/internal/repository"
)

// DefaultUserPassword — пароль, выдаваемый каждому новому пользователю.
// При первом входе пользователь обязан его сменить.
const DefaultUserPassword = "1111"

// UserService реализует административные операции над пользователями.
// Все операции доступны с роли лидера и выше.
type UserService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tx       *repository.TxRunner
	logger   *slog.Logger
}

// NewUserService создает сервис управления пользователями.
func NewUserService(users repository.UserRepository, sessions repository.SessionRepository,
	tx *repository.TxRunner, logger *slog.Logger) *UserService {
	return &UserService{
		users:    users,
		sessions: sessions,
		tx:       tx,
		logger:   logger.With("component", "user-service"),
	}
}

// List возвращает всех пользователей в порядке создания.
func (s *UserService) List(ctx context.Context, acting *model.User) ([]*model.User, error) {
	if !rbac.HasPermission(acting.Role, rbac.RoleLeader) {
		return nil, ErrForbidden
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("список пользователей: %w", err)
	}
	return users, nil
}

// Create заводит пользователя с паролем по умолчанию и обязательной
// его сменой при первом входе. Уникальность имени гарантирует
// ограничение в базе: при гонке двух создателей побеждает ровно один.
func (s *UserService) Create(ctx context.Context, acting *model.User, username, roleName string) (*model.User, error) {
	if !rbac.HasPermission(acting.Role, rbac.RoleLeader) {
		return nil, ErrForbidden
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: пустое имя пользователя", ErrValidation)
	}
	role, err := rbac.Parse(roleName)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, roleName)
	}

	hash, err := hashPassword(DefaultUserPassword)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		// Защищённая учётная запись входит с известным паролем
		// из процедуры восстановления, смену ей не навязываем.
		MustChangePassword: username != model.ProtectedUsername,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}

	s.logger.Info("пользователь создан",
		"actor", acting.Username, "username", user.Username, "role", role.String())
	return user, nil
}

// Delete удаляет пользователя вместе с его сессиями в одной транзакции.
// Защищённую учётную запись удалить нельзя.
func (s *UserService) Delete(ctx context.Context, acting *model.User, targetID int64) error {
	if !rbac.HasPermission(acting.Role, rbac.RoleLeader) {
		return ErrForbidden
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("чтение пользователя: %w", err)
	}
	if target.IsProtected() {
		return ErrProtectedAccount
	}

	err = s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		if _, err := repository.NewSessionRepository(tx).DeleteByUser(ctx, target.ID); err != nil {
			return fmt.Errorf("удаление сессий: %w", err)
		}
		if err := repository.NewUserRepository(tx).Delete(ctx, target.ID); err != nil {
			return fmt.Errorf("удаление пользователя: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("пользователь удалён", "actor", acting.Username, "target", target.Username)
	return nil
}
