package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/wannav/dashboard/internal/auth"
	"github.com/wannav/dashboard/internal/domain/model"
	"github.com/wannav/dashboard/internal/domain/rbac"
	"github.com/wannav/dashboard/internal/repository"
)

// bcryptCost — стоимость хеширования паролей.
const bcryptCost = 10

// MinPasswordLen — минимальная длина пароля при самостоятельной смене.
const MinPasswordLen = 4

// hashPassword хеширует пароль bcrypt-ом с фиксированной стоимостью.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("хеширование пароля: %w", err)
	}
	return string(hash), nil
}

// AuthService реализует вход, проверку сессий и смену паролей.
// Подписанный токен лишь идентифицирует сессию; источником истины
// об отзыве служит строка в таблице sessions.
type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   *auth.TokenManager
	logger   *slog.Logger
}

// NewAuthService создает сервис аутентификации.
func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository,
	tokens *auth.TokenManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		logger:   logger.With("component", "auth-service"),
	}
}

// Login проверяет учётные данные и создает новую сессию.
// Возвращает пользователя и подписанный токен для cookie.
// Существующие сессии пользователя не трогает: параллельные входы допустимы.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("поиск пользователя: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("выпуск токена: %w", err)
	}

	if err := s.sessions.Create(ctx, &model.Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, "", fmt.Errorf("создание сессии: %w", err)
	}

	s.logger.Info("вход выполнен", "username", user.Username, "role", user.Role.String())
	return user, token, nil
}

// Validate проверяет токен запроса и возвращает актуального пользователя.
// Любой дефект токена, отсутствие живой сессии или пользователя дают
// ErrUnauthenticated. Пользователь читается из базы при каждом вызове:
// смена роли или удаление учётной записи действуют немедленно.
func (s *AuthService) Validate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	sess, err := s.sessions.GetLiveByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("поиск сессии: %w", err)
	}
	if sess.UserID != userID {
		// Токен подписан для другого пользователя. Такого не бывает
		// без компрометации секрета, поэтому сессию отзываем.
		_ = s.sessions.DeleteByToken(ctx, token)
		return nil, ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("чтение пользователя: %w", err)
	}
	return user, nil
}

// Logout отзывает сессию по токену. Повторный выход и выход
// с неизвестным токеном не являются ошибкой.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteByToken(ctx, token); err != nil {
		return fmt.Errorf("удаление сессии: %w", err)
	}
	return nil
}

// ChangeOwnPassword меняет пароль самого пользователя и снимает флаг
// обязательной смены. Прочие сессии пользователя остаются живыми.
func (s *AuthService) ChangeOwnPassword(ctx context.Context, userID int64, newPassword string) error {
	// Длина считается в символах, не в байтах: "ああ" — 2 символа.
	if utf8.RuneCountInString(newPassword) < MinPasswordLen {
		return fmt.Errorf("%w: пароль короче %d символов", ErrValidation, MinPasswordLen)
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash, false); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnauthenticated
		}
		return fmt.Errorf("обновление пароля: %w", err)
	}

	s.logger.Info("пароль изменён пользователем", "user_id", userID)
	return nil
}

// AdminResetPassword сбрасывает пароль другого пользователя.
// Доступно с роли лидера и выше. Все сессии целевого пользователя
// отзываются: старый пароль больше не подтверждает ни одну из них.
func (s *AuthService) AdminResetPassword(ctx context.Context, acting *model.User, targetID int64, newPassword string) error {
	if !rbac.HasPermission(acting.Role, rbac.RoleLeader) {
		return ErrForbidden
	}
	if newPassword == "" {
		return fmt.Errorf("%w: пустой пароль", ErrValidation)
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("чтение пользователя: %w", err)
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, target.ID, hash, target.MustChangePassword); err != nil {
		return fmt.Errorf("обновление пароля: %w", err)
	}

	revoked, err := s.sessions.DeleteByUser(ctx, target.ID)
	if err != nil {
		return fmt.Errorf("отзыв сессий: %w", err)
	}

	s.logger.Info("пароль сброшен администратором",
		"actor", acting.Username, "target", target.Username, "sessions_revoked", revoked)
	return nil
}
