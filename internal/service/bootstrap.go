package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wannav/dashboard/internal/domain/model"
	"github.com/wannav/dashboard/internal/domain/rbac"
	"github.com/wannav/dashboard/internal/repository"
)

// defaultAdminPassword — пароль защищённой учётной записи при первом
// развёртывании. Подлежит смене сразу после ввода в эксплуатацию.
const defaultAdminPassword = "admin123"

// defaultLinks — стартовый реестр систем. Засевается только в пустую
// таблицу: пользовательские правки реестра при перезапусках не трогаем.
var defaultLinks = []model.SystemLink{
	{
		Name:         "WannaV 延長管理システム",
		URL:          "https://extended-management.onrender.com/",
		OrderIndex:   1,
		RequiredRole: rbac.RoleCrew,
	},
	{
		Name:         "WannaV わなみさん使用ログ分析",
		URL:          "https://wanamisan-monitor.onrender.com/",
		OrderIndex:   2,
		RequiredRole: rbac.RoleCrew,
	},
	{
		Name:         "WannaV成長度リザルトシステム",
		URL:          "https://vtuber-school-evaluation.onrender.com/",
		OrderIndex:   3,
		RequiredRole: rbac.RoleCrew,
	},
	{
		Name:         "発話比率算出AI",
		URL:          "https://speech-ratio-evaluation-ai.onrender.com/",
		OrderIndex:   4,
		RequiredRole: rbac.RoleCrew,
	},
}

// BootstrapService приводит данные к актуальной модели при каждом
// старте. Все шаги идемпотентны; ошибка одного шага не прерывает
// остальные — сервис должен подниматься и на частично мигрированных
// данных.
type BootstrapService struct {
	users  repository.UserRepository
	links  repository.SystemLinkRepository
	logger *slog.Logger
}

// NewBootstrapService создает сервис начальной миграции данных.
func NewBootstrapService(users repository.UserRepository, links repository.SystemLinkRepository,
	logger *slog.Logger) *BootstrapService {
	return &BootstrapService{
		users:  users,
		links:  links,
		logger: logger.With("component", "bootstrap"),
	}
}

// Run выполняет все шаги подготовки данных и возвращает накопленные
// ошибки. Вызывающий решает, что с ними делать; сам Run не фатален.
func (s *BootstrapService) Run(ctx context.Context) error {
	var errs []error

	if n, err := s.users.MigrateLegacyRoles(ctx); err != nil {
		s.logger.Error("миграция устаревших ролей", "error", err)
		errs = append(errs, fmt.Errorf("миграция ролей: %w", err))
	} else if n > 0 {
		s.logger.Info("роли назначены по устаревшему флагу", "users", n)
	}

	if n, err := s.links.DefaultMissingRequiredRole(ctx); err != nil {
		s.logger.Error("назначение роли доступа по умолчанию", "error", err)
		errs = append(errs, fmt.Errorf("роль доступа по умолчанию: %w", err))
	} else if n > 0 {
		s.logger.Info("роль доступа заполнена по умолчанию", "links", n)
	}

	if err := s.ensureAdmin(ctx); err != nil {
		s.logger.Error("подготовка защищённой учётной записи", "error", err)
		errs = append(errs, fmt.Errorf("учётная запись администратора: %w", err))
	}

	if err := s.seedLinks(ctx); err != nil {
		s.logger.Error("засев реестра систем", "error", err)
		errs = append(errs, fmt.Errorf("засев реестра: %w", err))
	}

	return errors.Join(errs...)
}

// ensureAdmin гарантирует существование защищённой учётной записи с
// ролью администратора. Понижение её роли — чем бы оно ни было
// вызвано — откатывается при следующем старте.
func (s *BootstrapService) ensureAdmin(ctx context.Context) error {
	admin, err := s.users.GetByUsername(ctx, model.ProtectedUsername)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		hash, err := hashPassword(defaultAdminPassword)
		if err != nil {
			return err
		}
		u := &model.User{
			Username:     model.ProtectedUsername,
			PasswordHash: hash,
			Role:         rbac.RoleAdmin,
		}
		if err := s.users.Create(ctx, u); err != nil {
			// Гонка с параллельным экземпляром: кто-то уже создал.
			if errors.Is(err, repository.ErrConflict) {
				return nil
			}
			return fmt.Errorf("создание: %w", err)
		}
		s.logger.Info("создана учётная запись администратора",
			"username", model.ProtectedUsername)
		return nil
	case err != nil:
		return fmt.Errorf("поиск: %w", err)
	}

	if admin.Role != rbac.RoleAdmin {
		if err := s.users.ForceRole(ctx, model.ProtectedUsername, rbac.RoleAdmin); err != nil {
			return fmt.Errorf("восстановление роли: %w", err)
		}
		s.logger.Warn("роль администратора восстановлена",
			"username", model.ProtectedUsername, "was", admin.Role.String())
	}
	return nil
}

// seedLinks засевает стартовый реестр систем, если таблица пуста.
func (s *BootstrapService) seedLinks(ctx context.Context) error {
	n, err := s.links.Count(ctx)
	if err != nil {
		return fmt.Errorf("подсчёт: %w", err)
	}
	if n > 0 {
		return nil
	}

	for i := range defaultLinks {
		link := defaultLinks[i]
		if err := s.links.Create(ctx, &link); err != nil {
			return fmt.Errorf("создание %q: %w", link.Name, err)
		}
	}
	s.logger.Info("реестр систем засеян", "links", len(defaultLinks))
	return nil
}
