package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/wannav/dashboard/internal/domain/model"
	"github.com/wannav/dashboard/internal/domain/rbac"
	"github.com/wannav/dashboard/internal/repository"
)

// LinkInput — входные данные создания или изменения ссылки на систему.
type LinkInput struct {
	Name         string
	URL          string
	Description  string
	OrderIndex   int
	RequiredRole string
}

// validate проверяет входные данные и возвращает разобранную роль.
// Пустая роль означает минимальную: ссылка видна всем.
func (in *LinkInput) validate() (rbac.Role, error) {
	if strings.TrimSpace(in.Name) == "" {
		return 0, fmt.Errorf("%w: пустое название системы", ErrValidation)
	}
	if strings.TrimSpace(in.URL) == "" {
		return 0, fmt.Errorf("%w: пустой URL", ErrValidation)
	}
	if u, err := url.Parse(in.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return 0, fmt.Errorf("%w: некорректный URL %q", ErrValidation, in.URL)
	}
	if in.RequiredRole == "" {
		return rbac.RoleCrew, nil
	}
	role, err := rbac.Parse(in.RequiredRole)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRole, in.RequiredRole)
	}
	return role, nil
}

// LinkService реализует реестр ссылок на внутренние системы.
type LinkService struct {
	links  repository.SystemLinkRepository
	logger *slog.Logger
}

// NewLinkService создает сервис реестра систем.
func NewLinkService(links repository.SystemLinkRepository, logger *slog.Logger) *LinkService {
	return &LinkService{
		links:  links,
		logger: logger.With("component", "link-service"),
	}
}

// VisibleTo возвращает ссылки, доступные пользователю по его роли,
// в порядке order_index. Фильтрация выполняется на каждый запрос:
// смена роли меняет набор ссылок немедленно.
func (s *LinkService) VisibleTo(ctx context.Context, user *model.User) ([]*model.SystemLink, error) {
	all, err := s.links.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("список систем: %w", err)
	}
	visible := make([]*model.SystemLink, 0, len(all))
	for _, l := range all {
		if l.VisibleTo(user.Role) {
			visible = append(visible, l)
		}
	}
	return visible, nil
}

// ListAll возвращает весь реестр без фильтрации. Доступно с роли
// лидера и выше — для страницы администрирования.
func (s *LinkService) ListAll(ctx context.Context, acting *model.User) ([]*model.SystemLink, error) {
	if !rbac.HasPermission(acting.Role, rbac.RoleLeader) {
		return nil, ErrForbidden
	}
	all, err := s.links.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("список систем: %w", err)
	}
	return all, nil
}

// Create добавляет ссылку в реестр. Доступно с роли лидера и выше.
func (s *LinkService) Create(ctx context.Context, acting *model.User, in LinkInput) (*model.SystemLink, error) {
	if !rbac.HasPermission(acting.Role, rbac.RoleLeader) {
		return nil, ErrForbidden
	}
	role, err := in.validate()
	if err != nil {
		return nil, err
	}

	link := &model.SystemLink{
		Name:         strings.TrimSpace(in.Name),
		URL:          strings.TrimSpace(in.URL),
		Description:  strings.TrimSpace(in.Description),
		OrderIndex:   in.OrderIndex,
		RequiredRole: role,
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("создание ссылки: %w", err)
	}

	s.logger.Info("ссылка добавлена", "actor", acting.Username, "name", link.Name)
	return link, nil
}

// Update заменяет все изменяемые поля ссылки. Доступно с роли лидера и выше.
func (s *LinkService) Update(ctx context.Context, acting *model.User, id int64, in LinkInput) (*model.SystemLink, error) {
	if !rbac.HasPermission(acting.Role, rbac.RoleLeader) {
		return nil, ErrForbidden
	}
	role, err := in.validate()
	if err != nil {
		return nil, err
	}

	link, err := s.links.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("чтение ссылки: %w", err)
	}

	link.Name = strings.TrimSpace(in.Name)
	link.URL = strings.TrimSpace(in.URL)
	link.Description = strings.TrimSpace(in.Description)
	link.OrderIndex = in.OrderIndex
	link.RequiredRole = role
	if err := s.links.Update(ctx, link); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("обновление ссылки: %w", err)
	}

	s.logger.Info("ссылка обновлена", "actor", acting.Username, "id", id, "name", link.Name)
	return link, nil
}

// Delete удаляет ссылку из реестра. Доступно с роли лидера и выше.
func (s *LinkService) Delete(ctx context.Context, acting *model.User, id int64) error {
	if !rbac.HasPermission(acting.Role, rbac.RoleLeader) {
		return ErrForbidden
	}
	if err := s.links.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("удаление ссылки: %w", err)
	}
	s.logger.Info("ссылка удалена", "actor", acting.Username, "id", id)
	return nil
}
