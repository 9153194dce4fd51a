// Пакет handlers — HTTP-обработчики HTML-страниц панели.
// Страницы — тонкая обёртка над сервисным слоем: обработчик собирает
// данные и отдаёт их шаблону, вся логика живёт в service.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/wannav/dashboard/internal/api/middleware"
	"github.com/wannav/dashboard/internal/auth"
	"github.com/wannav/dashboard/internal/domain/model"
	"github.com/wannav/dashboard/internal/domain/rbac"
	"github.com/wannav/dashboard/internal/service"
	"github.com/wannav/dashboard/internal/ui/pages"
)

// PageHandler — обработчик HTML-страниц панели.
type PageHandler struct {
	renderer *pages.Renderer
	authSvc  *service.AuthService
	users    *service.UserService
	links    *service.LinkService
	cookies  *auth.CookieManager
	logger   *slog.Logger
}

// NewPageHandler создаёт обработчик HTML-страниц.
func NewPageHandler(
	renderer *pages.Renderer,
	authSvc *service.AuthService,
	users *service.UserService,
	links *service.LinkService,
	cookies *auth.CookieManager,
	logger *slog.Logger,
) *PageHandler {
	return &PageHandler{
		renderer: renderer,
		authSvc:  authSvc,
		users:    users,
		links:    links,
		cookies:  cookies,
		logger:   logger.With(slog.String("component", "ui_handler")),
	}
}

// render пишет страницу в ответ; ошибка рендеринга — 500.
func (h *PageHandler) render(w http.ResponseWriter, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Render(w, page, data); err != nil {
		h.logger.Error("ошибка рендеринга страницы", "page", page, "error", err)
		http.Error(w, "Ошибка рендеринга страницы", http.StatusInternalServerError)
	}
}

// HandleLogin — GET /login. Уже аутентифицированных уводит на главную.
func (h *PageHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r); token != "" {
		if _, err := h.authSvc.Validate(r.Context(), token); err == nil {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
	}
	h.render(w, pages.PageLogin, pages.LoginData{})
}

// HandleDashboard — GET /. Показывает ссылки, доступные роли пользователя.
func (h *PageHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	visible, err := h.links.VisibleTo(r.Context(), user)
	if err != nil {
		h.logger.Error("ошибка загрузки ссылок", "username", user.Username, "error", err)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	h.render(w, pages.PageDashboard, pages.DashboardData{
		Username:  user.Username,
		RoleLabel: rbac.Label(user.Role),
		Links:     linkViews(visible),
		CanManage: rbac.HasPermission(user.Role, rbac.RoleLeader),
	})
}

// HandleAdmin — GET /admin. Таблица пользователей и весь реестр систем.
// Маршрут защищён RequireRole(лидер+).
func (h *PageHandler) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	allUsers, err := h.users.List(r.Context(), user)
	if err != nil {
		h.logger.Error("ошибка загрузки пользователей", "username", user.Username, "error", err)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}
	allLinks, err := h.links.ListAll(r.Context(), user)
	if err != nil {
		h.logger.Error("ошибка загрузки реестра", "username", user.Username, "error", err)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	userViews := make([]pages.UserView, 0, len(allUsers))
	for _, u := range allUsers {
		userViews = append(userViews, pages.UserView{
			ID:                 u.ID,
			Username:           u.Username,
			Role:               u.Role.String(),
			RoleLabel:          rbac.Label(u.Role),
			MustChangePassword: u.MustChangePassword,
			Protected:          u.IsProtected(),
			CreatedAt:          u.CreatedAt.Format("2006-01-02"),
		})
	}

	h.render(w, pages.PageAdmin, pages.AdminData{
		Username:  user.Username,
		RoleLabel: rbac.Label(user.Role),
		Users:     userViews,
		Links:     linkViews(allLinks),
	})
}

// HandleChangePassword — GET /change-password.
func (h *PageHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	h.render(w, pages.PageChangePassword, pages.ChangePasswordData{
		Forced: user.MustChangePassword,
	})
}

// HandleLogout — GET /logout. Отзывает сессию, стирает cookie и
// уводит на страницу входа. Идемпотентен.
func (h *PageHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r); token != "" {
		if err := h.authSvc.Logout(r.Context(), token); err != nil {
			h.logger.Error("ошибка выхода", "error", err)
		}
	}
	h.cookies.Clear(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// linkViews преобразует ссылки в представление для шаблонов.
func linkViews(links []*model.SystemLink) []pages.LinkView {
	views := make([]pages.LinkView, 0, len(links))
	for _, l := range links {
		views = append(views, pages.LinkView{
			ID:           l.ID,
			Name:         l.Name,
			URL:          l.URL,
			Description:  l.Description,
			OrderIndex:   l.OrderIndex,
			RequiredRole: l.RequiredRole.String(),
			RoleLabel:    rbac.Label(l.RequiredRole),
		})
	}
	return views
}
