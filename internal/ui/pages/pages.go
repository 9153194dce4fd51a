// Пакет pages — HTML-страницы панели на html/template.
// Шаблоны встроены в бинарник; каждая страница собирается из общего
// каркаса base.html и собственного блока content.
package pages

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// Имена страниц для Renderer.Render.
const (
	PageLogin          = "login"
	PageDashboard      = "dashboard"
	PageAdmin          = "admin"
	PageChangePassword = "change_password"
)

// LinkView — ссылка на систему в представлении страницы.
type LinkView struct {
	ID           int64
	Name         string
	URL          string
	Description  string
	OrderIndex   int
	RequiredRole string
	RoleLabel    string
}

// UserView — пользователь в представлении страницы администрирования.
type UserView struct {
	ID                 int64
	Username           string
	Role               string
	RoleLabel          string
	MustChangePassword bool
	Protected          bool
	CreatedAt          string
}

// LoginData — данные страницы входа.
type LoginData struct{}

// DashboardData — данные главной страницы.
type DashboardData struct {
	Username  string
	RoleLabel string
	Links     []LinkView
	CanManage bool
}

// AdminData — данные страницы администрирования.
type AdminData struct {
	Username  string
	RoleLabel string
	Users     []UserView
	Links     []LinkView
}

// ChangePasswordData — данные страницы смены пароля.
type ChangePasswordData struct {
	Forced bool
}

// Renderer рендерит страницы панели. Создаётся один раз при старте;
// ошибка разбора шаблонов фатальна.
type Renderer struct {
	templates map[string]*template.Template
}

// New разбирает встроенные шаблоны и создаёт Renderer.
func New() (*Renderer, error) {
	names := []string{PageLogin, PageDashboard, PageAdmin, PageChangePassword}
	templates := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("разбор шаблона %s: %w", name, err)
		}
		templates[name] = t
	}
	return &Renderer{templates: templates}, nil
}

// Render рендерит страницу name с данными data.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("неизвестная страница %q", name)
	}
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		return fmt.Errorf("рендеринг страницы %s: %w", name, err)
	}
	return nil
}
