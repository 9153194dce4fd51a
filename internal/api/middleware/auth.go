// Пакет middleware — HTTP middleware панели: проверка сессии,
// принудительная смена пароля, контроль ролей, Prometheus-метрики.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/wannav/dashboard/internal/api/errors"
	"github.com/wannav/dashboard/internal/auth"
	"github.com/wannav/dashboard/internal/domain/model"
	"github.com/wannav/dashboard/internal/domain/rbac"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// ContextKeyUser — аутентифицированный пользователь в контексте запроса.
const ContextKeyUser contextKey = "current_user"

// UserValidator проверяет токен сессии и возвращает актуального
// пользователя. Реализуется сервисом аутентификации.
type UserValidator interface {
	Validate(ctx context.Context, token string) (*model.User, error)
}

// SessionAuth — middleware аутентификации по session cookie.
// Невалидная сессия очищает cookie и уводит на страницу входа:
// как для страниц, так и для JSON-эндпоинтов — клиент панели
// единый и обрабатывает redirect сам.
type SessionAuth struct {
	validator UserValidator
	cookies   *auth.CookieManager
	logger    *slog.Logger
}

// NewSessionAuth создает middleware аутентификации.
func NewSessionAuth(validator UserValidator, cookies *auth.CookieManager, logger *slog.Logger) *SessionAuth {
	return &SessionAuth{
		validator: validator,
		cookies:   cookies,
		logger:    logger.With("component", "session-auth"),
	}
}

// Middleware проверяет сессию и помещает пользователя в контекст.
func (sa *SessionAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.TokenFromRequest(r)
			user, err := sa.validator.Validate(r.Context(), token)
			if err != nil {
				sa.logger.Debug("сессия отклонена",
					"path", r.URL.Path, "remote_addr", r.RemoteAddr, "error", err)
				sa.cookies.Clear(w)
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// passwordGateExempt — пути, доступные с непогашенным флагом
// обязательной смены пароля. Иначе сменить пароль было бы невозможно.
var passwordGateExempt = map[string]struct{}{
	"/change-password":     {},
	"/api/change-password": {},
	"/logout":              {},
}

// PasswordGate уводит пользователя с обязательной сменой пароля на
// страницу смены. Ставится после SessionAuth.
func PasswordGate() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user != nil && user.MustChangePassword {
				if _, ok := passwordGateExempt[r.URL.Path]; !ok {
					http.Redirect(w, r, "/change-password", http.StatusFound)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole пропускает только пользователей с ролью не ниже required.
// Ставится после SessionAuth; отказ — 403 в формате JSON API.
func RequireRole(required rbac.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				errors.Unauthorized(w, "требуется аутентификация")
				return
			}
			if !rbac.HasPermission(user.Role, required) {
				errors.Forbidden(w, "недостаточно прав")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext извлекает пользователя из контекста запроса.
// Возвращает nil, если запрос не прошёл через SessionAuth.
func UserFromContext(ctx context.Context) *model.User {
	user, ok := ctx.Value(ContextKeyUser).(*model.User)
	if !ok {
		return nil
	}
	return user
}
