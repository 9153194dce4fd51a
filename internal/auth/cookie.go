package auth

import (
	"net/http"
	"time"
)

// CookieName — имя cookie с токеном сессии.
// Имя наследуется от предыдущих версий дашборда.
const CookieName = "auth_token"

// CookieManager устанавливает и удаляет session cookie.
// Cookie всегда HttpOnly и SameSite=Lax с путём "/"; Secure-флаг
// отключается только для локальной разработки по HTTP.
type CookieManager struct {
	secure bool
	maxAge int
}

// NewCookieManager создаёт менеджер session cookie.
// ttl задаёт Max-Age cookie и должен совпадать со сроком жизни токена.
func NewCookieManager(secure bool, ttl time.Duration) *CookieManager {
	return &CookieManager{
		secure: secure,
		maxAge: int(ttl.Seconds()),
	}
}

// Set устанавливает session cookie с токеном в ответ.
func (cm *CookieManager) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   cm.maxAge,
		HttpOnly: true,
		Secure:   cm.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear удаляет session cookie из браузера (logout).
func (cm *CookieManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cm.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest извлекает токен сессии из cookie запроса.
// Возвращает пустую строку, если cookie отсутствует.
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
