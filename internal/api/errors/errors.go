// Пакет errors — конструкторы ответов с ошибками JSON API.
// Единый формат: {"error": "..."}. Все HTTP-ответы с ошибками
// должны использовать WriteError или конструкторы этого пакета.
package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wannav/dashboard/internal/service"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error string `json:"error"`
}

// WriteError записывает ответ ошибки в стандартном формате панели.
// statusCode — HTTP статус-код, message — описание для клиента.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{Error: message})
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message)
}

// Forbidden — 403 недостаточно прав.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}

// FromService сопоставляет ошибку сервисного слоя с HTTP-ответом.
// Неопознанные ошибки становятся 500 без деталей: текст внутренних
// ошибок клиенту не раскрываем.
func FromService(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, service.ErrUnauthenticated):
		Unauthorized(w, service.ErrUnauthenticated.Error())
	case errors.Is(err, service.ErrForbidden):
		Forbidden(w, service.ErrForbidden.Error())
	case errors.Is(err, service.ErrDuplicateUsername):
		// Занятое имя — 400, как и прочие отказы валидации формы.
		ValidationError(w, service.ErrDuplicateUsername.Error())
	case errors.Is(err, service.ErrProtectedAccount):
		ValidationError(w, service.ErrProtectedAccount.Error())
	case errors.Is(err, service.ErrInvalidRole), errors.Is(err, service.ErrValidation):
		ValidationError(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		NotFound(w, service.ErrNotFound.Error())
	default:
		InternalError(w, "внутренняя ошибка сервера")
	}
}
