package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wannav/dashboard/internal/service"
)

// decodeError разбирает тело ответа ошибки и возвращает текст.
func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("тело ответа не разбирается: %v", err)
	}
	return body.Error
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusTeapot, "чайник")

	if rec.Code != http.StatusTeapot {
		t.Errorf("статус = %d, ожидался %d", rec.Code, http.StatusTeapot)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, ожидался application/json", ct)
	}
	if got := decodeError(t, rec); got != "чайник" {
		t.Errorf("error = %q, ожидался %q", got, "чайник")
	}
}

// TestFromService — каждая ошибка бизнес-логики отображается на свой
// статус-код; текст ошибки попадает в тело без изменений.
func TestFromService(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"неверные учётные данные", service.ErrInvalidCredentials, http.StatusUnauthorized, service.ErrInvalidCredentials.Error()},
		{"нет аутентификации", service.ErrUnauthenticated, http.StatusUnauthorized, service.ErrUnauthenticated.Error()},
		{"недостаточно прав", service.ErrForbidden, http.StatusForbidden, service.ErrForbidden.Error()},
		{"занятое имя", service.ErrDuplicateUsername, http.StatusBadRequest, service.ErrDuplicateUsername.Error()},
		{"защищённая учётная запись", service.ErrProtectedAccount, http.StatusBadRequest, service.ErrProtectedAccount.Error()},
		{"недопустимая роль", service.ErrInvalidRole, http.StatusBadRequest, service.ErrInvalidRole.Error()},
		{"ошибка валидации", service.ErrValidation, http.StatusBadRequest, service.ErrValidation.Error()},
		{"не найдено", service.ErrNotFound, http.StatusNotFound, service.ErrNotFound.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			FromService(rec, tt.err)

			if rec.Code != tt.wantCode {
				t.Errorf("статус = %d, ожидался %d", rec.Code, tt.wantCode)
			}
			if got := decodeError(t, rec); got != tt.wantBody {
				t.Errorf("error = %q, ожидался %q", got, tt.wantBody)
			}
		})
	}
}

// TestFromService_WrappedError — обёрнутые ошибки (%w) сохраняют
// отображение и несут уточнённый текст.
func TestFromService_WrappedError(t *testing.T) {
	wrapped := fmt.Errorf("%w: пароль короче 4 символов", service.ErrValidation)

	rec := httptest.NewRecorder()
	FromService(rec, wrapped)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("статус = %d, ожидался 400", rec.Code)
	}
	if got := decodeError(t, rec); got != wrapped.Error() {
		t.Errorf("error = %q, ожидался %q", got, wrapped.Error())
	}
}

// TestFromService_UnknownError — неопознанная ошибка становится 500,
// её текст клиенту не раскрывается.
func TestFromService_UnknownError(t *testing.T) {
	internal := fmt.Errorf("pq: connection refused")

	rec := httptest.NewRecorder()
	FromService(rec, internal)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("статус = %d, ожидался 500", rec.Code)
	}
	if got := decodeError(t, rec); got == internal.Error() {
		t.Error("текст внутренней ошибки не должен попадать в ответ")
	}
}
