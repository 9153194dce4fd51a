// auth.go — обработчики входа и самостоятельной смены пароля.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	apierrors "github.com/wannav/dashboard/internal/api/errors"
	"github.com/wannav/dashboard/internal/api/middleware"
	"github.com/wannav/dashboard/internal/service"
)

// loginRequest — тело запроса POST /api/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse — тело успешного ответа на вход.
type loginResponse struct {
	Success  bool   `json:"success"`
	Username string `json:"username"`
}

// Login — POST /api/login. Проверяет учётные данные и устанавливает
// session cookie. Ошибка всегда одинакова для несуществующего
// пользователя и неверного пароля.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса")
		return
	}
	if req.Username == "" || req.Password == "" {
		apierrors.Unauthorized(w, service.ErrInvalidCredentials.Error())
		return
	}

	user, token, err := h.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Error("ошибка входа", "username", req.Username, "error", err)
		}
		apierrors.FromService(w, err)
		return
	}

	h.cookies.Set(w, token)
	writeJSON(w, http.StatusOK, loginResponse{Success: true, Username: user.Username})
}

// changePasswordRequest — тело запроса POST /api/change-password.
type changePasswordRequest struct {
	Password string `json:"password"`
}

// ChangePassword — POST /api/change-password. Меняет пароль текущего
// пользователя и снимает флаг обязательной смены.
func (h *APIHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		apierrors.Unauthorized(w, service.ErrUnauthenticated.Error())
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса")
		return
	}

	if err := h.authSvc.ChangeOwnPassword(r.Context(), user.ID, req.Password); err != nil {
		if !errors.Is(err, service.ErrValidation) {
			h.logger.Error("ошибка смены пароля", "user_id", user.ID, "error", err)
		}
		apierrors.FromService(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
