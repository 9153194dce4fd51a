// admin_users.go — административные обработчики управления пользователями.
// Все маршруты защищены RequireRole(лидер+) на уровне роутера;
// сервисный слой дублирует проверку.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/wannav/dashboard/internal/api/errors"
	"github.com/wannav/dashboard/internal/api/middleware"
	"github.com/wannav/dashboard/internal/service"
)

// idParam извлекает числовой параметр {id} из маршрута.
func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// createUserRequest — тело запроса POST /api/admin/users.
type createUserRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// createUserResponse — тело успешного ответа на создание пользователя.
type createUserResponse struct {
	Success bool  `json:"success"`
	UserID  int64 `json:"userId"`
}

// CreateUser — POST /api/admin/users. Создаёт пользователя с паролем
// по умолчанию и обязательной его сменой.
func (h *APIHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	acting := middleware.UserFromContext(r.Context())
	if acting == nil {
		apierrors.Unauthorized(w, service.ErrUnauthenticated.Error())
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса")
		return
	}

	user, err := h.users.Create(r.Context(), acting, req.Username, req.Role)
	if err != nil {
		if isInternal(err) {
			h.logger.Error("ошибка создания пользователя", "username", req.Username, "error", err)
		}
		apierrors.FromService(w, err)
		return
	}

	writeJSON(w, http.StatusOK, createUserResponse{Success: true, UserID: user.ID})
}

// resetPasswordRequest — тело запроса PUT /api/admin/users/{id}/password.
type resetPasswordRequest struct {
	Password string `json:"password"`
}

// ResetUserPassword — PUT /api/admin/users/{id}/password. Сбрасывает
// пароль пользователя и отзывает все его сессии.
func (h *APIHandler) ResetUserPassword(w http.ResponseWriter, r *http.Request) {
	acting := middleware.UserFromContext(r.Context())
	if acting == nil {
		apierrors.Unauthorized(w, service.ErrUnauthenticated.Error())
		return
	}

	id, err := idParam(r)
	if err != nil {
		apierrors.ValidationError(w, "некорректный идентификатор пользователя")
		return
	}

	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса")
		return
	}

	if err := h.authSvc.AdminResetPassword(r.Context(), acting, id, req.Password); err != nil {
		if isInternal(err) {
			h.logger.Error("ошибка сброса пароля", "target_id", id, "error", err)
		}
		apierrors.FromService(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// DeleteUser — DELETE /api/admin/users/{id}. Удаляет пользователя
// вместе с его сессиями; защищённая учётная запись даёт 400.
func (h *APIHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	acting := middleware.UserFromContext(r.Context())
	if acting == nil {
		apierrors.Unauthorized(w, service.ErrUnauthenticated.Error())
		return
	}

	id, err := idParam(r)
	if err != nil {
		apierrors.ValidationError(w, "некорректный идентификатор пользователя")
		return
	}

	if err := h.users.Delete(r.Context(), acting, id); err != nil {
		if isInternal(err) {
			h.logger.Error("ошибка удаления пользователя", "target_id", id, "error", err)
		}
		apierrors.FromService(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// isInternal сообщает, является ли ошибка внутренней, а не одной из
// ожидаемых ошибок бизнес-логики. Внутренние ошибки логируются.
func isInternal(err error) bool {
	for _, known := range []error{
		service.ErrInvalidCredentials,
		service.ErrUnauthenticated,
		service.ErrForbidden,
		service.ErrDuplicateUsername,
		service.ErrInvalidRole,
		service.ErrProtectedAccount,
		service.ErrValidation,
		service.ErrNotFound,
	} {
		if errors.Is(err, known) {
			return false
		}
	}
	return true
}
