// systems.go — административные обработчики реестра систем.
// Все маршруты защищены RequireRole(лидер+) на уровне роутера.
package handlers

import (
	"encoding/json"
	"net/http"

	apierrors "github.com/wannav/dashboard/internal/api/errors"
	"github.com/wannav/dashboard/internal/api/middleware"
	"github.com/wannav/dashboard/internal/service"
)

// systemRequest — тело запросов создания и изменения ссылки.
type systemRequest struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	Description  string `json:"description"`
	OrderIndex   int    `json:"order_index"`
	RequiredRole string `json:"required_role"`
}

func (req *systemRequest) toInput() service.LinkInput {
	return service.LinkInput{
		Name:         req.Name,
		URL:          req.URL,
		Description:  req.Description,
		OrderIndex:   req.OrderIndex,
		RequiredRole: req.RequiredRole,
	}
}

// createSystemResponse — тело успешного ответа на создание ссылки.
type createSystemResponse struct {
	Success  bool  `json:"success"`
	SystemID int64 `json:"systemId"`
}

// CreateSystem — POST /api/admin/systems. Добавляет ссылку в реестр.
func (h *APIHandler) CreateSystem(w http.ResponseWriter, r *http.Request) {
	acting := middleware.UserFromContext(r.Context())
	if acting == nil {
		apierrors.Unauthorized(w, service.ErrUnauthenticated.Error())
		return
	}

	var req systemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса")
		return
	}

	link, err := h.links.Create(r.Context(), acting, req.toInput())
	if err != nil {
		if isInternal(err) {
			h.logger.Error("ошибка создания ссылки", "name", req.Name, "error", err)
		}
		apierrors.FromService(w, err)
		return
	}

	writeJSON(w, http.StatusOK, createSystemResponse{Success: true, SystemID: link.ID})
}

// UpdateSystem — PUT /api/admin/systems/{id}. Заменяет все поля ссылки.
func (h *APIHandler) UpdateSystem(w http.ResponseWriter, r *http.Request) {
	acting := middleware.UserFromContext(r.Context())
	if acting == nil {
		apierrors.Unauthorized(w, service.ErrUnauthenticated.Error())
		return
	}

	id, err := idParam(r)
	if err != nil {
		apierrors.ValidationError(w, "некорректный идентификатор системы")
		return
	}

	var req systemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса")
		return
	}

	if _, err := h.links.Update(r.Context(), acting, id, req.toInput()); err != nil {
		if isInternal(err) {
			h.logger.Error("ошибка обновления ссылки", "id", id, "error", err)
		}
		apierrors.FromService(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// DeleteSystem — DELETE /api/admin/systems/{id}. Удаляет ссылку из реестра.
func (h *APIHandler) DeleteSystem(w http.ResponseWriter, r *http.Request) {
	acting := middleware.UserFromContext(r.Context())
	if acting == nil {
		apierrors.Unauthorized(w, service.ErrUnauthenticated.Error())
		return
	}

	id, err := idParam(r)
	if err != nil {
		apierrors.ValidationError(w, "некорректный идентификатор системы")
		return
	}

	if err := h.links.Delete(r.Context(), acting, id); err != nil {
		if isInternal(err) {
			h.logger.Error("ошибка удаления ссылки", "id", id, "error", err)
		}
		apierrors.FromService(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
