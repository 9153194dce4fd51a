// handler.go — основной обработчик JSON API панели.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/wannav/dashboard/internal/auth"
	"github.com/wannav/dashboard/internal/service"
)

// APIHandler — основной обработчик JSON API панели.
type APIHandler struct {
	health  *HealthHandler
	authSvc *service.AuthService
	users   *service.UserService
	links   *service.LinkService
	cookies *auth.CookieManager
	logger  *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	authSvc *service.AuthService,
	users *service.UserService,
	links *service.LinkService,
	cookies *auth.CookieManager,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:  health,
		authSvc: authSvc,
		users:   users,
		links:   links,
		cookies: cookies,
		logger:  logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// successResponse — тело успешного ответа без дополнительных данных.
type successResponse struct {
	Success bool `json:"success"`
}
