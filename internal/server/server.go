// Пакет server — HTTP-сервер панели с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на внешнем прокси.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wannav/dashboard/internal/api/handlers"
	"github.com/wannav/dashboard/internal/api/middleware"
	"github.com/wannav/dashboard/internal/config"
	"github.com/wannav/dashboard/internal/domain/rbac"
	uihandlers "github.com/wannav/dashboard/internal/ui/handlers"
)

// Server — HTTP-сервер панели.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными маршрутами и middleware.
// Публичные маршруты: вход, health, metrics. Остальное — за сессией,
// шлюзом обязательной смены пароля и, для администрирования, ролью.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	api *handlers.APIHandler,
	ui *uihandlers.PageHandler,
	session *middleware.SessionAuth,
) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Публичные маршруты
	router.Get("/health/live", api.HealthLive)
	router.Get("/health/ready", api.HealthReady)
	router.Get("/metrics", api.GetMetrics)
	router.Get("/login", ui.HandleLogin)
	router.Post("/api/login", api.Login)
	router.Get("/logout", ui.HandleLogout)

	// Защищённые маршруты
	router.Group(func(r chi.Router) {
		r.Use(session.Middleware())
		r.Use(middleware.PasswordGate())

		r.Get("/", ui.HandleDashboard)
		r.Get("/change-password", ui.HandleChangePassword)
		r.Post("/api/change-password", api.ChangePassword)

		// Администрирование — с роли лидера и выше
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(rbac.RoleLeader))

			r.Get("/admin", ui.HandleAdmin)
			r.Post("/api/admin/users", api.CreateUser)
			r.Put("/api/admin/users/{id}/password", api.ResetUserPassword)
			r.Delete("/api/admin/users/{id}", api.DeleteUser)
			r.Post("/api/admin/systems", api.CreateSystem)
			r.Put("/api/admin/systems/{id}", api.UpdateSystem)
			r.Delete("/api/admin/systems/{id}", api.DeleteSystem)
		})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
