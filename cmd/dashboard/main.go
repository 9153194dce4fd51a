// Точка входа панели WannaV Dashboard.
// Загружает конфигурацию, применяет миграции схемы, подключается к
// PostgreSQL, приводит данные к актуальной модели (роли, защищённая
// учётная запись, стартовый реестр), создаёт сервисный слой и
// HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/wannav/dashboard/internal/api/handlers"
	"github.com/wannav/dashboard/internal/api/middleware"
	"github.com/wannav/dashboard/internal/auth"
	"github.com/wannav/dashboard/internal/config"
	"github.com/wannav/dashboard/internal/database"
	"github.com/wannav/dashboard/internal/repository"
	"github.com/wannav/dashboard/internal/server"
	"github.com/wannav/dashboard/internal/service"
	uihandlers "github.com/wannav/dashboard/internal/ui/handlers"
	"github.com/wannav/dashboard/internal/ui/pages"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("WannaV Dashboard запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if cfg.JWTSecret == config.DefaultJWTSecret {
		logger.Warn("WD_JWT_SECRET не задан, используется значение по умолчанию — " +
			"недопустимо вне локальной разработки")
	}

	// 3. Применение миграций схемы. Без актуальной схемы процесс
	// обслуживать запросы не может — ошибка фатальна.
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5. Repositories
	userRepo := repository.NewUserRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	linkRepo := repository.NewSystemLinkRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	// 6. Токены и cookie сессий
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL)
	cookies := auth.NewCookieManager(cfg.SecureCookie, cfg.SessionTTL)

	// 7. Services
	authSvc := service.NewAuthService(userRepo, sessionRepo, tokens, logger)
	userSvc := service.NewUserService(userRepo, sessionRepo, txRunner, logger)
	linkSvc := service.NewLinkService(linkRepo, logger)

	// 8. Подготовка данных: миграция ролей, защищённая учётная запись,
	// стартовый реестр. Ошибки не фатальны — сервис поднимается и на
	// частично подготовленных данных.
	bootstrap := service.NewBootstrapService(userRepo, linkRepo, logger)
	if err := bootstrap.Run(ctx); err != nil {
		logger.Warn("Подготовка данных завершилась с ошибками", slog.String("error", err.Error()))
	}

	// 9. Handlers
	pgChecker := database.NewReadinessChecker(pool)
	healthHandler := handlers.NewHealthHandler(pgChecker)
	apiHandler := handlers.NewAPIHandler(healthHandler, authSvc, userSvc, linkSvc, cookies, logger)

	renderer, err := pages.New()
	if err != nil {
		logger.Error("Ошибка разбора HTML-шаблонов", slog.String("error", err.Error()))
		os.Exit(1)
	}
	uiHandler := uihandlers.NewPageHandler(renderer, authSvc, userSvc, linkSvc, cookies, logger)

	// 10. Session middleware
	sessionAuth := middleware.NewSessionAuth(authSvc, cookies, logger)

	// 11. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, uiHandler, sessionAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("WannaV Dashboard остановлен")
}
