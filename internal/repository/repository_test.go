package repository

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/wannav/dashboard/internal/config"
	"github.com/wannav/dashboard/internal/database"
	"github.com/wannav/dashboard/internal/domain/model"
	"github.com/wannav/dashboard/internal/domain/rbac"
)

// setupTestDB запускает PostgreSQL контейнер, применяет миграции.
// Возвращает pgxpool.Pool; контейнер и пул закрываются через t.Cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	cfg := setupTestConfig(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	pool, err := database.Connect(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool
}

// setupTestConfig запускает PostgreSQL контейнер и настраивает env
// для config.Load(). Миграции НЕ применяет.
func setupTestConfig(t *testing.T) *config.Config {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("dashboard_test"),
		postgres.WithUsername("dashboard"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	t.Setenv("WD_DB_HOST", host)
	t.Setenv("WD_DB_PORT", port.Port())
	t.Setenv("WD_DB_NAME", "dashboard_test")
	t.Setenv("WD_DB_USER", "dashboard")
	t.Setenv("WD_DB_PASSWORD", "test-password")
	t.Setenv("WD_DB_SSL_MODE", "disable")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}
	return cfg
}

// TestMigrateIdempotent — повторный прогон миграций не меняет схему
// и не ошибается: N прогонов эквивалентны одному.
func TestMigrateIdempotent(t *testing.T) {
	cfg := setupTestConfig(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	for i := 0; i < 3; i++ {
		if err := database.Migrate(cfg, logger); err != nil {
			t.Fatalf("Migrate() прогон %d: %v", i+1, err)
		}
	}

	pool, err := database.Connect(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	defer pool.Close()

	// После миграций все три таблицы существуют и доступны.
	ctx := context.Background()
	for _, table := range []string{"users", "systems", "sessions"} {
		var n int
		if err := pool.QueryRow(ctx, "SELECT count(*) FROM "+table).Scan(&n); err != nil {
			t.Errorf("таблица %s недоступна: %v", table, err)
		}
	}
}

// --- Тесты UserRepository ---

func TestUserRepository_CRUD(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(pool)

	u := &model.User{
		Username:           "ivanov",
		PasswordHash:       "$2a$10$fakehash",
		Role:               rbac.RoleCrew,
		MustChangePassword: true,
	}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if u.ID == 0 {
		t.Error("ID не присвоен")
	}
	if u.CreatedAt.IsZero() {
		t.Error("CreatedAt не установлен")
	}

	got, err := repo.GetByUsername(ctx, "ivanov")
	if err != nil {
		t.Fatalf("GetByUsername() ошибка: %v", err)
	}
	if got.ID != u.ID || got.Role != rbac.RoleCrew || !got.MustChangePassword {
		t.Errorf("GetByUsername() = %+v, ожидался %+v", got, u)
	}

	// Поиск чувствителен к регистру.
	if _, err := repo.GetByUsername(ctx, "IVANOV"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByUsername(IVANOV) = %v, ожидался ErrNotFound", err)
	}

	if err := repo.UpdatePassword(ctx, u.ID, "$2a$10$newhash", false); err != nil {
		t.Fatalf("UpdatePassword() ошибка: %v", err)
	}
	got, err = repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if got.PasswordHash != "$2a$10$newhash" || got.MustChangePassword {
		t.Errorf("после UpdatePassword: hash=%q must_change=%v", got.PasswordHash, got.MustChangePassword)
	}

	if err := repo.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if _, err := repo.GetByID(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() после удаления = %v, ожидался ErrNotFound", err)
	}
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(pool)

	first := &model.User{Username: "petrov", PasswordHash: "h", Role: rbac.RoleCrew}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	dup := &model.User{Username: "petrov", PasswordHash: "h2", Role: rbac.RoleLeader}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("Create() дубликата = %v, ожидался ErrConflict", err)
	}
}

// TestUserRepository_MigrateLegacyRoles — строки старой схемы без роли
// получают роль по булеву флагу; уже мигрированные строки не трогаются.
func TestUserRepository_MigrateLegacyRoles(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(pool)

	// Имитация строк старой схемы: role отсутствует.
	legacy := []struct {
		username string
		isAdmin  bool
		want     rbac.Role
	}{
		{"legacy-admin", true, rbac.RoleAdmin},
		{"legacy-crew", false, rbac.RoleCrew},
	}
	for _, l := range legacy {
		_, err := pool.Exec(ctx,
			"INSERT INTO users (username, password_hash, is_admin) VALUES ($1, 'h', $2)",
			l.username, l.isAdmin)
		if err != nil {
			t.Fatalf("вставка строки старой схемы: %v", err)
		}
	}
	// Уже мигрированная строка: роль задана, флаг противоречит ей.
	_, err := pool.Exec(ctx,
		"INSERT INTO users (username, password_hash, is_admin, role) VALUES ('migrated', 'h', TRUE, 'crew')")
	if err != nil {
		t.Fatalf("вставка мигрированной строки: %v", err)
	}

	n, err := repo.MigrateLegacyRoles(ctx)
	if err != nil {
		t.Fatalf("MigrateLegacyRoles() ошибка: %v", err)
	}
	if n != 2 {
		t.Errorf("MigrateLegacyRoles() = %d строк, ожидалось 2", n)
	}

	for _, l := range legacy {
		got, err := repo.GetByUsername(ctx, l.username)
		if err != nil {
			t.Fatalf("GetByUsername(%s) ошибка: %v", l.username, err)
		}
		if got.Role != l.want {
			t.Errorf("роль %s = %s, ожидалась %s", l.username, got.Role, l.want)
		}
	}

	migrated, err := repo.GetByUsername(ctx, "migrated")
	if err != nil {
		t.Fatalf("GetByUsername(migrated) ошибка: %v", err)
	}
	if migrated.Role != rbac.RoleCrew {
		t.Errorf("мигрированная строка тронута: роль = %s, ожидалась crew", migrated.Role)
	}

	// Повторный прогон ничего не меняет.
	n, err = repo.MigrateLegacyRoles(ctx)
	if err != nil {
		t.Fatalf("повторный MigrateLegacyRoles() ошибка: %v", err)
	}
	if n != 0 {
		t.Errorf("повторный MigrateLegacyRoles() = %d строк, ожидалось 0", n)
	}
}

// --- Тесты SessionRepository ---

func TestSessionRepository_Lifecycle(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	sessions := NewSessionRepository(pool)

	u := &model.User{Username: "sidorov", PasswordHash: "h", Role: rbac.RoleCrew}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	live := &model.Session{UserID: u.ID, Token: "token-live", ExpiresAt: time.Now().Add(time.Hour)}
	if err := sessions.Create(ctx, live); err != nil {
		t.Fatalf("Create(live) ошибка: %v", err)
	}
	expired := &model.Session{UserID: u.ID, Token: "token-expired", ExpiresAt: time.Now().Add(-time.Hour)}
	if err := sessions.Create(ctx, expired); err != nil {
		t.Fatalf("Create(expired) ошибка: %v", err)
	}

	got, err := sessions.GetLiveByToken(ctx, "token-live")
	if err != nil {
		t.Fatalf("GetLiveByToken(live) ошибка: %v", err)
	}
	if got.UserID != u.ID {
		t.Errorf("UserID = %d, ожидался %d", got.UserID, u.ID)
	}

	// Просроченная сессия невидима, хотя строка существует.
	if _, err := sessions.GetLiveByToken(ctx, "token-expired"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetLiveByToken(expired) = %v, ожидался ErrNotFound", err)
	}

	// Удаление идемпотентно.
	if err := sessions.DeleteByToken(ctx, "token-live"); err != nil {
		t.Fatalf("DeleteByToken() ошибка: %v", err)
	}
	if err := sessions.DeleteByToken(ctx, "token-live"); err != nil {
		t.Errorf("повторный DeleteByToken() = %v, ожидался nil", err)
	}
	if _, err := sessions.GetLiveByToken(ctx, "token-live"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetLiveByToken() после удаления = %v, ожидался ErrNotFound", err)
	}

	n, err := sessions.DeleteByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("DeleteByUser() ошибка: %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteByUser() = %d, ожидалась 1 (просроченная строка)", n)
	}
}

// --- Тесты SystemLinkRepository ---

func TestSystemLinkRepository_OrderAndDefaults(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewSystemLinkRepository(pool)

	links := []*model.SystemLink{
		{Name: "second", URL: "https://b.example.com", OrderIndex: 2, RequiredRole: rbac.RoleLeader},
		{Name: "first", URL: "https://a.example.com", OrderIndex: 1, RequiredRole: rbac.RoleCrew},
		{Name: "third", URL: "https://c.example.com", OrderIndex: 2, RequiredRole: rbac.RoleAdmin},
	}
	for _, l := range links {
		if err := repo.Create(ctx, l); err != nil {
			t.Fatalf("Create(%s) ошибка: %v", l.Name, err)
		}
	}

	got, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	wantOrder := []string{"first", "second", "third"}
	if len(got) != len(wantOrder) {
		t.Fatalf("List() = %d ссылок, ожидалось %d", len(got), len(wantOrder))
	}
	for i, name := range wantOrder {
		if got[i].Name != name {
			t.Errorf("List()[%d] = %s, ожидался %s (order_index, затем id)", i, got[i].Name, name)
		}
	}

	// Строка без required_role получает crew.
	_, err = pool.Exec(ctx,
		"INSERT INTO systems (name, url, order_index) VALUES ('legacy', 'https://d.example.com', 4)")
	if err != nil {
		t.Fatalf("вставка строки без роли: %v", err)
	}
	n, err := repo.DefaultMissingRequiredRole(ctx)
	if err != nil {
		t.Fatalf("DefaultMissingRequiredRole() ошибка: %v", err)
	}
	if n != 1 {
		t.Errorf("DefaultMissingRequiredRole() = %d, ожидалась 1", n)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	for _, l := range all {
		if l.Name == "legacy" && l.RequiredRole != rbac.RoleCrew {
			t.Errorf("роль legacy = %s, ожидалась crew", l.RequiredRole)
		}
	}
}
