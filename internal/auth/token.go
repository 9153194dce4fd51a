// Пакет auth — выпуск и проверка токенов сессий и работа с session cookie.
//
// Токен — подписанный HS256 идентификатор сессии (claims: userId, jti,
// iat, exp). Подпись защищает от подделки, но источником истины о
// валидности остаётся строка в таблице sessions: удаление строки
// отзывает токен до его естественного истечения.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken — токен не прошёл проверку (подпись, срок, формат).
// Причины намеренно не различаются.
var ErrInvalidToken = errors.New("недействительный токен")

// TokenManager выпускает и проверяет токены сессий.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager создаёт менеджер токенов.
// secret — ключ подписи HS256, ttl — абсолютное время жизни токена.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// sessionClaims — полезная нагрузка токена сессии.
type sessionClaims struct {
	// UserID — идентификатор пользователя (имя claim — наследие
	// предыдущих версий дашборда, менять нельзя: инвалидирует
	// выданные сессии).
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// Issue подписывает новый токен для пользователя userID.
// Возвращает токен и абсолютное время его истечения — оно же
// записывается в строку сессии.
func (m *TokenManager) Issue(userID int64) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.ttl)

	claims := sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return token, expiresAt, nil
}

// Parse проверяет подпись и срок действия токена и возвращает userID.
// Любая проблема (чужая подпись, истёкший срок, мусор вместо токена,
// неожиданный алгоритм) → ErrInvalidToken.
func (m *TokenManager) Parse(token string) (int64, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("неожиданный алгоритм подписи: %s", t.Method.Alg())
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || claims.UserID <= 0 {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}
