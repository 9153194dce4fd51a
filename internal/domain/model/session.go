package model

import "time"

// Session — выданная сессия пользователя.
// Хранится в таблице sessions; строка — единственный источник истины
// о валидности сессии: токен можно отозвать удалением строки.
type Session struct {
	// ID — первичный ключ
	ID int64
	// UserID — владелец сессии (FK на users.id)
	UserID int64
	// Token — подписанный токен, выданный при входе
	Token string
	// ExpiresAt — абсолютное время истечения
	ExpiresAt time.Time
	// CreatedAt — время выдачи
	CreatedAt time.Time
}
