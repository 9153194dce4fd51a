// Package service содержит бизнес-логику панели управления:
// аутентификацию, управление пользователями и реестром систем.
package service

import "errors"

// Ошибки бизнес-логики. Слой HTTP сопоставляет их с кодами ответов,
// сервисный слой кодов не знает.
var (
	// ErrInvalidCredentials — неверная пара логин/пароль. Одна и та же
	// ошибка и для несуществующего пользователя, и для неверного пароля,
	// чтобы не раскрывать существование учётной записи.
	ErrInvalidCredentials = errors.New("неверное имя пользователя или пароль")

	// ErrUnauthenticated — токен отсутствует, подпись неверна,
	// сессия отозвана или истекла.
	ErrUnauthenticated = errors.New("требуется аутентификация")

	// ErrForbidden — роли пользователя недостаточно для операции.
	ErrForbidden = errors.New("недостаточно прав")

	// ErrDuplicateUsername — имя пользователя уже занято.
	ErrDuplicateUsername = errors.New("имя пользователя уже занято")

	// ErrInvalidRole — строка роли не входит в допустимый набор.
	ErrInvalidRole = errors.New("недопустимая роль")

	// ErrProtectedAccount — операция над защищённой учётной записью запрещена.
	ErrProtectedAccount = errors.New("учётная запись защищена от удаления")

	// ErrValidation — входные данные не прошли проверку.
	ErrValidation = errors.New("некорректные входные данные")

	// ErrNotFound — запрошенный объект не существует.
	ErrNotFound = errors.New("объект не найден")
)
