// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import (
	"errors"
	"fmt"
	"time"
)

// Ошибки экономики (монеты, переводы, банк)
var (
	// ErrInsufficientFunds — недостаточно монет на счёте
	ErrInsufficientFunds = errors.New("недостаточно монет на счёте")
	// ErrAccountFrozen — счёт заморожен администратором
	ErrAccountFrozen = errors.New("счёт заморожен")
	// ErrLimitExceeded — операция превышает лимит кошелька
	ErrLimitExceeded = errors.New("превышен лимит кошелька")
	// ErrSelfTransfer — попытка перевести монеты самому себе
	ErrSelfTransfer = errors.New("нельзя переводить монеты самому себе")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
	// ErrTransactionFailed — операция не прошла по внутренней причине.
	// Подробности уже в логах; пользователю показываем только это.
	ErrTransactionFailed = errors.New("операция не выполнена, попробуйте позже")
)

// Ошибки магазина
var (
	// ErrItemNotFound — предмет не найден или снят с продажи
	ErrItemNotFound = errors.New("такого предмета нет в магазине")
	// ErrOutOfStock — предмет закончился
	ErrOutOfStock = errors.New("предмет закончился")
	// ErrItemExists — предмет с таким именем уже есть в каталоге
	ErrItemExists = errors.New("предмет с таким именем уже существует")
)

// Ошибки работы (!work)
var (
	// ErrWorkCooldown — работать можно раз в час
	ErrWorkCooldown = errors.New("вы недавно работали, отдохните")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrSessionExpired — сессия истекла
	ErrSessionExpired = errors.New("сессия истекла, авторизуйтесь заново")
)

// TooSoonError — ежедневная награда ещё недоступна.
// Несёт оставшееся время, чтобы обработчик показал его пользователю.
type TooSoonError struct {
	Remaining time.Duration
}

// Error реализует интерфейс error.
func (e *TooSoonError) Error() string {
	hours := int(e.Remaining.Hours())
	minutes := int(e.Remaining.Minutes()) % 60
	return fmt.Sprintf("ежедневная награда будет доступна через %dч %dм", hours, minutes)
}

// IsTooSoon проверяет, является ли ошибка TooSoonError.
func IsTooSoon(err error) (*TooSoonError, bool) {
	var ts *TooSoonError
	if errors.As(err, &ts) {
		return ts, true
	}
	return nil, false
}

// IsBusinessError сообщает, является ли ошибка ожидаемой бизнес-ошибкой
// (её можно показать пользователю как есть). Инфраструктурные ошибки
// (отвал БД и т.п.) сюда не входят — их логируем и прячем.
func IsBusinessError(err error) bool {
	switch {
	case errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrAccountFrozen),
		errors.Is(err, ErrLimitExceeded),
		errors.Is(err, ErrSelfTransfer),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrOutOfStock),
		errors.Is(err, ErrItemExists),
		errors.Is(err, ErrWorkCooldown):
		return true
	}
	_, ok := IsTooSoon(err)
	return ok
}
