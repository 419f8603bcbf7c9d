package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPetNotFound возвращается, если питомец не найден в каталоге.
	ErrPetNotFound = errors.New("pet not found")
	// ErrCartNotFound возвращается, если корзина не найдена.
	ErrCartNotFound = errors.New("cart not found")
	// ErrCartItemNotFound возвращается, если позиция корзины не найдена.
	ErrCartItemNotFound = errors.New("cart item not found")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderItemNotFound возвращается, если позиция заказа не найдена.
	ErrOrderItemNotFound = errors.New("order item not found")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrBalanceNotFound возвращается, если у пользователя нет записи баланса.
	ErrBalanceNotFound = errors.New("account balance not found")
	// ErrCartAlreadyExists — у пользователя уже есть корзина (1:1).
	ErrCartAlreadyExists = errors.New("a cart already exists for this user")
	// ErrUserAlreadyExists — email уже занят.
	ErrUserAlreadyExists = errors.New("user with this email already exists")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrInsufficientBalance — на балансе недостаточно средств для списания.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidPIN — PIN не совпадает с хранимым у пользователя.
	ErrInvalidPIN = errors.New("invalid pin")
	// ErrOrderAlreadyCanceled — повторная отмена уже отменённого заказа.
	ErrOrderAlreadyCanceled = errors.New("this order has already been canceled")
	// ErrOrderNotCancelable — заказ уже отгружен или доставлен.
	ErrOrderNotCancelable = errors.New("cannot cancel an order that has already been shipped or delivered")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// Kind — машинно-проверяемая категория бизнес-ошибки.
// Транспортный слой отображает категорию в статус ответа.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindInternal     Kind = "internal"
)

// Error оборачивает причину с категорией и человекочитаемым сообщением.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFoundf создаёт ошибку категории not_found.
func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validationf создаёт ошибку нарушения бизнес-правила.
func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Conflictf создаёт ошибку конфликта состояния.
func Conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Unauthorizedf создаёт ошибку аутентификации (например, неверный PIN).
func Unauthorizedf(format string, args ...any) error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// Forbiddenf создаёт ошибку авторизации (не владелец и не администратор).
func Forbiddenf(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// Wrap добавляет категорию и сообщение к существующей ошибке.
func Wrap(kind Kind, message string, err error) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf возвращает категорию ошибки. Sentinel-ошибки репозиториев
// отображаются в категории без дополнительной обёртки.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var domErr *Error
	if errors.As(err, &domErr) {
		return domErr.Kind
	}

	switch {
	case errors.Is(err, ErrPetNotFound),
		errors.Is(err, ErrCartNotFound),
		errors.Is(err, ErrCartItemNotFound),
		errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrOrderItemNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrBalanceNotFound):
		return KindNotFound
	case errors.Is(err, ErrCartAlreadyExists),
		errors.Is(err, ErrUserAlreadyExists),
		errors.Is(err, ErrOrderVersionConflict):
		return KindConflict
	case errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrOrderAlreadyCanceled),
		errors.Is(err, ErrOrderNotCancelable):
		return KindValidation
	case errors.Is(err, ErrInvalidPIN):
		return KindUnauthorized
	default:
		return KindInternal
	}
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}
