package service

import "errors"

// Ожидаемые бизнес-отказы. Возвращаются как значения, безопасны для показа
// конечному пользователю; транспортный слой отображает их в коды отказов.
var (
	ErrTenantInactive      = errors.New("tenant not found or inactive")
	ErrNotRegistered       = errors.New("principal is not registered in this tenant")
	ErrOfferingUnavailable = errors.New("offering not found or inactive")
	ErrSlotFull            = errors.New("slot has no remaining capacity")
	ErrInvalidTransition   = errors.New("reservation status transition is not allowed")

	// ErrNotFound — запрошенная сущность отсутствует в рамках тенанта.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidArgument — нарушение контракта вызова; проверяется
	// до начала транзакции.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRetryExhausted — транзакция бронирования не прошла за отведённое
	// число попыток из-за конфликтов сериализации.
	ErrRetryExhausted = errors.New("transaction conflict, try again")
)

// Коды отказов во внешнем контракте.
const (
	CodeTenantInactive      = "tenant_inactive"
	CodeNotRegistered       = "not_registered"
	CodeOfferingUnavailable = "offering_unavailable"
	CodeSlotFull            = "slot_full"
	CodeInvalidTransition   = "invalid_transition"
	CodeNotFound            = "not_found"
	CodeInvalidArgument     = "invalid_argument"
	CodeTryAgain            = "try_again"
)

// RejectionCode отображает ожидаемый отказ в стабильный код контракта.
// Второе значение false — ошибка не является бизнес-отказом.
func RejectionCode(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrTenantInactive):
		return CodeTenantInactive, true
	case errors.Is(err, ErrNotRegistered):
		return CodeNotRegistered, true
	case errors.Is(err, ErrOfferingUnavailable):
		return CodeOfferingUnavailable, true
	case errors.Is(err, ErrSlotFull):
		return CodeSlotFull, true
	case errors.Is(err, ErrInvalidTransition):
		return CodeInvalidTransition, true
	case errors.Is(err, ErrNotFound):
		return CodeNotFound, true
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument, true
	case errors.Is(err, ErrRetryExhausted):
		return CodeTryAgain, true
	}
	return "", false
}
