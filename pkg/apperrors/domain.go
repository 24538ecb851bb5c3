package apperrors

import (
	"fmt"
	"net/http"
)

/*
Фабрики доменных ошибок. Сообщения конфликтов начинаются с короткого
маркера ("duplicate", "schedule collision", "terminal state"), по которому
клиент может отличить причину без разбора текста целиком.
*/

// ErrValidation - отсутствующее или некорректное поле
func ErrValidation(domain, message string) *AppError {
	return New(CodeValidationFailed, domain, message, http.StatusBadRequest)
}

// ErrNotFound - запись не найдена (404)
func ErrNotFound(domain, entity string) *AppError {
	return New(CodeNotFound, domain, fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ErrForbidden - актор не владелец и не администратор
func ErrForbidden(domain, message string) *AppError {
	return New(CodeForbidden, domain, message, http.StatusForbidden)
}

// ErrConflict - общая фабрика для конфликтов (409)
func ErrConflict(domain, message string) *AppError {
	return New(CodeConflict, domain, message, http.StatusConflict)
}

// ErrClosedParent - предложение/запрос уже закрыты для новых взносов
func ErrClosedParent(domain, message string) *AppError {
	return New(CodeClosedParent, domain, message, http.StatusConflict)
}

// ErrDependency - сбой внешней доставки. Наружу не выходит, только в лог.
func ErrDependency(err error, dependency string) *AppError {
	return Wrap(err, CodeDependencyFailure, dependency, dependency+" delivery failed", http.StatusBadGateway)
}

// ErrDuplicate - повторный взнос донора по той же записи
func ErrDuplicate(domain, message string) *AppError {
	return ErrConflict(domain, "duplicate: "+message)
}

// ErrScheduleCollision - вывоз попадает в буфер существующего вывоза
func ErrScheduleCollision(domain, message string) *AppError {
	return ErrConflict(domain, "schedule collision: "+message)
}

// ErrTerminalState - запись уже в терминальном статусе
func ErrTerminalState(domain, message string) *AppError {
	return ErrConflict(domain, "terminal state: "+message)
}

// ErrIllegalTransition - статус не является допустимым преемником
func ErrIllegalTransition(domain string, from, to interface{}) *AppError {
	return ErrConflict(domain, fmt.Sprintf("illegal transition: %v -> %v", from, to))
}

var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)
