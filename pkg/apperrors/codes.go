package apperrors

// ErrorCode - тип для кодов ошибок
type ErrorCode string

// Стабильная классификация, которую видит клиент
const (
	// Системные ошибки
	CodeInternalError     ErrorCode = "INTERNAL_ERROR"
	CodeDependencyFailure ErrorCode = "DEPENDENCY_FAILURE"

	// Ошибки бизнес-логики
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeClosedParent     ErrorCode = "CLOSED_PARENT"

	// Аутентификация и авторизация
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeInvalidToken ErrorCode = "INVALID_TOKEN"
)
