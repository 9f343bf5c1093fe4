package account

import "errors"

// Ошибки операций над учётными записями. Сравниваются через errors.Is.
var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("incorrect password")
	ErrUpdateFailed       = errors.New("update failed")
)

// Message возвращает текст ошибки для показа пользователю.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDuplicateEmail):
		return "Email already registered"
	case errors.Is(err, ErrUserNotFound):
		return "User not found"
	case errors.Is(err, ErrInvalidCredentials):
		return "Incorrect password"
	case errors.Is(err, ErrUpdateFailed):
		return "Update failed"
	default:
		return "Something went wrong."
	}
}
