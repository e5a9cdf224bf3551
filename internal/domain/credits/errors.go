package credits

import "errors"

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidPackage      = errors.New("unknown credit package")
	ErrUserNotFound        = errors.New("user not found")
	ErrInternal            = errors.New("internal error")
)
