package domain

import "errors"

var (
	ErrInvalidActivityType = errors.New("invalid_activity_type")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrUserNotFound        = errors.New("user_not_found")
)
