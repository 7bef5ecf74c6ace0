package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrQuotaExceeded      = errors.New("quota exceeded")
	ErrUnsupportedPlan    = errors.New("unsupported plan")
	ErrDuplicateOperation = errors.New("duplicate operation")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrNotConfigured      = errors.New("not configured")
)
