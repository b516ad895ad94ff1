// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")

	ErrTokenMissing = errors.New("token missing")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenRevoked = errors.New("token revoked")
	ErrUserNotFound = errors.New("user not found")
	ErrRateLimited  = errors.New("rate limited")
)

// Trust-state failures. Banned is terminal; suspended and subscription
// expired become retryable once the underlying condition lapses.
var (
	ErrAccountBanned       = errors.New("account banned")
	ErrAccountSuspended    = errors.New("account suspended")
	ErrSubscriptionExpired = errors.New("subscription expired")
	ErrAuthorRequired      = errors.New("author subscription required")
	ErrAlreadyBanned       = errors.New("user already banned")
	ErrOwnershipDenied     = errors.New("ownership denied")
)

var (
	ErrPaymentNotSuccessful = errors.New("payment not successful")
	ErrPaymentApplied       = errors.New("payment already applied")
	ErrPaymentMismatch      = errors.New("payment does not belong to user")
	ErrGatewayUnavailable   = errors.New("payment gateway unavailable")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
	Details    map[string]any
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func NewAppError(err error, message string, status int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: status,
		Code:       code,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		ErrNotFound,
		resource+" not found",
		http.StatusNotFound,
		"NOT_FOUND",
	)
}

func DuplicateError(field string) *AppError {
	return NewAppError(
		ErrDuplicateKey,
		field+" already exists",
		http.StatusConflict,
		"DUPLICATE",
	)
}

func ValidationError(message string) *AppError {
	return NewAppError(
		ErrInvalidInput,
		message,
		http.StatusBadRequest,
		"VALIDATION_ERROR",
	)
}

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return NewAppError(
		ErrUnauthorized,
		message,
		http.StatusUnauthorized,
		"UNAUTHORIZED",
	)
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "access denied"
	}
	return NewAppError(
		ErrForbidden,
		message,
		http.StatusForbidden,
		"FORBIDDEN",
	)
}

func TokenMissingError() *AppError {
	return NewAppError(
		ErrTokenMissing,
		"missing authorization token",
		http.StatusUnauthorized,
		"TOKEN_MISSING",
	)
}

func TokenExpiredError() *AppError {
	return NewAppError(
		ErrTokenExpired,
		"token has expired",
		http.StatusUnauthorized,
		"TOKEN_EXPIRED",
	)
}

func TokenInvalidError() *AppError {
	return NewAppError(
		ErrTokenInvalid,
		"invalid token",
		http.StatusUnauthorized,
		"TOKEN_INVALID",
	)
}

func TokenRevokedError() *AppError {
	return NewAppError(
		ErrTokenRevoked,
		"token has been revoked",
		http.StatusUnauthorized,
		"TOKEN_REVOKED",
	)
}

func UserNotFoundError() *AppError {
	return NewAppError(
		ErrUserNotFound,
		"user not found",
		http.StatusUnauthorized,
		"USER_NOT_FOUND",
	)
}

func AccountBannedError(reason string) *AppError {
	appErr := NewAppError(
		ErrAccountBanned,
		"your account has been permanently banned",
		http.StatusForbidden,
		"BANNED",
	)
	if reason != "" {
		appErr.WithDetail("reason", reason)
	}
	return appErr
}

// AccountSuspendedError carries the remaining time so clients can render
// a countdown.
func AccountSuspendedError(until time.Time, remaining time.Duration) *AppError {
	if remaining < 0 {
		remaining = 0
	}
	return NewAppError(
		ErrAccountSuspended,
		"your account is suspended",
		http.StatusForbidden,
		"SUSPENDED",
	).
		WithDetail("suspended_until", until.UTC()).
		WithDetail("remaining_seconds", int64(remaining/time.Second)).
		WithDetail("remaining_hours", int64(remaining/time.Hour))
}

func SubscriptionExpiredError() *AppError {
	return NewAppError(
		ErrSubscriptionExpired,
		"subscription expired, please renew",
		http.StatusForbidden,
		"SUBSCRIPTION_EXPIRED",
	)
}

func AuthorRequiredError() *AppError {
	return NewAppError(
		ErrAuthorRequired,
		"please subscribe to become an author",
		http.StatusForbidden,
		"AUTHOR_REQUIRED",
	)
}

func AlreadyBannedError() *AppError {
	return NewAppError(
		ErrAlreadyBanned,
		"user is already banned",
		http.StatusBadRequest,
		"ALREADY_BANNED",
	)
}

func OwnershipDeniedError() *AppError {
	return NewAppError(
		ErrOwnershipDenied,
		"access denied",
		http.StatusForbidden,
		"OWNERSHIP_DENIED",
	)
}

func PaymentNotSuccessfulError(status string) *AppError {
	return NewAppError(
		ErrPaymentNotSuccessful,
		"payment not successful",
		http.StatusBadRequest,
		"PAYMENT_NOT_SUCCESSFUL",
	).WithDetail("status", status)
}

func PaymentAlreadyAppliedError() *AppError {
	return NewAppError(
		ErrPaymentApplied,
		"payment has already been applied",
		http.StatusConflict,
		"PAYMENT_ALREADY_APPLIED",
	)
}

func PaymentMismatchError() *AppError {
	return NewAppError(
		ErrPaymentMismatch,
		"payment does not belong to this account",
		http.StatusForbidden,
		"PAYMENT_MISMATCH",
	)
}

func GatewayUnavailableError(err error) *AppError {
	return NewAppError(
		fmt.Errorf("%w: %w", ErrGatewayUnavailable, err),
		"payment provider unavailable",
		http.StatusBadGateway,
		"GATEWAY_UNAVAILABLE",
	)
}
