// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")

	ErrMissingToken = errors.New("missing authorization token")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")

	ErrQuotaExceeded       = errors.New("daily registration quota exceeded")
	ErrLimitExceeded       = errors.New("owner event limit exceeded")
	ErrDuplicateMembership = errors.New("membership already exists")
	ErrConfiguration       = errors.New("configuration error")
	ErrUpstream            = errors.New("identity provider error")
)

// ProfileSyncError wraps any storage failure raised while mirroring an
// external identity into a local profile.
type ProfileSyncError struct {
	Subject string
	Err     error
}

func (e *ProfileSyncError) Error() string {
	return fmt.Sprintf("sync profile %s: %v", e.Subject, e.Err)
}

func (e *ProfileSyncError) Unwrap() error {
	return e.Err
}

type AppError struct {
	Err        error  `json:"-"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
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

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return NewAppError(ErrUnauthorized, message, http.StatusUnauthorized, "UNAUTHORIZED")
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "insufficient permissions"
	}
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		ErrNotFound,
		fmt.Sprintf("%s not found", resource),
		http.StatusNotFound,
		"NOT_FOUND",
	)
}

func ValidationError(message string) *AppError {
	return NewAppError(ErrInvalidInput, message, http.StatusBadRequest, "VALIDATION_ERROR")
}

func DuplicateError(field string) *AppError {
	return NewAppError(
		ErrDuplicateKey,
		fmt.Sprintf("a record with this %s already exists", field),
		http.StatusBadRequest,
		"DUPLICATE",
	)
}

func TokenExpiredError() *AppError {
	return NewAppError(ErrTokenExpired, "token has expired", http.StatusUnauthorized, "TOKEN_EXPIRED")
}

func TokenInvalidError() *AppError {
	return NewAppError(ErrTokenInvalid, "invalid token", http.StatusUnauthorized, "TOKEN_INVALID")
}

func TokenRevokedError() *AppError {
	return NewAppError(ErrTokenRevoked, "token has been revoked", http.StatusUnauthorized, "TOKEN_REVOKED")
}

func QuotaExceededError() *AppError {
	return NewAppError(
		ErrQuotaExceeded,
		"daily limit of free registrations reached, try again tomorrow",
		http.StatusTooManyRequests,
		"QUOTA_EXCEEDED",
	)
}

func LimitExceededError(limit int) *AppError {
	return NewAppError(
		ErrLimitExceeded,
		fmt.Sprintf("you can only own %d events", limit),
		http.StatusBadRequest,
		"LIMIT_EXCEEDED",
	)
}

func DuplicateMembershipError() *AppError {
	return NewAppError(
		ErrDuplicateMembership,
		"already a member of this event with that role",
		http.StatusBadRequest,
		"DUPLICATE_MEMBERSHIP",
	)
}

func ConfigurationError() *AppError {
	return NewAppError(
		ErrConfiguration,
		"the service is misconfigured",
		http.StatusInternalServerError,
		"CONFIGURATION_ERROR",
	)
}

func UpstreamError(message string) *AppError {
	if message == "" {
		message = "identity provider request failed"
	}
	return NewAppError(ErrUpstream, message, http.StatusBadRequest, "UPSTREAM_ERROR")
}

func ProfileSyncFailedError() *AppError {
	return NewAppError(
		ErrInternal,
		"could not load your profile",
		http.StatusInternalServerError,
		"PROFILE_SYNC_ERROR",
	)
}

// FromError maps the domain sentinels onto their HTTP representation.
// ok is false when err carries no known mapping.
func FromError(err error) (appErr *AppError, ok bool) {
	if errors.As(err, &appErr) {
		return appErr, true
	}

	var syncErr *ProfileSyncError
	switch {
	case errors.As(err, &syncErr):
		return ProfileSyncFailedError(), true
	case errors.Is(err, ErrQuotaExceeded):
		return QuotaExceededError(), true
	case errors.Is(err, ErrLimitExceeded):
		return NewAppError(
			ErrLimitExceeded,
			"event ownership limit reached",
			http.StatusBadRequest,
			"LIMIT_EXCEEDED",
		), true
	case errors.Is(err, ErrDuplicateMembership):
		return DuplicateMembershipError(), true
	case errors.Is(err, ErrConfiguration):
		return ConfigurationError(), true
	case errors.Is(err, ErrUpstream):
		return UpstreamError(""), true
	case errors.Is(err, ErrTokenExpired):
		return TokenExpiredError(), true
	case errors.Is(err, ErrTokenRevoked):
		return TokenRevokedError(), true
	case errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrMissingToken):
		return TokenInvalidError(), true
	case errors.Is(err, ErrUnauthorized):
		return UnauthorizedError(""), true
	case errors.Is(err, ErrForbidden):
		return ForbiddenError(""), true
	case errors.Is(err, ErrNotFound):
		return NotFoundError("resource"), true
	case errors.Is(err, ErrInvalidInput):
		return ValidationError("invalid input"), true
	}

	return nil, false
}
