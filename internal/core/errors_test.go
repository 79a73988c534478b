// AngelaMos | 2026
// errors_test.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError_MapsDomainSentinels(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"quota", fmt.Errorf("reserve: %w", ErrQuotaExceeded), http.StatusTooManyRequests, "QUOTA_EXCEEDED"},
		{"limit", ErrLimitExceeded, http.StatusBadRequest, "LIMIT_EXCEEDED"},
		{"duplicate membership", ErrDuplicateMembership, http.StatusBadRequest, "DUPLICATE_MEMBERSHIP"},
		{"configuration", fmt.Errorf("assign: %w", ErrConfiguration), http.StatusInternalServerError, "CONFIGURATION_ERROR"},
		{"upstream", ErrUpstream, http.StatusBadRequest, "UPSTREAM_ERROR"},
		{"expired", ErrTokenExpired, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"missing token", ErrMissingToken, http.StatusUnauthorized, "TOKEN_INVALID"},
		{"profile sync", &ProfileSyncError{Subject: "abc", Err: errors.New("db down")}, http.StatusInternalServerError, "PROFILE_SYNC_ERROR"},
		{"not found", ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr, ok := FromError(tt.err)
			require.True(t, ok)
			assert.Equal(t, tt.status, appErr.StatusCode)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestFromError_PrefersExplicitAppError(t *testing.T) {
	appErr, ok := FromError(fmt.Errorf("create: %w", LimitExceededError(2)))
	require.True(t, ok)
	assert.Equal(t, "you can only own 2 events", appErr.Message)
}

func TestFromError_UnknownError(t *testing.T) {
	_, ok := FromError(errors.New("boom"))
	assert.False(t, ok)
}

func TestJSONError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()

	JSONError(rec, errors.New("pq: relation profiles does not exist"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.NotContains(t, rec.Body.String(), "relation")
}

func TestJSON_WritesRawBody(t *testing.T) {
	rec := httptest.NewRecorder()

	OK(rec, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestFormatValidationError(t *testing.T) {
	type req struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=8"`
	}

	err := validator.New().Struct(req{Email: "nope", Password: "short"})
	msg := FormatValidationError(err)

	assert.Contains(t, msg, "email must be a valid email")
	assert.Contains(t, msg, "password must be at least 8 characters")
}
