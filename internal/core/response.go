// AngelaMos | 2026
// response.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ErrorResponse struct {
	Success bool       `json:"success"`
	Error   *ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON writes data as the raw response body. Success payloads carry no
// envelope so clients read {"status":"ok"} or {"profile_id":...} directly.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

type PaginatedResponse struct {
	Items      any `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func Paginated(w http.ResponseWriter, items any, page, pageSize, total int) {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	OK(w, PaginatedResponse{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// JSONError renders err with the status of its mapped AppError. Unmapped
// errors are logged and hidden behind a generic 500.
func JSONError(w http.ResponseWriter, err error) {
	appErr, ok := FromError(err)
	if !ok {
		slog.Error("unhandled error", "error", err)
		appErr = NewAppError(
			err,
			"an unexpected error occurred",
			http.StatusInternalServerError,
			"INTERNAL_ERROR",
		)
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		slog.Error("request failed",
			"code", appErr.Code,
			"error", err,
		)
	}

	JSON(w, appErr.StatusCode, ErrorResponse{
		Success: false,
		Error: &ErrorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
		},
	})
}

func BadRequest(w http.ResponseWriter, message string) {
	JSONError(w, ValidationError(message))
}

func Unauthorized(w http.ResponseWriter, message string) {
	JSONError(w, UnauthorizedError(message))
}

func NotFound(w http.ResponseWriter, resource string) {
	JSONError(w, NotFoundError(resource))
}

func InternalServerError(w http.ResponseWriter, err error) {
	JSONError(w, NewAppError(
		err,
		"an unexpected error occurred",
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
	))
}

// FormatValidationError flattens validator failures into one message.
func FormatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}

	return strings.Join(msgs, "; ")
}

func describeField(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "url":
		return field + " must be a valid URL"
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", field, strings.ToLower(fe.Param()))
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
