package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/nkiryanov/taskmanager/internal/apperrors"
	"github.com/nkiryanov/taskmanager/internal/envelope"
	"github.com/nkiryanov/taskmanager/internal/service/validate"
)

const (
	MessageUnauthenticated = "Authentication required"
	MessageForbidden       = "You do not have permission to perform this action"
	MessageInternal        = "Internal server error"
)

type Struct any

// JSON renders a successful envelope with status 200
func JSON[T any](w http.ResponseWriter, message string, data T) {
	JSONWithStatus(w, http.StatusOK, message, data)
}

func JSONWithStatus[T any](w http.ResponseWriter, code int, message string, data T) {
	jsonWithStatus(w, envelope.OK(message, data), code)
}

// Message renders a successful envelope without data
func Message(w http.ResponseWriter, message string) {
	jsonWithStatus(w, envelope.Envelope[envelope.Empty]{Success: true, Message: message}, http.StatusOK)
}

// Render ServiceError
func ServiceError(w http.ResponseWriter, message string, code int) {
	jsonWithStatus(w, envelope.Fail(codeForStatus(code), message, nil), code)
}

// Render json DecodeError
func DecodeError(w http.ResponseWriter, err error) {
	var message string

	// Try to provide more specific error message based on error type
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		message = fmt.Sprintf("Invalid data type for field '%s'", typeErr.Field)
	default:
		message = fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}

	jsonWithStatus(w, envelope.Fail(envelope.CodeDecode, message, nil), http.StatusBadRequest)
}

// Render ValidationErrors
func ValidationErrors(w http.ResponseWriter, fields map[string]string) {
	jsonWithStatus(w, envelope.Fail(envelope.CodeValidation, "Validation failed", fields), http.StatusBadRequest)
}

// Error renders err by its kind and returns the status it chose.
// Anything not known to the API becomes 500 and the caller is expected to log it.
func Error(w http.ResponseWriter, err error) int {
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		ValidationErrors(w, verr.Fields)
		return http.StatusBadRequest
	}

	code, message := StatusOf(err)
	ServiceError(w, message, code)
	return code
}

// StatusOf maps service errors to an HTTP status and a user facing message
func StatusOf(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest, "Validation failed"
	case errors.Is(err, apperrors.ErrDuplicateEmail):
		return http.StatusBadRequest, "User with this email already exists"
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, "Token expired"
	case errors.Is(err, apperrors.ErrTokenMalformed):
		return http.StatusUnauthorized, "Invalid token"
	case errors.Is(err, apperrors.ErrUnauthenticated):
		return http.StatusUnauthorized, MessageUnauthenticated
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, MessageForbidden
	case errors.Is(err, apperrors.ErrTaskNotFound):
		return http.StatusNotFound, "Task not found"
	case errors.Is(err, apperrors.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	default:
		return http.StatusInternalServerError, MessageInternal
	}
}

// BindAndValidate decodes JSON request body into type T and validates it using struct tags.
// Returns the decoded value and writes appropriate error responses for decoding or validation failures.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(r.Body).Decode(&value)
	if err != nil {
		DecodeError(w, err)
		return value, err
	}

	err = validate.Struct(value)
	if err != nil {
		Error(w, err)
		return value, err
	}

	return value, nil
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return envelope.CodeValidation
	case http.StatusUnauthorized:
		return envelope.CodeUnauthorized
	case http.StatusForbidden:
		return envelope.CodeForbidden
	case http.StatusNotFound:
		return envelope.CodeNotFound
	default:
		return envelope.CodeInternalError
	}
}

// renderJSONWithStatus sends data as json and enforces status code
func jsonWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
