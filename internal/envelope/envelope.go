// Package envelope defines the JSON wrapper every API response travels in.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Error codes carried in Envelope.Error
const (
	CodeValidation    = "validation_error"
	CodeDecode        = "decode_error"
	CodeUnauthorized  = "unauthorized"
	CodeForbidden     = "forbidden"
	CodeNotFound      = "not_found"
	CodeInternalError = "internal_error"
)

var ErrEmptyData = errors.New("envelope: response has no data")

// Envelope is {success, message, data?}. Error and Fields are set on failures only.
type Envelope[T any] struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    *T                `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Empty is the payload of responses that carry only a message
type Empty struct{}

func OK[T any](message string, data T) Envelope[T] {
	return Envelope[T]{Success: true, Message: message, Data: &data}
}

func Fail(code, message string, fields map[string]string) Envelope[Empty] {
	return Envelope[Empty]{Message: message, Error: code, Fields: fields}
}

// Decode reads one envelope from r
func Decode[T any](r io.Reader) (Envelope[T], error) {
	var env Envelope[T]
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return env, fmt.Errorf("envelope: decode: %w", err)
	}
	return env, nil
}

// Payload returns the data of a successful envelope
func (e Envelope[T]) Payload() (T, error) {
	var zero T
	if !e.Success {
		return zero, fmt.Errorf("envelope: unsuccessful response: %s", e.Message)
	}
	if e.Data == nil {
		return zero, ErrEmptyData
	}
	return *e.Data, nil
}
