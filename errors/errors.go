package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is an error that knows which HTTP status and client-facing
// message it maps to. Details, when set, are rendered next to the message.
type AppError struct {
	Code    int            `json:"-"`
	Message string         `json:"error"`
	Op      string         `json:"-"`
	Err     error          `json:"-"`
	Details map[string]any `json:"-"`
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

// WithDetail returns e with one extra detail attached.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

func E(op string, err error, message string, code int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func InvalidInput(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusBadRequest)
}

func NotFound(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusNotFound)
}

func Unprocessable(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusUnprocessableEntity)
}

func Internal(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusInternalServerError)
}

func BadGateway(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusBadGateway)
}

func Unavailable(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusServiceUnavailable)
}

func GatewayTimeout(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusGatewayTimeout)
}

func IsNotFound(err error) bool {
	e, ok := As(err)
	return ok && e.Code == http.StatusNotFound
}

// As finds the first *AppError in err's chain.
func As(err error) (*AppError, bool) {
	var e *AppError
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}
