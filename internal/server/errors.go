package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dreamfactory/dspdocs/internal/service"
	"github.com/dreamfactory/dspdocs/internal/store"
	"github.com/dreamfactory/dspdocs/internal/swagger"
)

// ErrorCode is the machine-readable code in an error body.
type ErrorCode string

const (
	CodeInvalidArgument ErrorCode = "invalid_argument"
	CodeNotFound        ErrorCode = "not_found"
	CodeInternal        ErrorCode = "internal"
	CodeUnavailable     ErrorCode = "unavailable"
)

// HTTPStatus maps an ErrorCode to an HTTP status code.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is the body of every failed response, wrapped as {"error": ...}.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// toError maps a domain error onto a response error.
func toError(err error) *Error {
	var e *Error
	switch {
	case errors.As(err, &e):
		return e
	case swagger.IsServerError(err):
		return &Error{Code: CodeInternal, Message: err.Error()}
	case errors.Is(err, service.ErrUnknownService), store.IsNotFound(err):
		return &Error{Code: CodeNotFound, Message: err.Error()}
	case store.IsConnection(err):
		return &Error{Code: CodeUnavailable, Message: err.Error()}
	}
	return &Error{Code: CodeInternal, Message: err.Error()}
}

type errorBody struct {
	Error *Error `json:"error"`
}

func writeError(w http.ResponseWriter, err error) *Error {
	e := toError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Code.HTTPStatus())
	json.NewEncoder(w).Encode(errorBody{Error: e})
	return e
}
