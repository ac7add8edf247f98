// Package http provides the JSON API server and its handlers.
//
// This file implements a small builder for JSON responses and the single
// place where domain errors become HTTP status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"expenses/internal/core"
	"expenses/internal/log"
)

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response. A nil body writes headers only.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// ErrorBody is the wire shape of every error response.
type ErrorBody struct {
	Code   int    `json:"code"`
	Detail string `json:"detail"`
}

func ErrorResponse(statusCode int, detail string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(ErrorBody{Code: statusCode, Detail: detail})
}

func BadRequestError(detail string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, detail)
}

func NotFoundError(detail string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, detail)
}

func InternalServerError() *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal server error")
}

func MethodNotAllowedError(allowedMethods string) *ResponseBuilder {
	return ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Header("Allow", allowedMethods)
}

func TooManyRequestsError() *ResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later")
}

// ErrorFor maps err to a response. Client errors carry their message; server
// errors carry a generic detail only.
func ErrorFor(err error) *ResponseBuilder {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return BadRequestError(verr.Error())
	case errors.Is(err, core.ErrValidation):
		return BadRequestError(err.Error())
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, core.ErrConflict):
		return ErrorResponse(http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrUnavailable):
		return ErrorResponse(http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		return InternalServerError()
	}
}

// writeError logs server-side failures and writes the mapped response.
func writeError(w http.ResponseWriter, r *http.Request, logger *log.Logger, op string, err error) {
	resp := ErrorFor(err)
	if resp.statusCode >= http.StatusInternalServerError {
		log.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err,
			logger.Component(), op, log.LogFields{log.FieldPath: r.URL.Path})
	}
	resp.Write(w)
}
