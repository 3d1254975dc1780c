package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/astro-daily/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// domainStatus maps application error codes to response statuses.
var domainStatus = map[string]int{
	apperrors.CodeValidation: http.StatusBadRequest,
	apperrors.CodeNotFound:   http.StatusNotFound,
	apperrors.CodeFetch:      http.StatusBadGateway,
	apperrors.CodeStore:      http.StatusInternalServerError,
}

// fromDomainError keeps the code and user facing message of an AppError.
func fromDomainError(err error) *HTTPError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if status, ok := domainStatus[appErr.Code]; ok {
			return NewHTTPError(status, appErr.Code, appErr.Message, err)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal_error", "something went wrong", err)
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return fromDomainError(err)
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
