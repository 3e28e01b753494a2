/*
Package errs defines the application error type and the error code space.

CustomError couples a stable business code with a client-facing message and
the HTTP status used when the error surfaces over the REST boundary. The
realtime layer reuses the same codes so a failure looks identical no matter
which transport reported it.
*/
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"chatgrid/internal/pkg/logx"
)

// CustomError is the error type used throughout the server.
type CustomError struct {
	// Code is the stable business error code (see error_codes.go).
	Code int

	// Message is the client-facing description.
	Message string

	// Status is the HTTP status sent when this error ends a request.
	Status int
}

// Error implements the error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError builds a *CustomError from a predefined code. Optional details are
// applied printf-style when the template message carries placeholders. An
// unknown code degrades to ErrUnknown rather than panicking.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &CustomError{
			Code:    unknownErr.Code,
			Message: unknownErr.Message,
			Status:  unknownErr.Status,
		}
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if code == ErrUnknown && len(details) > 0 {
		if originalErr, ok := details[0].(error); ok {
			logx.Error(
				originalErr,
				"Handling ErrUnknown with underlying error",
			)
		}
	} else if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn(
				"Details provided for error, but message template has no formatting placeholders. Details ignored.",
			)
		}
	}

	return &customErr
}

// Is reports whether err is, or wraps, a *CustomError carrying the given code.
func Is(err error, code int) bool {
	var customErr *CustomError
	return errors.As(err, &customErr) && customErr.Code == code
}
