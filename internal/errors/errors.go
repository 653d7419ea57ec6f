package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	// Columns lists the absent columns for CodeMissingColumn.
	Columns []string
	// Row and Field locate a single bad cell for CodeUnparseableValue.
	Row   int
	Field string
	Cause error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Predefined error codes
const (
	CodeMissingColumn    = "MISSING_COLUMN"
	CodeUnparseableValue = "UNPARSEABLE_VALUE"
	CodeEmptyAggregate   = "EMPTY_AGGREGATE"
	CodeExternalResource = "EXTERNAL_RESOURCE"
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeInternalError    = "INTERNAL_ERROR"
)

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, keeping the code of a wrapped AppError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Columns: appErr.Columns,
			Row:     appErr.Row,
			Field:   appErr.Field,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// MissingColumns reports the columns a view needed but the table lacks.
func MissingColumns(cols ...string) *AppError {
	return &AppError{
		Code:    CodeMissingColumn,
		Message: "missing columns: " + strings.Join(cols, ", "),
		Columns: cols,
	}
}

// UnparseableValue reports a single cell that failed type coercion.
func UnparseableValue(row int, field string, cause error) *AppError {
	return &AppError{
		Code:    CodeUnparseableValue,
		Message: fmt.Sprintf("row %d: unparseable %s", row, field),
		Row:     row,
		Field:   field,
		Cause:   cause,
	}
}

func EmptyAggregate(name string) *AppError {
	return New(CodeEmptyAggregate, fmt.Sprintf("%s: no eligible rows", name))
}

func ExternalResource(resource string, cause error) *AppError {
	return &AppError{
		Code:    CodeExternalResource,
		Message: fmt.Sprintf("%s unavailable", resource),
		Cause:   cause,
	}
}

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// GetCode returns the code of the outermost AppError in the chain, or "UNKNOWN".
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	return GetCode(err) == code
}

// MissingFrom returns the missing column names carried by err, if any.
func MissingFrom(err error) []string {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.Code == CodeMissingColumn {
		return appErr.Columns
	}
	return nil
}
