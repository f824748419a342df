package models

import (
	"fmt"
	"sort"
	"strings"
)

type ErrorCode string

const (
	CodeInvalidTransition           ErrorCode = "invalid_transition"
	CodeCapacityExceeded            ErrorCode = "capacity_exceeded"
	CodeDuplicateArticleNumber      ErrorCode = "duplicate_article_number"
	CodePublicationGateNotSatisfied ErrorCode = "publication_gate_not_satisfied"
	CodeStepsSkipped                ErrorCode = "steps_skipped"
	CodeValidationFailed            ErrorCode = "validation_failed"
	CodeNotFound                    ErrorCode = "not_found"
	CodeForbidden                   ErrorCode = "forbidden"
	CodeUnauthorized                ErrorCode = "unauthorized"
)

// Sentinels for errors.Is. Matching is by code only, so any *Error carrying
// the same code compares equal regardless of message.
var (
	ErrInvalidTransition           = &Error{Code: CodeInvalidTransition}
	ErrCapacityExceeded            = &Error{Code: CodeCapacityExceeded}
	ErrDuplicateArticleNumber      = &Error{Code: CodeDuplicateArticleNumber}
	ErrPublicationGateNotSatisfied = &Error{Code: CodePublicationGateNotSatisfied}
	ErrStepsSkipped                = &Error{Code: CodeStepsSkipped}
	ErrValidationFailed            = &Error{Code: CodeValidationFailed}
	ErrNotFound                    = &Error{Code: CodeNotFound}
	ErrForbidden                   = &Error{Code: CodeForbidden}
	ErrUnauthorized                = &Error{Code: CodeUnauthorized}
)

// Error is the single error type returned by the workflow core. Every code is
// recoverable; a failed operation leaves stored state untouched.
type Error struct {
	Code    ErrorCode
	Message string
	// Rule names the first unmet publication gate rule.
	Rule string
	// Fields holds per-field validation messages keyed by field name.
	Fields map[string][]string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(what string) *Error {
	return NewError(CodeNotFound, "%s not found", what)
}

func Forbidden(format string, args ...any) *Error {
	return NewError(CodeForbidden, format, args...)
}

func InvalidTransition(format string, args ...any) *Error {
	return NewError(CodeInvalidTransition, format, args...)
}

// ValidationErrors collects field messages before turning them into an *Error.
type ValidationErrors map[string][]string

func (v ValidationErrors) Add(field, format string, args ...any) {
	v[field] = append(v[field], fmt.Sprintf(format, args...))
}

func (v ValidationErrors) Merge(other ValidationErrors) {
	for field, msgs := range other {
		v[field] = append(v[field], msgs...)
	}
}

// Err returns nil when nothing was collected.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(v[field], "; "))
	}
	return &Error{
		Code:    CodeValidationFailed,
		Message: "validation failed: " + strings.Join(parts, ", "),
		Fields:  map[string][]string(v),
	}
}
