package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is the stable category carried by every surfaced error.
type ErrorCode string

const (
	CodeValidation           ErrorCode = "validation"
	CodeNotFound             ErrorCode = "not_found"
	CodeAuthorization        ErrorCode = "authorization"
	CodeUpstreamDependency   ErrorCode = "upstream_dependency"
	CodeMalformedModelOutput ErrorCode = "malformed_model_output"
	CodeStateConflict        ErrorCode = "state_conflict"
	CodeQuotaExceeded        ErrorCode = "quota_exceeded"
	CodeInternal             ErrorCode = "internal"
)

// Error is the canonical error wrapper for the brief lifecycle.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates err with code unless it already carries one.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return NewError(code, op, err.Error(), err)
}

func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

func CodeOf(err error) ErrorCode {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Code
}

// MessageOf returns the human-readable message without op/code decoration.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// IsRetryable reports whether a stage failure may be retried by the scheduler.
// Malformed model output counts as an upstream failure.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case CodeUpstreamDependency, CodeMalformedModelOutput:
		return true
	case "":
		return err != nil
	default:
		return false
	}
}

func ValidationError(op, msg string) error {
	return NewError(CodeValidation, op, msg, nil)
}

func NotFoundError(op, msg string) error {
	return NewError(CodeNotFound, op, msg, nil)
}

func AuthorizationError(op string) error {
	return NewError(CodeAuthorization, op, "caller does not own this session", nil)
}

func StateConflictError(op string, status SessionStatus, action string) error {
	return NewError(CodeStateConflict, op, fmt.Sprintf("cannot %s while session is %s", action, status), nil)
}

func UpstreamError(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(CodeUpstreamDependency, op, err.Error(), err)
}

func MalformedOutputError(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(CodeMalformedModelOutput, op, err.Error(), err)
}
