// Package dErrors defines the coded error surface of the engine. Every error
// that crosses a component boundary carries a Code so adapters can map it to
// a transport response deterministically, and so callers can branch on the
// kind without string matching.
package dErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error. The set is closed: adding a code means deciding
// its HTTP mapping and its retry semantics in one place.
type Code string

const (
	// Validation: rejected before any lookup, never retried automatically.
	CodeInvalidInput  Code = "invalid_input"
	CodeBadRequest    Code = "bad_request"
	CodeInvalidAmount Code = "invalid_amount"

	// Not found: caller may retry after correcting input.
	CodeNotFound          Code = "not_found"
	CodeRecipientNotFound Code = "recipient_not_found"

	// State conflicts: terminal for the given request.
	CodeComplianceDenied    Code = "compliance_denied"
	CodeInsufficientFunds   Code = "insufficient_funds"
	CodeAccountNotActive    Code = "account_not_active"
	CodeRecipientNotActive  Code = "recipient_account_not_active"
	CodeSelfTransfer        Code = "self_transfer_not_allowed"
	CodeInvalidTransition   Code = "invalid_transition"
	CodeAccountNotClosable  Code = "account_not_closable"
	CodeConflict            Code = "conflict"
	CodeUnauthorized        Code = "unauthorized"

	// Transient: safe to retry the acquisition, never the business logic.
	CodeTimeout Code = "timeout"

	// CodeInconsistent marks an unrecoverable inconsistency (a failed
	// compensation). It must never be masked as a generic failure:
	// operational tooling alerts on it.
	CodeInconsistent Code = "inconsistent_state"

	CodeInternal Code = "internal_error"
)

// Error is the structured error type: kind plus human context plus an
// optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and context to an underlying cause.
func Wrap(code Code, message string, cause error) error {
	return &Error{Code: code, Message: message, cause: cause}
}

// CodeOf extracts the code from an error chain, defaulting to CodeInternal
// for anything uncoded.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// MessageOf returns the human message of a coded error, or the raw Error()
// text for anything uncoded.
func MessageOf(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Message
	}
	return err.Error()
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}

// ToHTTPStatus maps a code to its transport status. Unknown codes are
// treated as internal so nothing leaks by accident.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeBadRequest, CodeInvalidAmount:
		return http.StatusBadRequest
	case CodeNotFound, CodeRecipientNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeComplianceDenied:
		return http.StatusForbidden
	case CodeInsufficientFunds, CodeAccountNotActive, CodeRecipientNotActive,
		CodeSelfTransfer, CodeInvalidTransition, CodeAccountNotClosable:
		return http.StatusUnprocessableEntity
	case CodeConflict:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusServiceUnavailable
	case CodeInconsistent, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
