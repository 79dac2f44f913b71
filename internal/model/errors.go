package model

import (
	"errors"
	"fmt"
)

// Code names a member of the error taxonomy; it is what clients see.
type Code string

const (
	CodeValidation        Code = "ValidationError"
	CodeSlotConflict      Code = "SlotConflict"
	CodeInvalidSlot       Code = "InvalidSlot"
	CodeDoctorUnavailable Code = "DoctorUnavailable"
	CodeNotFound          Code = "NotFound"
	CodeUnauthorized      Code = "Unauthorized"
	CodeForbidden         Code = "Forbidden"
	CodeInvalidTransition Code = "InvalidTransition"
	CodeAlreadyExists     Code = "AlreadyExists"
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrValidation        = &Error{Code: CodeValidation, Message: "invalid request"}
	ErrSlotConflict      = &Error{Code: CodeSlotConflict, Message: "slot is already booked"}
	ErrInvalidSlot       = &Error{Code: CodeInvalidSlot, Message: "time is not a slot of the doctor's schedule"}
	ErrDoctorUnavailable = &Error{Code: CodeDoctorUnavailable, Message: "doctor is not accepting appointments"}
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "not found"}
	ErrUnauthorized      = &Error{Code: CodeUnauthorized, Message: "authentication required"}
	ErrForbidden         = &Error{Code: CodeForbidden, Message: "not allowed"}
	ErrInvalidTransition = &Error{Code: CodeInvalidTransition, Message: "status change not allowed"}
	ErrAlreadyExists     = &Error{Code: CodeAlreadyExists, Message: "already exists"}
)

// Errorf builds an error of the given code with a client-facing message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches cause to a coded error without exposing it to clients.
func Wrap(code Code, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Err: cause}
}

// CodeOf returns the taxonomy code of err, or "" for unclassified errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
