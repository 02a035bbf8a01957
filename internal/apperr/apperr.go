// Package apperr defines the structured failure kinds raised by the
// FleetLink services, so the HTTP boundary can map failures to status
// codes without inspecting message strings.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a service failure.
type Kind int

const (
	Internal Kind = iota
	InvalidPincode
	InvalidTimeFormat
	PastStartTime
	InvalidDuration
	MissingFields
	NotFound
	VehicleNotActive
	SlotUnavailable
	DuplicateRegistration
	HasActiveBookings
	AlreadyCompleted
	AlreadyCancelled
	TooCloseToStart
	NotCancelled
	Validation
)

// Error couples a failure kind with its message and optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a stage prefix to err. If err already carries a kind, the
// kind is preserved so boundary mapping stays exact through re-wrapping.
func Wrap(msg string, err error) error {
	return &Error{Kind: KindOf(err), Msg: msg, Err: err}
}

// KindOf extracts the kind from err, or Internal when err carries none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Status maps a failure to its HTTP status code.
func Status(err error) int {
	switch KindOf(err) {
	case InvalidPincode, InvalidTimeFormat, PastStartTime, InvalidDuration, MissingFields, Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case VehicleNotActive:
		return http.StatusBadRequest
	case SlotUnavailable, DuplicateRegistration, HasActiveBookings, TooCloseToStart, NotCancelled, AlreadyCompleted, AlreadyCancelled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
