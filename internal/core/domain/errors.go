package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a calculation failure.
type Kind string

const (
	KindMalformedRequest            Kind = "malformed_request"
	KindInvalidPolygon              Kind = "invalid_polygon"
	KindInsufficientSamplingDensity Kind = "insufficient_sampling_density"
	KindIrregularSampleSet          Kind = "irregular_sample_set"
	KindPointOutsideHull            Kind = "point_outside_hull"
	KindSampleSetTooLarge           Kind = "sample_set_too_large"
)

// Sentinels for errors.Is; they match any *Error of the same Kind.
var (
	ErrMalformedRequest            = &Error{Kind: KindMalformedRequest}
	ErrInvalidPolygon              = &Error{Kind: KindInvalidPolygon}
	ErrInsufficientSamplingDensity = &Error{Kind: KindInsufficientSamplingDensity}
	ErrIrregularSampleSet          = &Error{Kind: KindIrregularSampleSet}
	ErrPointOutsideHull            = &Error{Kind: KindPointOutsideHull}
	ErrSampleSetTooLarge           = &Error{Kind: KindSampleSetTooLarge}
)

// Error is a terminal calculation failure. Reason is a stable sub-reason
// (e.g. "self_intersecting"), Message is for humans.
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can compare against the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Reason == "" || t.Reason == e.Reason)
}

// NewError builds an *Error with a formatted message.
func NewError(kind Kind, reason, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// Malformed is shorthand for a MalformedRequest error.
func Malformed(format string, args ...any) *Error {
	return NewError(KindMalformedRequest, "", format, args...)
}

// AsError extracts the *Error from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
