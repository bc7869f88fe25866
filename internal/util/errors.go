package util

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrNotOperator       = errors.New("caller is not an operator")
	ErrTestNotFound      = errors.New("test not found")
	ErrInvalidTransition = errors.New("invalid test state transition")
	ErrMissingKey        = errors.New("answer key is not set")
	ErrInvalidTest       = errors.New("invalid test parameters")
	ErrNoSubmissions     = errors.New("test has no submissions")
	ErrBadSubmission     = errors.New("submission must look like <test_id>*<answers>")
	ErrUnknownOutcome    = errors.New("submission outcome unknown, check your result before retrying")
	ErrSubmissionMissing = errors.New("no submission for this test")
)

// RejectionReason is the stable code reported to participants for refused submissions.
type RejectionReason string

const (
	ReasonUnregistered   RejectionReason = "unregistered"
	ReasonUnknownTest    RejectionReason = "unknown_test"
	ReasonNotActive      RejectionReason = "not_active"
	ReasonMissingKey     RejectionReason = "missing_key"
	ReasonWindowExpired  RejectionReason = "window_expired"
	ReasonLengthMismatch RejectionReason = "length_mismatch"
	ReasonDuplicate      RejectionReason = "duplicate"
)

// RejectionError is returned when a submission is refused. Expected and Actual
// are only set for ReasonLengthMismatch.
type RejectionError struct {
	Reason   RejectionReason
	Expected int
	Actual   int
}

func (e *RejectionError) Error() string {
	switch e.Reason {
	case ReasonUnregistered:
		return "participant is not registered"
	case ReasonUnknownTest:
		return "test does not exist"
	case ReasonNotActive:
		return "test is not active"
	case ReasonMissingKey:
		return "test has no answer key"
	case ReasonWindowExpired:
		return "test window has closed"
	case ReasonLengthMismatch:
		return fmt.Sprintf("expected %d answers, got %d", e.Expected, e.Actual)
	case ReasonDuplicate:
		return "answers already submitted for this test"
	}
	return string(e.Reason)
}

func Reject(reason RejectionReason) *RejectionError {
	return &RejectionError{Reason: reason}
}

// LengthMismatch is used both for answer keys and for submissions.
func LengthMismatch(expected, actual int) *RejectionError {
	return &RejectionError{Reason: ReasonLengthMismatch, Expected: expected, Actual: actual}
}

// RejectionReasonOf returns the reason carried by err, if any.
func RejectionReasonOf(err error) (RejectionReason, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej.Reason, true
	}
	return "", false
}
