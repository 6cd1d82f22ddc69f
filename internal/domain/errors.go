package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the root of every "unknown id" error.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for malformed or missing fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized covers bad credentials and missing or invalid tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means the caller is authenticated but not allowed.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict means the request is well formed but clashes with current state.
	ErrConflict = errors.New("conflict")

	ErrActivityNotFound   = fmt.Errorf("activity %w", ErrNotFound)
	ErrStudentNotFound    = fmt.Errorf("student %w", ErrNotFound)
	ErrQuestionNotFound   = fmt.Errorf("question %w", ErrNotFound)
	ErrResultNotFound     = fmt.Errorf("result %w", ErrNotFound)
	ErrEnrollmentNotFound = fmt.Errorf("enrollment %w", ErrNotFound)
	ErrAdminNotFound      = fmt.Errorf("admin %w", ErrNotFound)

	// ErrNotEnrolled is returned when a student starts a session for an activity they are not assigned to.
	ErrNotEnrolled = fmt.Errorf("student not assigned to this activity: %w", ErrForbidden)

	// ErrInvalidTransition is returned for lifecycle moves the state machine does not allow.
	ErrInvalidTransition = fmt.Errorf("invalid activity transition: %w", ErrConflict)
	// ErrActivityLocked is returned when editing an activity that already left pending.
	ErrActivityLocked = fmt.Errorf("activity can only be edited while pending: %w", ErrConflict)
	// ErrAlreadyEnrolled guards the one-row-per-pair enrollment invariant.
	ErrAlreadyEnrolled = fmt.Errorf("student already assigned to this activity: %w", ErrConflict)
	// ErrSessionFinished is returned when writing to, or restarting, a finished attempt.
	ErrSessionFinished = fmt.Errorf("quiz session already finished: %w", ErrConflict)
	// ErrDuplicateAdmin guards unique admin usernames.
	ErrDuplicateAdmin = fmt.Errorf("username already taken: %w", ErrConflict)
)

// InvalidInput wraps a human readable reason into ErrInvalidInput.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}
