package booking

import (
	"errors"
	"fmt"
	"time"
)

// Code classifies booking failures so callers know the next action: fix the
// input, offer the waitlist, re-plan, or retry.
type Code string

const (
	// CodeInvalidRequest marks local validation failures (bad date range,
	// unknown resource type). Never retried.
	CodeInvalidRequest Code = "INVALID_REQUEST"
	// CodeCapacityExhausted means no feasible resource at planning or
	// commit time; the caller should offer the waitlist.
	CodeCapacityExhausted Code = "CAPACITY_EXHAUSTED"
	// CodeCommitConflict means the commit race was lost. The caller must
	// re-invoke the planner; retrying the same resource blindly is wrong
	// because the candidate set may have changed.
	CodeCommitConflict Code = "COMMIT_CONFLICT"
	// CodeLockTimeout is transient lock contention; safe to retry the same
	// commit with backoff.
	CodeLockTimeout Code = "LOCK_TIMEOUT"
	// CodeNotFound marks an unknown resource or reservation id.
	CodeNotFound Code = "NOT_FOUND"
	// CodeInvalidTransition marks a reservation lifecycle operation applied
	// in the wrong state (e.g. check-in on a cancelled reservation).
	CodeInvalidTransition Code = "INVALID_TRANSITION"
)

// Error is a booking failure carrying enough context (resource, requested
// range) for the caller to decide the next action without re-deriving it.
type Error struct {
	Code       Code
	ResourceID string
	Start      time.Time
	End        time.Time
	Detail     string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("booking: %s", e.Code)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.ResourceID != "" {
		msg += fmt.Sprintf(" (resource %s)", e.ResourceID)
	}
	if !e.Start.IsZero() || !e.End.IsZero() {
		msg += fmt.Sprintf(" [%s, %s)", e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
	}
	return msg
}

// Retriable reports whether the same request may be retried without
// re-planning.
func (e *Error) Retriable() bool {
	return e.Code == CodeLockTimeout
}

// IsCode reports whether err is a booking Error with the given code.
func IsCode(err error, code Code) bool {
	var be *Error
	return errors.As(err, &be) && be.Code == code
}

func invalidRequestf(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidRequest, Detail: fmt.Sprintf(format, args...)}
}
