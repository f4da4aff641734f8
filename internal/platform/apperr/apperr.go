package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the orchestration core. Callers branch with errors.Is;
// the HTTP layer maps them to response codes.
var (
	// ErrNotFound: a referenced clip, job, campaign or platform row is missing.
	ErrNotFound = errors.New("not_found")

	// ErrUnsupportedJobType: a job's declared type has no registered handler.
	ErrUnsupportedJobType = errors.New("unsupported_job_type")

	// ErrNoSchedulingWindow: the platform has no configured publishing window.
	// Scheduling refuses instead of guessing a window.
	ErrNoSchedulingWindow = errors.New("no_scheduling_window")

	// ErrNoSlotAvailable: the forward scan hit its lookahead cap without
	// finding an open slot.
	ErrNoSlotAvailable = errors.New("no_slot_available")

	// ErrClaimConflict: the best-effort claim path lost the conditional write.
	// Treated as "no job this round", never fatal.
	ErrClaimConflict = errors.New("claim_conflict")

	// ErrRetryable marks a handler failure as transient. The dispatcher
	// re-queues the job instead of failing it, until attempts run out.
	ErrRetryable = errors.New("retryable")
)

// E wraps a sentinel with call-site context while keeping errors.Is intact.
func E(sentinel error, format string, args ...any) error {
	args = append(args, sentinel)
	return fmt.Errorf(format+": %w", args...)
}

// Code returns the short machine code for a core error, or "internal" for
// anything outside the taxonomy.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnsupportedJobType):
		return "unsupported_job_type"
	case errors.Is(err, ErrNoSchedulingWindow):
		return "no_scheduling_window"
	case errors.Is(err, ErrNoSlotAvailable):
		return "no_slot_available"
	case errors.Is(err, ErrClaimConflict):
		return "claim_conflict"
	case errors.Is(err, ErrRetryable):
		return "retryable"
	default:
		return "internal"
	}
}
