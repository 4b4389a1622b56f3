package bulk

import "errors"

var (
	// ErrEmptySelection rejects an invocation with nothing selected.
	ErrEmptySelection = errors.New("no items selected")
	// ErrNoEligible rejects an invocation whose every selected item is
	// excluded by the action's rule.
	ErrNoEligible = errors.New("no eligible items selected")
	// ErrUnsupportedAction rejects an action the resource does not offer.
	ErrUnsupportedAction = errors.New("action not supported for this resource")
	// ErrCancelled is returned when the operator declines confirmation.
	ErrCancelled = errors.New("bulk action cancelled")
	// ErrBusy is returned when an invocation is already in progress.
	ErrBusy = errors.New("a bulk action is already in progress")
	// ErrBatchUnsupported tells the orchestrator to fall back to per-item
	// calls.
	ErrBatchUnsupported = errors.New("batch endpoint not available")
)

// GuardError is a rejection decided locally, before any network call.
// Warning marks rejections that are advice rather than failures, such as
// an empty selection.
type GuardError struct {
	Err     error
	Message string
	Warning bool
}

func (e *GuardError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *GuardError) Unwrap() error { return e.Err }

// IsGuard reports whether err is a local rejection.
func IsGuard(err error) bool {
	var ge *GuardError
	return errors.As(err, &ge)
}
