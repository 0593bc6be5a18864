package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when no edge exists from the current state to the target
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrUnknownStatus is returned when the target state is outside the machine's state domain
	ErrUnknownStatus = errors.New("unknown status")

	// ErrGuardFailed is returned when every edge to the target is blocked by its guard
	ErrGuardFailed = errors.New("guard condition failed")
)
