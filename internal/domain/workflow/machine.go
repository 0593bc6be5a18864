package workflow

import "context"

// Machine tracks the current state of one entity instance and validates
// transitions against the configured edges.
type Machine interface {
	// State returns the current state
	State() State

	// CanFire returns true if an edge exists from the current state to target
	CanFire(target State) bool

	// Fire attempts to move to target, returning the edge validation error if
	// the move is not permitted. Firing the current state again is a no-op.
	Fire(ctx context.Context, target State) error

	// PermittedTargets returns every state reachable from the current state
	PermittedTargets() []State

	// IsTerminal returns true when the current state has no outgoing edges
	IsTerminal() bool
}
