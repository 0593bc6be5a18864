package workflow

// State represents an entity status in its workflow lifecycle
type State string

const (
	StatePending    State = "pending"
	StateApproved   State = "approved"
	StateRejected   State = "rejected"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StatePaid       State = "paid"
)

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
