package plan

import "fmt"

// Status represents how far along an Element is. The set is closed; ordering
// between statuses is not linear, and composite elements derive theirs from
// an explicit precedence list (see the status aggregation in parent.go).
type Status string

const (
	// StatusPending indicates the element has not yet started and has no error.
	StatusPending Status = "PENDING"

	// StatusPrepared indicates preconditions are satisfied and the element is
	// awaiting scheduling.
	StatusPrepared Status = "PREPARED"

	// StatusStarting indicates work has been dispatched and the element is
	// awaiting confirmation that it is under way.
	StatusStarting Status = "STARTING"

	// StatusInProgress indicates work is confirmed under way.
	StatusInProgress Status = "IN_PROGRESS"

	// StatusWaiting indicates the element is blocked, either by an
	// interruption or by a truly waiting child.
	StatusWaiting Status = "WAITING"

	// StatusComplete indicates terminal success.
	StatusComplete Status = "COMPLETE"

	// StatusError indicates failure. Unlike StatusWaiting, its presence
	// anywhere in a subtree poisons every ancestor's status to ERROR.
	StatusError Status = "ERROR"
)

// IsComplete returns true if the status represents terminal success.
func (s Status) IsComplete() bool {
	return s == StatusComplete
}

// IsRunning returns true if work is dispatched or confirmed under way.
func (s Status) IsRunning() bool {
	return s == StatusStarting || s == StatusInProgress
}

// Validate checks that the status is a member of the closed set.
func (s Status) Validate() error {
	switch s {
	case StatusPending, StatusPrepared, StatusStarting, StatusInProgress,
		StatusWaiting, StatusComplete, StatusError:
		return nil
	default:
		return fmt.Errorf("invalid status: %s", s)
	}
}

// AnyHaveStatus returns true if at least one element in elems currently
// reports the given status.
func AnyHaveStatus[C Element](status Status, elems []C) bool {
	for _, e := range elems {
		if e.Status() == status {
			return true
		}
	}
	return false
}

// AllHaveStatus returns true if every element in elems currently reports the
// given status. It is vacuously true for an empty slice, which is what makes
// an empty plan COMPLETE.
func AllHaveStatus[C Element](status Status, elems []C) bool {
	for _, e := range elems {
		if e.Status() != status {
			return false
		}
	}
	return true
}
