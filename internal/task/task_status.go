// Package task provides the task model and the pure workflow rules for the board.
package task

// Status represents the board column a task currently occupies.
type Status string

const (
	StatusBacklog    Status = "backlog"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusDone       Status = "done"     // Terminal for dependency purposes: the only "complete" status
	StatusCanceled   Status = "canceled" // Abandoned; never satisfies a dependency
)

// ValidStatuses returns all valid status values in board column order.
func ValidStatuses() []Status {
	return []Status{
		StatusBacklog, StatusInProgress, StatusBlocked, StatusDone, StatusCanceled,
	}
}

// IsValidStatus returns true if the status is a valid status value.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusBacklog, StatusInProgress, StatusBlocked, StatusDone, StatusCanceled:
		return true
	default:
		return false
	}
}

// ParseStatus converts a wire value into a Status.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	return st, IsValidStatus(st)
}

// IsDone returns true if the status indicates the task has completed its work.
// This is used for dependency checking - a dependency is satisfied when it's done.
func IsDone(s Status) bool {
	return s == StatusDone
}

// String returns the wire representation.
func (s Status) String() string {
	return string(s)
}
