package board

import (
	"errors"

	boarderrors "github.com/randalmurphal/taskboard/internal/errors"
)

// CheckVersion is the early optimistic-concurrency check. The authoritative
// check is the repository's compare-and-swap at commit time.
func CheckVersion(taskID string, stored, expected int64) error {
	if stored != expected {
		return boarderrors.ErrConflict(taskID, expected, stored)
	}
	return nil
}

// rejectionFromCommit converts a repository version or dependency failure
// into the matching board error. ok is false for any other error.
func rejectionFromCommit(err error) (rejection error, ok bool) {
	var stale *StaleVersionError
	if errors.As(err, &stale) {
		return boarderrors.ErrConflict(stale.TaskID, stale.Expected, stale.Current).WithCause(err), true
	}
	var pending *PendingDependenciesError
	if errors.As(err, &pending) {
		return boarderrors.ErrDependenciesIncomplete(pending.TaskID, pending.Pending).WithCause(err), true
	}
	return nil, false
}
