package task

// ProjectProgress derives progress_percent for a task entering target.
// Done forces 100 and Backlog forces 0; every other target keeps current.
func ProjectProgress(target Status, current float64) float64 {
	switch target {
	case StatusDone:
		return 100
	case StatusBacklog:
		return 0
	default:
		return current
	}
}
