package task

// IncompleteDependencies returns the dependency ids that are not done.
//
// statuses holds the current status of every dependency the caller could
// resolve within the task's tenant; ids absent from it (deleted, foreign or
// never existing) count as incomplete. Order follows deps, duplicates are
// reported once.
func IncompleteDependencies(deps []string, statuses map[string]Status) []string {
	var pending []string
	seen := make(map[string]bool, len(deps))
	for _, id := range deps {
		if seen[id] {
			continue
		}
		seen[id] = true
		st, ok := statuses[id]
		if !ok || !IsDone(st) {
			pending = append(pending, id)
		}
	}
	return pending
}
