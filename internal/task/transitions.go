package task

// edge describes one legal status change.
type edge struct {
	to             Status
	reasonRequired bool
}

// transitions is the workflow. Targets are listed in the order clients
// should present them.
var transitions = map[Status][]edge{
	StatusBacklog: {
		{to: StatusInProgress},
		{to: StatusCanceled, reasonRequired: true},
	},
	StatusInProgress: {
		{to: StatusBacklog},
		{to: StatusBlocked, reasonRequired: true},
		{to: StatusDone},
		{to: StatusCanceled, reasonRequired: true},
	},
	StatusBlocked: {
		{to: StatusInProgress},
		{to: StatusCanceled, reasonRequired: true},
	},
	StatusDone: {
		{to: StatusInProgress, reasonRequired: true},
	},
	StatusCanceled: {
		{to: StatusBacklog},
	},
}

// gatedStatuses are the targets that require every dependency to be done.
var gatedStatuses = map[Status]bool{
	StatusInProgress: true,
	StatusDone:       true,
}

// AllowedTargets returns the complete set of statuses reachable from current.
// The result is a fresh slice; callers may keep or modify it.
func AllowedTargets(current Status) []Status {
	edges := transitions[current]
	out := make([]Status, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.to)
	}
	return out
}

// AllowedTargetStrings is AllowedTargets in wire form.
func AllowedTargetStrings(current Status) []string {
	targets := AllowedTargets(current)
	out := make([]string, len(targets))
	for i, s := range targets {
		out[i] = string(s)
	}
	return out
}

// CanTransition reports whether moving from -> to is part of the workflow.
// A same-status move is a reorder and is not a transition.
func CanTransition(from, to Status) bool {
	_, ok := lookup(from, to)
	return ok
}

// RequiresReason reports whether from -> to needs a justification.
// Unknown edges never require one; legality is checked separately.
func RequiresReason(from, to Status) bool {
	e, ok := lookup(from, to)
	return ok && e.reasonRequired
}

// RequiresDependencies reports whether entering target is gated on
// dependency completion.
func RequiresDependencies(target Status) bool {
	return gatedStatuses[target]
}

func lookup(from, to Status) (edge, bool) {
	for _, e := range transitions[from] {
		if e.to == to {
			return e, true
		}
	}
	return edge{}, false
}

// Transition is the exported view of one table edge, used by the API and CLI.
type Transition struct {
	From           Status `json:"from"`
	To             Status `json:"to"`
	ReasonRequired bool   `json:"reason_required"`
}

// Table returns every edge of the workflow in column order.
func Table() []Transition {
	var out []Transition
	for _, from := range ValidStatuses() {
		for _, e := range transitions[from] {
			out = append(out, Transition{From: from, To: e.to, ReasonRequired: e.reasonRequired})
		}
	}
	return out
}
