// Package project models the board's owning project and the gate that
// decides whether its tasks may be mutated.
package project

import "time"

// Status is the lifecycle state of a project.
type Status string

const (
	StatusActive   Status = "active"
	StatusOnHold   Status = "on_hold"
	StatusArchived Status = "archived"
)

// IsValidStatus returns true if the status is a known project status.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusOnHold, StatusArchived:
		return true
	default:
		return false
	}
}

// Project is read-only from the board's perspective.
type Project struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CanMutate reports whether tasks of a project in status s may change.
// Anything other than active, including unknown values, is restricted.
func CanMutate(s Status) bool {
	return s == StatusActive
}

// CanMutate reports whether the project's tasks may change.
func (p *Project) CanMutate() bool {
	return p != nil && CanMutate(p.Status)
}
