package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/randalmurphal/taskboard/internal/project"
)

// GetProject returns the project within the tenant, or nil when missing.
func (b *DatabaseBackend) GetProject(ctx context.Context, tenantID, id string) (*project.Project, error) {
	row, err := b.db.GetProject(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return projectFromRow(row), nil
}

// SaveProject inserts or updates a project.
func (b *DatabaseBackend) SaveProject(ctx context.Context, p *project.Project) error {
	if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.TenantID) == "" {
		return fmt.Errorf("save project: id and tenant are required")
	}
	if !project.IsValidStatus(p.Status) {
		return fmt.Errorf("save project %s: invalid status %q", p.ID, p.Status)
	}
	row := projectToRow(p)
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return b.db.SaveProject(ctx, row)
}

// ListProjects returns the tenant's projects ordered by id.
func (b *DatabaseBackend) ListProjects(ctx context.Context, tenantID string) ([]*project.Project, error) {
	rows, err := b.db.ListProjects(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	projects := make([]*project.Project, 0, len(rows))
	for _, r := range rows {
		projects = append(projects, projectFromRow(r))
	}
	return projects, nil
}
