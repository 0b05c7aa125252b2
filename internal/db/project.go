package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Project is a row of the projects table.
type Project struct {
	ID        string
	TenantID  string
	Name      string
	Status    string
	CreatedAt time.Time
}

// SaveProject inserts or updates a project.
func (d *DB) SaveProject(ctx context.Context, p *Project) error {
	_, err := d.ExecContext(ctx, `
		INSERT INTO projects (id, tenant_id, name, status, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status
	`, p.ID, p.TenantID, p.Name, p.Status, formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("save project %s: %w", p.ID, err)
	}
	return nil
}

// GetProject retrieves a project within a tenant.
// Returns nil, nil when it does not exist there.
func (d *DB) GetProject(ctx context.Context, tenantID, id string) (*Project, error) {
	row := d.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, status, created_at
		FROM projects WHERE id = ? AND tenant_id = ?
	`, id, tenantID)

	p, err := scanProject(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	return p, nil
}

// ListProjects returns a tenant's projects ordered by id.
func (d *DB) ListProjects(ctx context.Context, tenantID string) ([]*Project, error) {
	rows, err := d.QueryContext(ctx, `
		SELECT id, tenant_id, name, status, created_at
		FROM projects WHERE tenant_id = ?
		ORDER BY id
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

func scanProject(s rowScanner) (*Project, error) {
	var p Project
	var createdAt string
	if err := s.Scan(&p.ID, &p.TenantID, &p.Name, &p.Status, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &p, nil
}
