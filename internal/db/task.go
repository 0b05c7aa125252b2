package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// timeFormat is fixed width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// queryer is satisfied by both *DB and *Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Task is a row of the tasks table with its dependency list.
type Task struct {
	ID              string
	TenantID        string
	ProjectID       string
	Title           string
	Status          string
	Version         int64
	SortOrder       float64
	ProgressPercent float64
	Dependencies    []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ColumnEntry is the position of one task within a column.
type ColumnEntry struct {
	ID        string
	SortOrder float64
}

// TaskMove is the conditional update applied by a move.
type TaskMove struct {
	ID              string
	TenantID        string
	ExpectedVersion int64
	Status          string
	SortOrder       float64
	ProgressPercent float64
	UpdatedAt       time.Time
}

const taskColumns = `id, tenant_id, project_id, title, status, version, sort_order, progress_percent, created_at, updated_at`

// CreateTask inserts a task and its dependencies in one transaction.
func (d *DB) CreateTask(ctx context.Context, t *Task) error {
	return d.RunInTx(ctx, func(tx *Tx) error {
		return CreateTaskTx(ctx, tx, t)
	})
}

// CreateTaskTx inserts a task and its dependencies through an open
// transaction.
func CreateTaskTx(ctx context.Context, tx *Tx, t *Task) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.TenantID, t.ProjectID, t.Title, t.Status, t.Version, t.SortOrder,
		t.ProgressPercent, formatTime(t.CreatedAt), formatTime(t.UpdatedAt)); err != nil {
		return fmt.Errorf("insert task %s: %w", t.ID, err)
	}
	for i, dep := range t.Dependencies {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO task_dependencies (task_id, depends_on, position) VALUES (?, ?, ?)`,
			t.ID, dep, i); err != nil {
			return fmt.Errorf("insert dependency %s -> %s: %w", t.ID, dep, err)
		}
	}
	return nil
}

// GetTask retrieves a task by ID regardless of tenant.
// Returns nil, nil when the task does not exist.
func (d *DB) GetTask(ctx context.Context, id string) (*Task, error) {
	return getTask(ctx, d, id)
}

// GetTaskTx retrieves a task through an open transaction.
func GetTaskTx(ctx context.Context, tx *Tx, id string) (*Task, error) {
	return getTask(ctx, tx, id)
}

func getTask(ctx context.Context, q queryer, id string) (*Task, error) {
	row := q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}

	deps, err := taskDependencies(ctx, q, id)
	if err != nil {
		return nil, err
	}
	t.Dependencies = deps
	return t, nil
}

// ListProjectTasks returns every task of a project within a tenant,
// ordered by status, position and id.
func (d *DB) ListProjectTasks(ctx context.Context, tenantID, projectID string) ([]*Task, error) {
	rows, err := d.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE tenant_id = ? AND project_id = ?
		ORDER BY status, sort_order, id
	`, tenantID, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*Task
	byID := make(map[string]*Task)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
		byID[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	_ = rows.Close()

	// Batch load dependencies for the whole project.
	depRows, err := d.QueryContext(ctx, `
		SELECT d.task_id, d.depends_on
		FROM task_dependencies d
		JOIN tasks t ON t.id = d.task_id
		WHERE t.tenant_id = ? AND t.project_id = ?
		ORDER BY d.task_id, d.position
	`, tenantID, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project dependencies: %w", err)
	}
	defer func() { _ = depRows.Close() }()

	for depRows.Next() {
		var taskID, dependsOn string
		if err := depRows.Scan(&taskID, &dependsOn); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		if t, ok := byID[taskID]; ok {
			t.Dependencies = append(t.Dependencies, dependsOn)
		}
	}
	if err := depRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dependencies: %w", err)
	}

	return tasks, nil
}

// ListColumn returns the positions of every task in one column, ordered by
// position then id.
func (d *DB) ListColumn(ctx context.Context, tenantID, projectID, status string) ([]ColumnEntry, error) {
	rows, err := d.QueryContext(ctx, `
		SELECT id, sort_order FROM tasks
		WHERE tenant_id = ? AND project_id = ? AND status = ?
		ORDER BY sort_order, id
	`, tenantID, projectID, status)
	if err != nil {
		return nil, fmt.Errorf("list column %s: %w", status, err)
	}
	defer func() { _ = rows.Close() }()

	var entries []ColumnEntry
	for rows.Next() {
		var e ColumnEntry
		if err := rows.Scan(&e.ID, &e.SortOrder); err != nil {
			return nil, fmt.Errorf("scan column entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column: %w", err)
	}
	return entries, nil
}

// TaskStatuses returns the status of each id that exists within the tenant.
func (d *DB) TaskStatuses(ctx context.Context, tenantID string, ids []string) (map[string]string, error) {
	return taskStatuses(ctx, d, tenantID, ids)
}

// TaskStatusesTx is TaskStatuses through an open transaction.
func TaskStatusesTx(ctx context.Context, tx *Tx, tenantID string, ids []string) (map[string]string, error) {
	return taskStatuses(ctx, tx, tenantID, ids)
}

func taskStatuses(ctx context.Context, q queryer, tenantID string, ids []string) (map[string]string, error) {
	statuses := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return statuses, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, tenantID)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")

	rows, err := q.QueryContext(ctx,
		`SELECT id, status FROM tasks WHERE tenant_id = ? AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("task statuses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, fmt.Errorf("scan task status: %w", err)
		}
		statuses[id] = status
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task statuses: %w", err)
	}
	return statuses, nil
}

// MoveTaskTx applies m if the stored version still equals m.ExpectedVersion
// and increments the version. Returns false when no row matched.
func MoveTaskTx(ctx context.Context, tx *Tx, m TaskMove) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE tasks
		SET status = ?, sort_order = ?, progress_percent = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND tenant_id = ? AND version = ?
	`, m.Status, m.SortOrder, m.ProgressPercent, formatTime(m.UpdatedAt), m.ID, m.TenantID, m.ExpectedVersion)
	if err != nil {
		return false, fmt.Errorf("move task %s: %w", m.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("move task %s: rows affected: %w", m.ID, err)
	}
	return n > 0, nil
}

// TaskVersionTx reads the stored version of a task within the tenant.
// found is false when no such task exists.
func TaskVersionTx(ctx context.Context, tx *Tx, tenantID, id string) (version int64, found bool, err error) {
	err = tx.QueryRowContext(ctx,
		`SELECT version FROM tasks WHERE id = ? AND tenant_id = ?`, id, tenantID).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read version of task %s: %w", id, err)
	}
	return version, true, nil
}

// SetSortOrderTx repositions a task, provided it is still in the given
// column. Returns false when the task has left the column.
func SetSortOrderTx(ctx context.Context, tx *Tx, tenantID, projectID, status, id string, sortOrder float64) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE tasks SET sort_order = ?
		WHERE id = ? AND tenant_id = ? AND project_id = ? AND status = ?
	`, sortOrder, id, tenantID, projectID, status)
	if err != nil {
		return false, fmt.Errorf("reposition task %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reposition task %s: rows affected: %w", id, err)
	}
	return n > 0, nil
}

func taskDependencies(ctx context.Context, q queryer, taskID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT depends_on FROM task_dependencies WHERE task_id = ? ORDER BY position`, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task dependencies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	deps := []string{}
	for rows.Next() {
		var dep string
		if err := rows.Scan(&dep); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		deps = append(deps, dep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dependencies: %w", err)
	}
	return deps, nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(s rowScanner) (*Task, error) {
	var t Task
	var createdAt, updatedAt string
	if err := s.Scan(&t.ID, &t.TenantID, &t.ProjectID, &t.Title, &t.Status, &t.Version,
		&t.SortOrder, &t.ProgressPercent, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	t.Dependencies = []string{}
	return &t, nil
}
