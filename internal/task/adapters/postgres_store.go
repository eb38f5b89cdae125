package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskhub/internal/task/domain"
	"taskhub/internal/task/ports"
)

const taskColumns = `id, owner_id, title, description, notes, category, tags, priority,
	due_date, due_time, due_at, start_at, end_at,
	status, completed_at, overdue_at,
	locked_after_due, notifications_muted, snoozed_until, partially_resolved, notify_on_start,
	duplicated_from_task_id, created_at, updated_at`

// PostgresTaskRepo implements ports.TaskRepository on a pgx pool. It expects
// the tasks and task_subtasks tables from the schema migrations.
type PostgresTaskRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresTaskRepo wraps a pool.
func NewPostgresTaskRepo(pool *pgxpool.Pool) *PostgresTaskRepo {
	return &PostgresTaskRepo{pool: pool}
}

var _ ports.TaskRepository = (*PostgresTaskRepo)(nil)

func (r *PostgresTaskRepo) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Task{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)`,
		task.ID, task.OwnerID, task.Title, task.Description, task.Notes, task.Category, task.Tags, string(task.Priority),
		task.DueDate, task.DueTime, task.DueAt, task.StartAt, task.EndAt,
		string(task.Status), task.CompletedAt, task.OverdueAt,
		task.LockedAfterDue, task.NotificationsMuted, task.SnoozedUntil, task.PartiallyResolved, task.NotifyOnStart,
		task.DuplicatedFromID, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	if err := insertSubtasks(ctx, tx, task.ID, task.Subtasks); err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Task{}, fmt.Errorf("commit: %w", err)
	}
	return task, nil
}

func (r *PostgresTaskRepo) Get(ctx context.Context, ownerID, id string) (domain.Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	task, err := scanTask(row)
	if err != nil {
		return domain.Task{}, err
	}
	if err := r.loadSubtasks(ctx, &task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

func (r *PostgresTaskRepo) Update(ctx context.Context, task domain.Task, expectedUpdatedAt time.Time) (domain.Task, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE tasks SET
		title = $4, description = $5, notes = $6, category = $7, tags = $8, priority = $9,
		due_date = $10, due_time = $11, due_at = $12, start_at = $13, end_at = $14,
		status = $15, completed_at = $16, overdue_at = $17,
		locked_after_due = $18, notifications_muted = $19, snoozed_until = $20,
		partially_resolved = $21, notify_on_start = $22, updated_at = $23
		WHERE id = $1 AND owner_id = $2 AND updated_at = $3`,
		task.ID, task.OwnerID, expectedUpdatedAt,
		task.Title, task.Description, task.Notes, task.Category, task.Tags, string(task.Priority),
		task.DueDate, task.DueTime, task.DueAt, task.StartAt, task.EndAt,
		string(task.Status), task.CompletedAt, task.OverdueAt,
		task.LockedAfterDue, task.NotificationsMuted, task.SnoozedUntil,
		task.PartiallyResolved, task.NotifyOnStart, task.UpdatedAt)
	if err != nil {
		return domain.Task{}, fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the row is gone or someone got there first.
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1 AND owner_id = $2)`,
			task.ID, task.OwnerID).Scan(&exists); err != nil {
			return domain.Task{}, fmt.Errorf("update task: %w", err)
		}
		if !exists {
			return domain.Task{}, domain.ErrNotFound
		}
		return domain.Task{}, domain.ErrConflict
	}
	return task, nil
}

func (r *PostgresTaskRepo) List(ctx context.Context, ownerID string, filter ports.ListFilter) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1`
	args := []any{ownerID}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	query += ` ORDER BY due_at ASC NULLS LAST, created_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, err
	}
	return tasks, r.loadSubtasksBulk(ctx, tasks)
}

func (r *PostgresTaskRepo) ListDueBefore(ctx context.Context, before time.Time) ([]domain.Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE status = $1 AND due_at IS NOT NULL AND due_at < $2`,
		string(domain.StatusPending), before)
	if err != nil {
		return nil, fmt.Errorf("list due tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *PostgresTaskRepo) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresTaskRepo) ReplaceSubtasks(ctx context.Context, ownerID, taskID string, subtasks []domain.Subtask) (domain.Task, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Task{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	tag, err := tx.Exec(ctx, `UPDATE tasks SET updated_at = $3 WHERE id = $1 AND owner_id = $2`, taskID, ownerID, now)
	if err != nil {
		return domain.Task{}, fmt.Errorf("touch task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Task{}, domain.ErrNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM task_subtasks WHERE task_id = $1`, taskID); err != nil {
		return domain.Task{}, fmt.Errorf("clear subtasks: %w", err)
	}
	if err := insertSubtasks(ctx, tx, taskID, subtasks); err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Task{}, fmt.Errorf("commit: %w", err)
	}
	return r.Get(ctx, ownerID, taskID)
}

func insertSubtasks(ctx context.Context, tx pgx.Tx, taskID string, subtasks []domain.Subtask) error {
	for i, sub := range subtasks {
		_, err := tx.Exec(ctx,
			`INSERT INTO task_subtasks (id, task_id, title, completed, position) VALUES ($1,$2,$3,$4,$5)`,
			sub.ID, taskID, sub.Title, sub.Completed, i)
		if err != nil {
			return fmt.Errorf("insert subtask: %w", err)
		}
	}
	return nil
}

func (r *PostgresTaskRepo) loadSubtasks(ctx context.Context, task *domain.Task) error {
	rows, err := r.pool.Query(ctx,
		`SELECT id, task_id, title, completed FROM task_subtasks WHERE task_id = $1 ORDER BY position`, task.ID)
	if err != nil {
		return fmt.Errorf("load subtasks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sub domain.Subtask
		if err := rows.Scan(&sub.ID, &sub.TaskID, &sub.Title, &sub.Completed); err != nil {
			return fmt.Errorf("scan subtask: %w", err)
		}
		task.Subtasks = append(task.Subtasks, sub)
	}
	return rows.Err()
}

func (r *PostgresTaskRepo) loadSubtasksBulk(ctx context.Context, tasks []domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]string, len(tasks))
	index := make(map[string]*domain.Task, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
		index[tasks[i].ID] = &tasks[i]
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, task_id, title, completed FROM task_subtasks WHERE task_id = ANY($1) ORDER BY task_id, position`, ids)
	if err != nil {
		return fmt.Errorf("load subtasks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sub domain.Subtask
		if err := rows.Scan(&sub.ID, &sub.TaskID, &sub.Title, &sub.Completed); err != nil {
			return fmt.Errorf("scan subtask: %w", err)
		}
		if task, ok := index[sub.TaskID]; ok {
			task.Subtasks = append(task.Subtasks, sub)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (domain.Task, error) {
	var task domain.Task
	err := row.Scan(
		&task.ID, &task.OwnerID, &task.Title, &task.Description, &task.Notes, &task.Category, &task.Tags, &task.Priority,
		&task.DueDate, &task.DueTime, &task.DueAt, &task.StartAt, &task.EndAt,
		&task.Status, &task.CompletedAt, &task.OverdueAt,
		&task.LockedAfterDue, &task.NotificationsMuted, &task.SnoozedUntil, &task.PartiallyResolved, &task.NotifyOnStart,
		&task.DuplicatedFromID, &task.CreatedAt, &task.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Task{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Task{}, fmt.Errorf("scan task: %w", err)
	}
	return task, nil
}

func collectTasks(rows pgx.Rows) ([]domain.Task, error) {
	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
