package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"taskdesk/internal/models"
)

type TaskRepository interface {
	Store(ctx context.Context, task *models.TaskRecord) error
	FindByID(ctx context.Context, id int64) (*models.TaskRecord, error)
	FindAll(ctx context.Context) ([]models.TaskRecord, error)
	Update(ctx context.Context, task *models.TaskRecord) error
	Delete(ctx context.Context, id int64) error
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

// completion_details and rework_details are stored as JSONB. JSON array
// order is the audit order, so the ledger round-trips exactly as appended.

func (r *taskRepository) Store(ctx context.Context, task *models.TaskRecord) error {
	completion, rework, attachment, err := marshalHistory(task)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO tasks (
			title, description, tags, assigned_to, due_date, priority, status,
			reference_link, attachment, completion_details, rework_details,
			created_by, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		task.Title, task.Description, pq.Array(task.Tags), task.AssignedTo,
		task.DueDate, task.Priority, task.Status, task.ReferenceLink,
		attachment, completion, rework,
		task.CreatedBy, task.CreatedAt, task.UpdatedAt,
	).Scan(&task.ID)
}

func (r *taskRepository) FindByID(ctx context.Context, id int64) (*models.TaskRecord, error) {
	query := selectTask + ` WHERE id = $1`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) FindAll(ctx context.Context) ([]models.TaskRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectTask+` ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.TaskRecord
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Update(ctx context.Context, task *models.TaskRecord) error {
	completion, rework, attachment, err := marshalHistory(task)
	if err != nil {
		return err
	}
	query := `
		UPDATE tasks SET
			title=$1, description=$2, tags=$3, assigned_to=$4, due_date=$5,
			priority=$6, status=$7, reference_link=$8, attachment=$9,
			completion_details=$10, rework_details=$11, updated_at=$12
		WHERE id=$13`
	_, err = r.db.ExecContext(ctx, query,
		task.Title, task.Description, pq.Array(task.Tags), task.AssignedTo,
		task.DueDate, task.Priority, task.Status, task.ReferenceLink,
		attachment, completion, rework, task.UpdatedAt, task.ID,
	)
	return err
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

const selectTask = `SELECT id, title, description, tags, assigned_to, due_date,
       priority, status, reference_link, attachment, completion_details,
       rework_details, created_by, created_at, updated_at FROM tasks`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*models.TaskRecord, error) {
	task := &models.TaskRecord{}
	var (
		assignedTo sql.NullInt64
		refLink    sql.NullString
		attachment []byte
		completion []byte
		rework     []byte
	)
	err := row.Scan(
		&task.ID, &task.Title, &task.Description, pq.Array(&task.Tags),
		&assignedTo, &task.DueDate, &task.Priority, &task.Status,
		&refLink, &attachment, &completion, &rework,
		&task.CreatedBy, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if assignedTo.Valid {
		v := assignedTo.Int64
		task.AssignedTo = &v
	}
	if refLink.Valid {
		task.ReferenceLink = refLink.String
	}
	if len(attachment) > 0 {
		if err := json.Unmarshal(attachment, &task.Attachment); err != nil {
			return nil, fmt.Errorf("decode attachment for task %d: %w", task.ID, err)
		}
	}
	if len(completion) > 0 {
		if err := json.Unmarshal(completion, &task.Completion); err != nil {
			return nil, fmt.Errorf("decode completion_details for task %d: %w", task.ID, err)
		}
	}
	if len(rework) > 0 {
		if err := json.Unmarshal(rework, &task.ReworkDetails); err != nil {
			return nil, fmt.Errorf("decode rework_details for task %d: %w", task.ID, err)
		}
	}
	return task, nil
}

func marshalHistory(task *models.TaskRecord) (completion, rework, attachment []byte, err error) {
	if task.Completion != nil {
		if completion, err = json.Marshal(task.Completion); err != nil {
			return nil, nil, nil, err
		}
	}
	if len(task.ReworkDetails) > 0 {
		if rework, err = json.Marshal(task.ReworkDetails); err != nil {
			return nil, nil, nil, err
		}
	}
	if task.Attachment != nil {
		if attachment, err = json.Marshal(task.Attachment); err != nil {
			return nil, nil, nil, err
		}
	}
	return completion, rework, attachment, nil
}
