// internal/services/task_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"taskdesk/internal/models"
	"taskdesk/internal/repositories"
)

const (
	maxTitleLen       = 100
	maxDescriptionLen = 500
)

// TaskService defines the interface for task-related business logic. All
// mutations are single atomic operations: state preconditions are re-checked
// against the freshly loaded record, so a stale second writer is rejected
// with ErrInvalidStateForAction instead of silently overwriting.
type TaskService interface {
	Create(ctx context.Context, task *models.TaskRecord) (*models.TaskRecord, error)
	GetByID(ctx context.Context, id int64) (*models.TaskRecord, error)
	List(ctx context.Context, params QueryParams) (QueryResult, error)
	Delete(ctx context.Context, id int64) error

	SubmitCompletion(ctx context.Context, id int64, payload CompletionPayload) (*models.TaskRecord, error)
	MarkComplete(ctx context.Context, id int64) (*models.TaskRecord, error)
	RequestRework(ctx context.Context, id int64, comment string, deadline time.Time) (*models.TaskRecord, error)

	Timeline(ctx context.Context, id int64) (Timeline, error)
	Summary(ctx context.Context, windowDays int) (Analytics, error)
}

type taskService struct {
	repo  repositories.TaskRepository
	users repositories.UserRepository
}

// NewTaskService creates a new instance of TaskService.
func NewTaskService(repo repositories.TaskRepository, users repositories.UserRepository) TaskService {
	return &taskService{repo: repo, users: users}
}

func (s *taskService) Create(ctx context.Context, task *models.TaskRecord) (*models.TaskRecord, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return nil, validationErr("title", "required")
	}
	if utf8.RuneCountInString(task.Title) > maxTitleLen {
		return nil, validationErr("title", "must be at most 100 characters")
	}
	if utf8.RuneCountInString(task.Description) > maxDescriptionLen {
		return nil, validationErr("description", "must be at most 500 characters")
	}
	now := time.Now()
	if !task.DueDate.After(now) {
		return nil, validationErr("due_date", "must be in the future")
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if !task.Priority.Valid() {
		return nil, validationErr("priority", "must be one of low, medium, high, critical")
	}

	task.Status = models.StatusPending
	task.Completion = nil
	task.ReworkDetails = nil
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := s.repo.Store(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, id int64) (*models.TaskRecord, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *taskService) List(ctx context.Context, params QueryParams) (QueryResult, error) {
	tasks, err := s.repo.FindAll(ctx)
	if err != nil {
		return QueryResult{}, err
	}
	if params.AssigneeNames == nil && strings.TrimSpace(params.Text) != "" {
		names, err := s.users.NamesByID(ctx)
		if err != nil {
			return QueryResult{}, err
		}
		params.AssigneeNames = names
	}
	return Query(tasks, params), nil
}

func (s *taskService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// mutate loads the current record, applies a pure transition to a copy and
// persists the result. All-or-nothing: a failed transition persists nothing.
func (s *taskService) mutate(ctx context.Context, id int64,
	apply func(*models.TaskRecord) (*models.TaskRecord, error),
) (*models.TaskRecord, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := apply(current)
	if err != nil {
		return nil, err
	}
	if err := ValidateLedger(updated); err != nil {
		return nil, err
	}
	// status is stored explicitly but must always agree with the history
	if derived := DeriveStatus(updated); derived != updated.Status {
		return nil, fmt.Errorf("status %q does not match history (derived %q)", updated.Status, derived)
	}
	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *taskService) SubmitCompletion(ctx context.Context, id int64, payload CompletionPayload) (*models.TaskRecord, error) {
	return s.mutate(ctx, id, func(t *models.TaskRecord) (*models.TaskRecord, error) {
		return SubmitCompletion(t, payload, time.Now())
	})
}

func (s *taskService) MarkComplete(ctx context.Context, id int64) (*models.TaskRecord, error) {
	return s.mutate(ctx, id, func(t *models.TaskRecord) (*models.TaskRecord, error) {
		return MarkComplete(t, time.Now())
	})
}

func (s *taskService) RequestRework(ctx context.Context, id int64, comment string, deadline time.Time) (*models.TaskRecord, error) {
	return s.mutate(ctx, id, func(t *models.TaskRecord) (*models.TaskRecord, error) {
		return RequestRework(t, comment, deadline, time.Now())
	})
}

func (s *taskService) Timeline(ctx context.Context, id int64) (Timeline, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Timeline{}, err
	}
	return BuildTimeline(task), nil
}

func (s *taskService) Summary(ctx context.Context, windowDays int) (Analytics, error) {
	tasks, err := s.repo.FindAll(ctx)
	if err != nil {
		return Analytics{}, err
	}
	return Aggregate(tasks, windowDays, time.Now()), nil
}
