package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yukikurage/task-user-api/internal/assignment"
	apierrors "github.com/yukikurage/task-user-api/internal/errors"
	"github.com/yukikurage/task-user-api/internal/models"
	"github.com/yukikurage/task-user-api/internal/observability"
	"github.com/yukikurage/task-user-api/internal/query"
	"github.com/yukikurage/task-user-api/internal/repository"
)

// DefaultTaskLimit caps task listings that do not pass `limit`.
const DefaultTaskLimit = 100

// Validation messages
const (
	msgTaskNameRequired = "Task name is required"
	msgDeadlineRequired = "Deadline is required"
	msgTaskNotFound     = "Task not found"
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo     repository.TaskRepository
	sync         *assignment.Synchronizer
	defaultLimit int64
	logger       *slog.Logger
}

// NewTaskService creates a new TaskService. A defaultLimit of zero or less
// falls back to DefaultTaskLimit.
func NewTaskService(taskRepo repository.TaskRepository, sync *assignment.Synchronizer, defaultLimit int64, logger *slog.Logger) *TaskService {
	if defaultLimit <= 0 {
		defaultLimit = DefaultTaskLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{
		taskRepo:     taskRepo,
		sync:         sync,
		defaultLimit: defaultLimit,
		logger:       logger.With("service", "tasks"),
	}
}

// TaskInput is the full set of writable task fields. Omitted optional fields
// take their defaults.
type TaskInput struct {
	Name             string
	Description      string
	Deadline         *time.Time
	Completed        bool
	AssignedUser     *string
	AssignedUserName string
}

// ListResult is either a page of records or, when Counted is set, a count.
type ListResult[T any] struct {
	Items      []T
	Count      int64
	Counted    bool
	Projection *query.Projection
}

// ListTasks lists tasks matching the query parameters
func (s *TaskService) ListTasks(ctx context.Context, params map[string]string) (*ListResult[models.Task], error) {
	spec, err := translate(query.Tasks, params)
	if err != nil {
		return nil, err
	}

	if spec.Count {
		total, err := s.taskRepo.Count(ctx, spec.Filter)
		if err != nil {
			return nil, apierrors.StoreFailure("failed to count tasks", err)
		}
		return &ListResult[models.Task]{Count: total, Counted: true}, nil
	}

	spec.ApplyDefaultLimit(s.defaultLimit)
	tasks, err := s.taskRepo.Find(ctx, spec)
	if err != nil {
		return nil, apierrors.StoreFailure("failed to list tasks", err)
	}
	return &ListResult[models.Task]{Items: tasks, Projection: spec.Projection}, nil
}

// GetTask retrieves a task by ID along with the projection requested by `select`
func (s *TaskService) GetTask(ctx context.Context, id string, params map[string]string) (*models.Task, *query.Projection, error) {
	projection, err := query.TranslateProjection(query.Tasks, params)
	if err != nil {
		return nil, nil, err
	}

	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return task, projection, nil
}

// CreateTask creates a task and links it to its assignee
func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*models.Task, error) {
	if err := validateTaskInput(input); err != nil {
		return nil, err
	}

	task := &models.Task{
		Name:        input.Name,
		Description: input.Description,
		Deadline:    input.Deadline.UTC(),
		Completed:   input.Completed,
	}
	if err := s.sync.AssignOnTaskCreate(ctx, task, input.AssignedUser, input.AssignedUserName); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "task created", "task_id", task.ID, "assigned", task.IsAssigned())
	return task, nil
}

// ReplaceTask overwrites every writable field of a task and moves its assignment
func (s *TaskService) ReplaceTask(ctx context.Context, id string, input TaskInput) (*models.Task, error) {
	if err := validateTaskInput(input); err != nil {
		return nil, err
	}

	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}

	task.Name = input.Name
	task.Description = input.Description
	task.Deadline = input.Deadline.UTC()
	task.Completed = input.Completed

	if err := s.sync.ReassignOnTaskUpdate(ctx, task, input.AssignedUser, input.AssignedUserName); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "task replaced", "task_id", task.ID, "assigned", task.IsAssigned())
	return task, nil
}

// DeleteTask unlinks a task from its assignee and deletes it
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	task, err := s.findTask(ctx, id)
	if err != nil {
		return err
	}

	if err := s.sync.UnlinkOnTaskDelete(ctx, task); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, task.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apierrors.NotFound(msgTaskNotFound)
		}
		return apierrors.StoreFailure("failed to delete task", err)
	}

	s.logger.InfoContext(ctx, "task deleted", "task_id", task.ID)
	return nil
}

func (s *TaskService) findTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierrors.NotFound(msgTaskNotFound)
		}
		return nil, apierrors.StoreFailure("failed to load task", err)
	}
	return task, nil
}

func validateTaskInput(input TaskInput) error {
	if input.Name == "" {
		return apierrors.ValidationFailed(msgTaskNameRequired)
	}
	if input.Deadline == nil || input.Deadline.IsZero() {
		return apierrors.ValidationFailed(msgDeadlineRequired)
	}
	return nil
}

// translate runs the query translator and counts rejected parameters.
func translate(coll *query.Collection, params map[string]string) (*query.Spec, error) {
	spec, err := query.Translate(coll, params, nil)
	if err != nil {
		var apiErr *apierrors.APIError
		if errors.As(err, &apiErr) {
			observability.QueryRejections.WithLabelValues(coll.Name, apiErr.Param).Inc()
		}
		return nil, err
	}
	return spec, nil
}
