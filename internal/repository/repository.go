package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/task-user-api/internal/models"
	"github.com/yukikurage/task-user-api/internal/query"
)

var (
	// ErrNotFound is returned when a lookup by identifier matches nothing.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("repository: duplicate key")
)

// AssignmentUpdate is the field set written by a bulk assignment update.
type AssignmentUpdate struct {
	UserID   *string
	UserName string
}

// Unassigned returns the update that clears a task's assignment.
func Unassigned() AssignmentUpdate {
	return AssignmentUpdate{UserName: models.UnassignedUserName}
}

// AssignTo returns the update that points tasks at user.
func AssignTo(user *models.User) AssignmentUpdate {
	id := user.ID
	return AssignmentUpdate{UserID: &id, UserName: user.Name}
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Find returns the tasks matching spec; Count in spec is ignored.
	Find(ctx context.Context, spec *query.Spec) ([]models.Task, error)

	// Count counts the tasks matching filter
	Count(ctx context.Context, filter query.Filter) (int64, error)

	// FindByID finds a task by ID
	FindByID(ctx context.Context, id string) (*models.Task, error)

	// Create inserts a task, assigning ID and DateCreated when unset
	Create(ctx context.Context, task *models.Task) error

	// Save writes every field of an existing task
	Save(ctx context.Context, task *models.Task) error

	// Delete removes a task
	Delete(ctx context.Context, id string) error

	// UpdateAssignments applies update to every task in ids and returns how
	// many matched
	UpdateAssignments(ctx context.Context, ids []string, update AssignmentUpdate) (int64, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Find returns the users matching spec with their pending task sets
	Find(ctx context.Context, spec *query.Spec) ([]models.User, error)

	// Count counts the users matching filter
	Count(ctx context.Context, filter query.Filter) (int64, error)

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// Create inserts a user and its pending task set
	Create(ctx context.Context, user *models.User) error

	// Save writes every field of an existing user, replacing its pending task set
	Save(ctx context.Context, user *models.User) error

	// Delete removes a user
	Delete(ctx context.Context, id string) error

	// AddPendingTask adds taskID to the user's set; adding a member twice is a no-op
	AddPendingTask(ctx context.Context, userID, taskID string) error

	// RemovePendingTask removes taskID from the user's set; removing an absent
	// member is a no-op
	RemovePendingTask(ctx context.Context, userID, taskID string) error
}
