// Package assignment keeps task assignments and user pending task sets in
// agreement.
//
// A task names at most one assignee (assignedUser plus the denormalized
// assignedUserName) and each user lists the tasks assigned to it in
// pendingTasks. Every write that creates, moves or removes a link goes through
// a Synchronizer so both sides change together. The store offers no
// cross-record transactions, so a failure between two writes leaves the links
// partially updated; rerunning the same operation converges.
package assignment

import (
	"context"
	"errors"
	"log/slog"

	apierrors "github.com/yukikurage/task-user-api/internal/errors"
	"github.com/yukikurage/task-user-api/internal/models"
	"github.com/yukikurage/task-user-api/internal/observability"
	"github.com/yukikurage/task-user-api/internal/query"
	"github.com/yukikurage/task-user-api/internal/repository"
)

// Synchronizer applies assignment changes to both tasks and users.
type Synchronizer struct {
	tasks  repository.TaskRepository
	users  repository.UserRepository
	logger *slog.Logger
}

// NewSynchronizer creates a Synchronizer over the given repositories.
func NewSynchronizer(tasks repository.TaskRepository, users repository.UserRepository, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		tasks:  tasks,
		users:  users,
		logger: logger.With("component", "assignment"),
	}
}

// AssignOnTaskCreate stores a new task and links it to userID. An absent or
// empty userID creates the task unassigned. An empty userName falls back to
// the user's current name. A userID that names no user fails with NotFound
// before anything is written.
func (s *Synchronizer) AssignOnTaskCreate(ctx context.Context, task *models.Task, userID *string, userName string) (err error) {
	defer s.observe(ctx, "assign_on_task_create", &err)

	if !present(userID) {
		task.Unassign()
		return s.createTask(ctx, task)
	}

	user, err := s.lookupAssignee(ctx, *userID)
	if err != nil {
		return err
	}

	task.AssignTo(user.ID, nameOr(userName, user.Name))
	if err := s.createTask(ctx, task); err != nil {
		return err
	}
	return s.addPendingTask(ctx, user.ID, task.ID)
}

// ReassignOnTaskUpdate saves task with its assignment moved to userID.
// task.AssignedUser must still hold the previous assignee; the task is
// dropped from that user's set first. An empty userName is re-derived from
// the new user's current name, and an absent userID leaves the task
// unassigned whatever name was supplied.
func (s *Synchronizer) ReassignOnTaskUpdate(ctx context.Context, task *models.Task, userID *string, userName string) (err error) {
	defer s.observe(ctx, "reassign_on_task_update", &err)

	var user *models.User
	if present(userID) {
		if user, err = s.lookupAssignee(ctx, *userID); err != nil {
			return err
		}
	}

	if task.IsAssigned() {
		if err := s.removePendingTask(ctx, *task.AssignedUser, task.ID); err != nil {
			return err
		}
	}

	if user == nil {
		task.Unassign()
	} else {
		task.AssignTo(user.ID, nameOr(userName, user.Name))
	}

	if err := s.tasks.Save(ctx, task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apierrors.NotFound("Task not found")
		}
		return apierrors.StoreFailure("failed to save task", err)
	}

	if user == nil {
		return nil
	}
	return s.addPendingTask(ctx, user.ID, task.ID)
}

// UnlinkOnTaskDelete drops task from its assignee's set. The caller deletes
// the task afterwards.
func (s *Synchronizer) UnlinkOnTaskDelete(ctx context.Context, task *models.Task) (err error) {
	defer s.observe(ctx, "unlink_on_task_delete", &err)

	if !task.IsAssigned() {
		return nil
	}
	return s.removePendingTask(ctx, *task.AssignedUser, task.ID)
}

// LinkOnUserCreate stores a new user and claims every task in its initial
// pendingTasks. Unknown task ids fail with NotFound before anything is written.
func (s *Synchronizer) LinkOnUserCreate(ctx context.Context, user *models.User) (err error) {
	defer s.observe(ctx, "link_on_user_create", &err)

	user.PendingTasks = models.UniqueIDs(user.PendingTasks)
	if err := s.requireTasks(ctx, user.PendingTasks); err != nil {
		return err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return userWriteError("failed to create user", err)
	}
	return s.ClaimTasks(ctx, user)
}

// ReconcileOnUserReplace replaces the user's pendingTasks with pending and
// saves the user, which must already carry any other replaced fields.
//
// It runs in two phases. ReleaseTasks unassigns every task of the current set,
// including ones that stay in the new set, then the user is saved and
// ClaimTasks assigns every task of the new set. Between the phases the tasks
// read as unassigned while the user has not been written yet.
func (s *Synchronizer) ReconcileOnUserReplace(ctx context.Context, user *models.User, pending []string) (err error) {
	defer s.observe(ctx, "reconcile_on_user_replace", &err)

	pending = models.UniqueIDs(pending)
	if err := s.requireTasks(ctx, pending); err != nil {
		return err
	}

	if err := s.ReleaseTasks(ctx, user.PendingTasks); err != nil {
		return err
	}

	user.PendingTasks = pending
	if err := s.users.Save(ctx, user); err != nil {
		return userWriteError("failed to save user", err)
	}

	return s.ClaimTasks(ctx, user)
}

// UnlinkOnUserDelete unassigns every task in the user's set. The caller
// deletes the user afterwards.
func (s *Synchronizer) UnlinkOnUserDelete(ctx context.Context, user *models.User) (err error) {
	defer s.observe(ctx, "unlink_on_user_delete", &err)

	return s.ReleaseTasks(ctx, user.PendingTasks)
}

// ReleaseTasks unassigns every listed task with one bulk update.
func (s *Synchronizer) ReleaseTasks(ctx context.Context, taskIDs []string) error {
	ids := models.UniqueIDs(taskIDs)
	if len(ids) == 0 {
		return nil
	}

	n, err := s.tasks.UpdateAssignments(ctx, ids, repository.Unassigned())
	if err != nil {
		return apierrors.StoreFailure("failed to release tasks", err)
	}

	observability.SyncTasksTouched.WithLabelValues("release").Add(float64(n))
	s.logger.DebugContext(ctx, "released tasks", "requested", len(ids), "updated", n)
	return nil
}

// ClaimTasks assigns every task in user.PendingTasks to user with one bulk
// update. A claimed task still listed by another user is removed from that
// user's set first.
func (s *Synchronizer) ClaimTasks(ctx context.Context, user *models.User) error {
	ids := models.UniqueIDs(user.PendingTasks)
	if len(ids) == 0 {
		return nil
	}

	tasks, err := s.tasks.Find(ctx, &query.Spec{Filter: query.InIDs(query.Tasks.MustField(query.IDField), ids)})
	if err != nil {
		return apierrors.StoreFailure("failed to load claimed tasks", err)
	}
	for i := range tasks {
		t := &tasks[i]
		if t.IsAssigned() && *t.AssignedUser != user.ID {
			if err := s.removePendingTask(ctx, *t.AssignedUser, t.ID); err != nil {
				return err
			}
		}
	}

	n, err := s.tasks.UpdateAssignments(ctx, ids, repository.AssignTo(user))
	if err != nil {
		return apierrors.StoreFailure("failed to claim tasks", err)
	}

	observability.SyncTasksTouched.WithLabelValues("claim").Add(float64(n))
	s.logger.DebugContext(ctx, "claimed tasks", "user_id", user.ID, "requested", len(ids), "updated", n)
	return nil
}

func (s *Synchronizer) lookupAssignee(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierrors.NotFound("Assigned user not found")
		}
		return nil, apierrors.StoreFailure("failed to load assigned user", err)
	}
	return user, nil
}

// requireTasks fails with NotFound unless every id names a stored task.
func (s *Synchronizer) requireTasks(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	total, err := s.tasks.Count(ctx, query.InIDs(query.Tasks.MustField(query.IDField), ids))
	if err != nil {
		return apierrors.StoreFailure("failed to check pending tasks", err)
	}
	if total < int64(len(ids)) {
		return apierrors.NotFound("Task not found")
	}
	return nil
}

func (s *Synchronizer) createTask(ctx context.Context, task *models.Task) error {
	if err := s.tasks.Create(ctx, task); err != nil {
		return apierrors.StoreFailure("failed to create task", err)
	}
	return nil
}

func (s *Synchronizer) addPendingTask(ctx context.Context, userID, taskID string) error {
	if err := s.users.AddPendingTask(ctx, userID, taskID); err != nil {
		return apierrors.StoreFailure("failed to add pending task", err)
	}
	return nil
}

func (s *Synchronizer) removePendingTask(ctx context.Context, userID, taskID string) error {
	if err := s.users.RemovePendingTask(ctx, userID, taskID); err != nil {
		return apierrors.StoreFailure("failed to remove pending task", err)
	}
	return nil
}

func (s *Synchronizer) observe(ctx context.Context, operation string, err *error) {
	observability.SyncOperations.WithLabelValues(operation, observability.Outcome(*err)).Inc()
	if *err != nil {
		s.logger.DebugContext(ctx, "sync failed", "operation", operation, "error", *err)
		return
	}
	s.logger.DebugContext(ctx, "sync done", "operation", operation)
}

func userWriteError(message string, err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return apierrors.Conflict("Email already exists")
	case errors.Is(err, repository.ErrNotFound):
		return apierrors.NotFound("User not found")
	default:
		return apierrors.StoreFailure(message, err)
	}
}

func present(id *string) bool {
	return id != nil && *id != ""
}

func nameOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
